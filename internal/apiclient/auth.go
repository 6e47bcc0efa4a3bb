package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

type LoginResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the user payload.
func (c *Client) Login(ctx context.Context, documentNumber, password string) (LoginResult, error) {
	req := map[string]string{
		"numero_documento": documentNumber,
		"password":         password,
	}
	var out LoginResult
	if err := c.do(ctx, "", http.MethodPost, c.loginPath, req, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, fmt.Errorf("login response missing token")
	}
	return out, nil
}
