package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/observability"
)

const maxErrorBody = 4 << 10

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	LoginPath  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Appsistencia REST API. It holds no credentials; use
// As to obtain a view that sends a bearer token.
type Client struct {
	baseURL   string
	loginPath string
	http      *http.Client
	log       *slog.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/api/auth/login"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	return &Client{baseURL: base, loginPath: loginPath, http: hc, log: logger}, nil
}

// Authorized sends every request with the bearer token it was created for.
type Authorized struct {
	c     *Client
	token string
}

func (c *Client) As(token string) *Authorized {
	return &Authorized{c: c, token: token}
}

func (a *Authorized) do(ctx context.Context, method, path string, in, out any) error {
	return a.c.do(ctx, a.token, method, path, in, out)
}

func (c *Client) do(ctx context.Context, token, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.UpstreamRequests.WithLabelValues(method, string(KindNetwork)).Inc()
		c.log.Warn("api request failed", "method", method, "path", path, "error", err)
		return &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := Classify(resp.StatusCode)
		observability.UpstreamRequests.WithLabelValues(method, string(kind)).Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Kind:    kind,
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: errorMessage(raw),
		}
	}
	observability.UpstreamRequests.WithLabelValues(method, "ok").Inc()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Method: method, Path: path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body. The API
// is not consistent about the field name.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"message", "mensaje", "error"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	msg := string(raw)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
