package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/audit"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/guard"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/nav"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/notify"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/validate"
)

type loginRequest struct {
	DocumentNumber string `json:"numero_documento" validate:"required"`
	Password       string `json:"password" validate:"required"`
}

func registerAuthHandlers(mux *http.ServeMux, g *guard.Guard, deps Deps) {
	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil || deps.Sessions == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.DocumentNumber = strings.TrimSpace(req.DocumentNumber)
		if err := validate.Struct(req); err != nil {
			writeFailure(w, err)
			return
		}

		res, err := deps.Auth.Login(r.Context(), req.DocumentNumber, req.Password)
		if err != nil {
			auditReq(deps.Audit, r, audit.Event{Actor: req.DocumentNumber, Action: "auth.login", Outcome: audit.OutcomeFailure, Detail: err.Error()})
			if apiclient.KindOf(err) == apiclient.KindUnauthorized {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error":  "invalid credentials",
					"kind":   apiclient.KindUnauthorized,
					"notice": notify.Failure("Invalid document number or password."),
				})
				return
			}
			writeFailure(w, err)
			return
		}
		sess, err := deps.Sessions.Login(res.User, res.Token)
		if err != nil {
			deps.Logger.Error("store session failed", "actor", req.DocumentNumber, "error", err)
			auditReq(deps.Audit, r, audit.Event{Actor: req.DocumentNumber, Action: "auth.login", Outcome: audit.OutcomeFailure, Detail: err.Error()})
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		auditReq(deps.Audit, r, actorEvent(sess, "auth.login", "", audit.OutcomeSuccess, ""))

		cookie := &http.Cookie{
			Name:     deps.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   deps.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		}
		if !sess.ExpiresAt.IsZero() {
			cookie.Expires = sess.ExpiresAt
		}
		http.SetCookie(w, cookie)

		body := map[string]any{
			"session_id": sess.ID,
			"user":       sess.User,
			"home":       nav.Home(sess.User.Role),
			"menu":       nav.ForRole(sess.User.Role),
			"notice":     notify.Success("Welcome, " + displayName(sess.User) + "."),
		}
		if !sess.ExpiresAt.IsZero() {
			body["expires_at"] = sess.ExpiresAt.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, body)
	})

	mux.Handle("/v1/auth/me", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sess, _ := session.FromContext(r.Context())
		writeJSON(w, http.StatusOK, sess.View())
	})))

	mux.Handle("/v1/auth/logout", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sess, _ := session.FromContext(r.Context())
		if err := deps.Sessions.Logout(sess.ID); err != nil {
			auditReq(deps.Audit, r, actorEvent(sess, "auth.logout", "", audit.OutcomeFailure, err.Error()))
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		auditReq(deps.Audit, r, actorEvent(sess, "auth.logout", "", audit.OutcomeSuccess, ""))
		clearSessionCookie(w, deps)
		w.WriteHeader(http.StatusNoContent)
	})))
}

func clearSessionCookie(w http.ResponseWriter, deps Deps) {
	http.SetCookie(w, &http.Cookie{
		Name:     deps.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   deps.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func displayName(u session.User) string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.DocumentNumber
}
