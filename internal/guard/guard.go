// Package guard decides whether a request may enter a protected part of
// the console.
package guard

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

type Sessions interface {
	Get(id string) (session.Session, error)
}

type Guard struct {
	sessions   Sessions
	cookieName string
	loginPath  string
}

func New(sessions Sessions, cookieName, loginPath string) *Guard {
	return &Guard{sessions: sessions, cookieName: cookieName, loginPath: loginPath}
}

// SessionID reads the session id from the console cookie, falling back to
// an Authorization bearer header for non-browser clients.
func (g *Guard) SessionID(r *http.Request) string {
	if c, err := r.Cookie(g.cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (g *Guard) Allow(r *http.Request) (session.Session, bool) {
	if g.sessions == nil {
		return session.Session{}, false
	}
	id := g.SessionID(r)
	if id == "" {
		return session.Session{}, false
	}
	sess, err := g.sessions.Get(id)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

// Protect redirects to the login path when there is no live session; the
// wrapped handler only runs for logged-in operators.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := g.Allow(r)
		if !ok {
			http.Redirect(w, r, g.loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// RequireAPI is Protect for JSON endpoints: 401 without a session, 403 when
// roles is non-empty and the session role is not among them.
func (g *Guard) RequireAPI(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := g.Allow(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		if len(roles) > 0 && !hasRole(roles, sess.User.Role) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
