package session

import "time"

const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User is the payload returned by the Appsistencia API on a successful
// credential exchange.
type User struct {
	DocumentNumber string `json:"numero_documento"`
	Role           string `json:"rol"`
	SchoolID       int64  `json:"colegio_id"`
	Name           string `json:"nombre"`
	Email          string `json:"email,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session has a deadline and it has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type SessionView struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (s Session) View() SessionView {
	return SessionView{ID: s.ID, User: s.User, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt}
}
