package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var adminUser = User{DocumentNumber: "12345678", Role: RoleAdmin, SchoolID: 2, Name: "Ana Torres"}

type failingStorage struct {
	err error
}

func (f *failingStorage) Load() (map[string]Session, error) { return map[string]Session{}, nil }
func (f *failingStorage) Save(map[string]Session) error     { return f.err }

func newTestStore(t *testing.T, storage Storage, cfg StoreConfig) *Store {
	t.Helper()
	store, err := NewStore(storage, cfg)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "12345678",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestLoginThenIsLoggedIn(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{})

	sess, err := store.Login(adminUser, "opaque-token")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if sess.ID == "" {
		t.Fatalf("expected non-empty session id")
	}
	if !store.IsLoggedIn(sess.ID) {
		t.Fatalf("expected IsLoggedIn after Login")
	}
	if got := store.Role(sess.ID); got != RoleAdmin {
		t.Fatalf("expected role admin, got %q", got)
	}
	if !sess.ExpiresAt.IsZero() {
		t.Fatalf("expected opaque token session without expiry, got %v", sess.ExpiresAt)
	}
}

func TestLoginRejectsIncompletePayload(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{})

	if _, err := store.Login(User{DocumentNumber: "1"}, "tok"); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for missing role, got %v", err)
	}
	if _, err := store.Login(User{Role: RoleWorker}, "tok"); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for missing document, got %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	storage := NewMemoryStorage()
	store := newTestStore(t, storage, StoreConfig{})
	sess, _ := store.Login(adminUser, "tok")

	if err := store.Logout(sess.ID); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if store.IsLoggedIn(sess.ID) {
		t.Fatalf("expected IsLoggedIn false after logout")
	}
	if got := store.Role(sess.ID); got != "" {
		t.Fatalf("expected empty role after logout, got %q", got)
	}
	persisted, _ := storage.Load()
	if len(persisted) != 0 {
		t.Fatalf("expected persisted state cleared, got %d sessions", len(persisted))
	}
	if err := store.Logout(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second logout, got %v", err)
	}
}

func TestSessionSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	storage, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage() error: %v", err)
	}
	store := newTestStore(t, storage, StoreConfig{})
	sess, err := store.Login(adminUser, "tok")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	storage2, _ := NewFileStorage(path)
	reloaded := newTestStore(t, storage2, StoreConfig{})
	if reloaded.IsLoggedIn(sess.ID) {
		t.Fatalf("expected reads before Hydrate to see no sessions")
	}
	if err := reloaded.Hydrate(); err != nil {
		t.Fatalf("Hydrate() error: %v", err)
	}
	if !reloaded.IsLoggedIn(sess.ID) {
		t.Fatalf("expected session to survive reload")
	}
	got, err := reloaded.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.User != adminUser {
		t.Fatalf("expected user payload round trip, got %+v", got.User)
	}
}

func TestLoginRollsBackOnPersistFailure(t *testing.T) {
	storage := &failingStorage{err: errors.New("disk full")}
	store := newTestStore(t, storage, StoreConfig{})
	store.newID = func() string { return "fixed" }

	if _, err := store.Login(adminUser, "tok"); err == nil {
		t.Fatalf("expected Login() to fail when storage fails")
	}
	if store.IsLoggedIn("fixed") {
		t.Fatalf("expected failed login to leave no session behind")
	}
}

func TestTokenExpiryIsHonoured(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{})
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	sess, err := store.Login(adminUser, signedToken(t, now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry from token exp, got %v", sess.ExpiresAt)
	}

	store.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	if store.IsLoggedIn(sess.ID) {
		t.Fatalf("expected expired token session to be logged out")
	}
	if _, err := store.Get(sess.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestMaxAgeCapsTokenExpiry(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{MaxAge: 10 * time.Minute})
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	sess, _ := store.Login(adminUser, signedToken(t, now.Add(time.Hour)))
	if !sess.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expected max age to cap expiry, got %v", sess.ExpiresAt)
	}

	opaque, _ := store.Login(adminUser, "opaque")
	if !opaque.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expected max age expiry for opaque token, got %v", opaque.ExpiresAt)
	}
}

func TestCurrentAndPurge(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{MaxAge: time.Minute})
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	store.nowFunc = func() time.Time { return base }
	old, _ := store.Login(adminUser, "a")
	store.nowFunc = func() time.Time { return base.Add(50 * time.Second) }
	worker := User{DocumentNumber: "87654321", Role: RoleWorker, SchoolID: 2}
	newer, _ := store.Login(worker, "b")

	cur, ok := store.Current()
	if !ok || cur.ID != newer.ID {
		t.Fatalf("expected newest session as current, got %+v", cur)
	}

	store.nowFunc = func() time.Time { return base.Add(90 * time.Second) }
	removed, err := store.Purge()
	if err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one expired session purged, got %d", removed)
	}
	if store.IsLoggedIn(old.ID) || !store.IsLoggedIn(newer.ID) {
		t.Fatalf("unexpected session state after purge")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected one listed session, got %d", got)
	}
}

func TestLogoutAll(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{})
	a, _ := store.Login(adminUser, "a")
	b, _ := store.Login(adminUser, "b")

	if err := store.LogoutAll(); err != nil {
		t.Fatalf("LogoutAll() error: %v", err)
	}
	if store.IsLoggedIn(a.ID) || store.IsLoggedIn(b.ID) {
		t.Fatalf("expected all sessions cleared")
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("expected no current session")
	}
}

func TestLogoutOthersKeepsOne(t *testing.T) {
	store := newTestStore(t, NewMemoryStorage(), StoreConfig{})
	a, _ := store.Login(adminUser, "a")
	b, _ := store.Login(adminUser, "b")

	if err := store.LogoutOthers(b.ID); err != nil {
		t.Fatalf("LogoutOthers() error: %v", err)
	}
	if store.IsLoggedIn(a.ID) {
		t.Fatalf("expected older session cleared")
	}
	if !store.IsLoggedIn(b.ID) {
		t.Fatalf("expected kept session to stay logged in")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected one listed session, got %d", got)
	}
}
