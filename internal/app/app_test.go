package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/config"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

func TestOpenSessionStorageFile(t *testing.T) {
	cfg := config.Config{Session: config.SessionConfig{
		Backend:   config.SessionBackendFile,
		StateFile: filepath.Join(t.TempDir(), "sessions.json"),
	}}

	storage, closer, err := OpenSessionStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenSessionStorage() error: %v", err)
	}
	defer closer()
	if _, ok := storage.(*session.FileStorage); !ok {
		t.Fatalf("expected file storage, got %T", storage)
	}
}

func TestOpenSessionStorageRedisUnreachable(t *testing.T) {
	cfg := config.Config{
		Session: config.SessionConfig{Backend: config.SessionBackendRedis},
		Redis:   config.RedisConfig{Addr: "127.0.0.1:1"},
	}
	if _, _, err := OpenSessionStorage(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}

func TestNewHydratesFileSessions(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		API:          config.APIConfig{BaseURL: "http://127.0.0.1:1"},
		Session:      config.SessionConfig{Backend: config.SessionBackendFile, StateFile: filepath.Join(dir, "sessions.json"), CookieName: "sid"},
		AuditLogFile: filepath.Join(dir, "audit.log"),
		LogLevel:     "error",
	}

	storage, err := session.NewFileStorage(cfg.Session.StateFile)
	if err != nil {
		t.Fatalf("NewFileStorage() error: %v", err)
	}
	seed, err := session.NewStore(storage, session.StoreConfig{})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	sess, err := seed.Login(session.User{DocumentNumber: "1", Role: session.RoleAdmin, SchoolID: 2}, "tok")
	if err != nil {
		t.Fatalf("seed login: %v", err)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.closer()
	if !a.store.IsLoggedIn(sess.ID) {
		t.Fatalf("expected the persisted session to survive a restart")
	}
}
