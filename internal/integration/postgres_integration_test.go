package integration

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

func openTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping Postgres integration tests")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open() error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("db.Ping() error: %v", err)
	}
	return db
}

func TestPostgresSessionStoreSurvivesRestart(t *testing.T) {
	db := openTestPostgres(t)

	newStore := func() *session.Store {
		storage, err := session.NewPostgresStorage(db)
		if err != nil {
			t.Fatalf("NewPostgresStorage() error: %v", err)
		}
		store, err := session.NewStore(storage, session.StoreConfig{MaxAge: time.Hour})
		if err != nil {
			t.Fatalf("NewStore() error: %v", err)
		}
		if err := store.Hydrate(); err != nil {
			t.Fatalf("Hydrate() error: %v", err)
		}
		return store
	}

	doc := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	first := newStore()
	sess, err := first.Login(session.User{DocumentNumber: doc, Role: session.RoleWorker, SchoolID: 2, Name: "Integration"}, "tok-itest")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	t.Cleanup(func() { _ = first.Logout(sess.ID) })

	second := newStore()
	got, err := second.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() after restart error: %v", err)
	}
	if got.User.DocumentNumber != doc || got.Token != "tok-itest" || got.ExpiresAt.IsZero() {
		t.Fatalf("unexpected session after restart: %+v", got)
	}
	if second.Role(sess.ID) != session.RoleWorker {
		t.Fatalf("expected worker role, got %q", second.Role(sess.ID))
	}

	if err := second.Logout(sess.ID); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if newStore().IsLoggedIn(sess.ID) {
		t.Fatalf("expected logged out session to stay gone after restart")
	}
}
