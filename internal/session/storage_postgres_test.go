package session

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewPostgresStorage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS console_sessions").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := NewPostgresStorage(db); err != nil {
		t.Fatalf("NewPostgresStorage() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresStorageLoadAndSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS console_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	storage, err := NewPostgresStorage(db)
	if err != nil {
		t.Fatalf("NewPostgresStorage() error: %v", err)
	}

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sessions := map[string]Session{
		"sid1": {ID: "sid1", Token: "tok1", User: adminUser, CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM console_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO console_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := storage.Save(sessions); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"session_id", "token", "user_payload", "created_at", "expires_at"}).
		AddRow("sid1", "tok1", []byte(`{"numero_documento":"12345678","rol":"admin","colegio_id":2,"nombre":"Ana Torres"}`), now, nil).
		AddRow("sid2", "tok2", []byte(`{"numero_documento":"87654321","rol":"worker","colegio_id":2,"nombre":"Luis"}`), now, now.Add(time.Hour))
	mock.ExpectQuery("SELECT session_id, token, user_payload, created_at, expires_at FROM console_sessions").
		WillReturnRows(rows)

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two sessions, got %d", len(loaded))
	}
	if loaded["sid1"].User != adminUser || !loaded["sid1"].ExpiresAt.IsZero() {
		t.Fatalf("unexpected sid1: %+v", loaded["sid1"])
	}
	if !loaded["sid2"].ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected sid2 expiry: %v", loaded["sid2"].ExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
