package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) (*PostgresStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresStorage{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS console_sessions (
	session_id TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	user_payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure console_sessions schema: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Load() (map[string]Session, error) {
	const q = `
SELECT session_id, token, user_payload, created_at, expires_at
FROM console_sessions`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Session)
	for rows.Next() {
		var sess Session
		var userJSON []byte
		var expiresAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Token, &userJSON, &sess.CreatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal(userJSON, &sess.User); err != nil {
			return nil, fmt.Errorf("decode session user: %w", err)
		}
		if expiresAt.Valid {
			sess.ExpiresAt = expiresAt.Time
		}
		out[sess.ID] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStorage) Save(sessions map[string]Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM console_sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	const q = `
INSERT INTO console_sessions (session_id, token, user_payload, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)`
	for id, sess := range sessions {
		userJSON, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		expiresAt := sql.NullTime{Time: sess.ExpiresAt, Valid: !sess.ExpiresAt.IsZero()}
		if _, err := tx.Exec(q, id, sess.Token, userJSON, sess.CreatedAt, expiresAt); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}
