package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrExpired     = errors.New("session expired")
	ErrInvalidUser = errors.New("invalid user payload")
)

// Store owns every operator session of the console. It is created once at
// startup, hydrated explicitly from its Storage, and passed to whoever
// needs to read or mutate session state.
type Store struct {
	storage Storage
	maxAge  time.Duration
	nowFunc func() time.Time
	newID   func() string

	mu       sync.RWMutex
	sessions map[string]Session
}

type StoreConfig struct {
	// MaxAge bounds a session's lifetime locally. Zero leaves the
	// lifetime to the token's own exp claim, or unbounded without one.
	MaxAge time.Duration
}

func NewStore(storage Storage, cfg StoreConfig) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("session storage is required")
	}
	if cfg.MaxAge < 0 {
		return nil, fmt.Errorf("session max age must be >= 0")
	}
	return &Store{
		storage:  storage,
		maxAge:   cfg.MaxAge,
		nowFunc:  time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]Session),
	}, nil
}

// Hydrate replaces the in-memory state with what the storage holds.
func (s *Store) Hydrate() error {
	state, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("hydrate sessions: %w", err)
	}
	if state == nil {
		state = make(map[string]Session)
	}
	s.mu.Lock()
	s.sessions = state
	s.mu.Unlock()
	return nil
}

func (s *Store) Login(user User, token string) (Session, error) {
	if strings.TrimSpace(user.DocumentNumber) == "" || strings.TrimSpace(user.Role) == "" {
		return Session{}, ErrInvalidUser
	}

	now := s.nowFunc().UTC()
	sess := Session{
		ID:        s.newID(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: s.expiryFor(token, now),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	if err := s.storage.Save(s.sessions); err != nil {
		delete(s.sessions, sess.ID)
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

func (s *Store) expiryFor(token string, now time.Time) time.Time {
	var deadline time.Time
	if exp, ok := tokenExpiry(token); ok {
		deadline = exp
	}
	if s.maxAge > 0 {
		local := now.Add(s.maxAge)
		if deadline.IsZero() || local.Before(deadline) {
			deadline = local
		}
	}
	return deadline
}

func (s *Store) Logout(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	if err := s.storage.Save(s.sessions); err != nil {
		s.sessions[id] = prev
		return fmt.Errorf("persist logout: %w", err)
	}
	return nil
}

// LogoutAll clears every session, used by the single-operator CLI.
func (s *Store) LogoutAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.sessions
	s.sessions = make(map[string]Session)
	if err := s.storage.Save(s.sessions); err != nil {
		s.sessions = prev
		return fmt.Errorf("persist logout: %w", err)
	}
	return nil
}

// LogoutOthers clears every session except keep.
func (s *Store) LogoutOthers(keep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.sessions
	next := make(map[string]Session, 1)
	if sess, ok := prev[keep]; ok {
		next[keep] = sess
	}
	s.sessions = next
	if err := s.storage.Save(s.sessions); err != nil {
		s.sessions = prev
		return fmt.Errorf("persist logout: %w", err)
	}
	return nil
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Expired(s.nowFunc()) {
		return Session{}, ErrExpired
	}
	return sess, nil
}

func (s *Store) IsLoggedIn(id string) bool {
	_, err := s.Get(id)
	return err == nil
}

// Role returns the role of a live session, or "" when there is none.
func (s *Store) Role(id string) string {
	sess, err := s.Get(id)
	if err != nil {
		return ""
	}
	return sess.User.Role
}

// Current returns the most recently created live session.
func (s *Store) Current() (Session, bool) {
	now := s.nowFunc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest Session
	found := false
	for _, sess := range s.sessions {
		if sess.Expired(now) {
			continue
		}
		if !found || sess.CreatedAt.After(newest.CreatedAt) {
			newest = sess
			found = true
		}
	}
	return newest, found
}

func (s *Store) List() []SessionView {
	now := s.nowFunc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionView, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Expired(now) {
			continue
		}
		out = append(out, sess.View())
	}
	return out
}

// Purge drops expired sessions and returns how many were removed.
func (s *Store) Purge() (int, error) {
	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.storage.Save(s.sessions); err != nil {
		return removed, fmt.Errorf("persist purge: %w", err)
	}
	return removed, nil
}
