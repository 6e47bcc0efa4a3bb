package session

import "sync"

// Storage persists the full session state. Save always receives the
// complete map and replaces whatever was stored before.
type Storage interface {
	Load() (map[string]Session, error)
	Save(sessions map[string]Session) error
}

type MemoryStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[string]Session)}
}

func (m *MemoryStorage) Load() (map[string]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySessions(m.sessions), nil
}

func (m *MemoryStorage) Save(sessions map[string]Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = copySessions(sessions)
	return nil
}

func copySessions(in map[string]Session) map[string]Session {
	out := make(map[string]Session, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
