package session

import (
	"sync"
	"time"
)

// Store maps user ids to their active sessions. The controller owns the
// session for its lifetime; the store only keeps and prunes it. Put takes
// the session lock to snapshot, so callers must not hold it.
type Store interface {
	Get(userID int64) (*Session, bool)
	Put(s *Session) error
	Delete(userID int64) error
	// PruneIdle drops sessions whose last activity is older than maxIdle
	// and returns how many were removed.
	PruneIdle(maxIdle time.Duration) (int, error)
}

// MemoryStore is the default store. Sessions do not survive a restart,
// which matches the conversational model: an interrupted user starts over.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *MemoryStore) Put(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s
	return nil
}

func (m *MemoryStore) Delete(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) PruneIdle(maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.UpdatedAt.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			pruned++
		}
	}
	return pruned, nil
}
