package memory

import (
	"context"
	"sync"

	domain "github.com/aimatrix/site/internal/domain/session"
)

// SessionStore keeps the session in process memory under domain.StorageKey.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[domain.StorageKey]
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[domain.StorageKey] = sess
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, domain.StorageKey)
	return nil
}
