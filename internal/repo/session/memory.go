package session

import (
	"context"
	"sync"

	"github.com/sir_venger/portal_lite/internal/models"
)

// MemoryStore хранит сессии только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.UploadSession
}

// NewMemoryStore создаёт пустое in-memory хранилище сессий.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]models.UploadSession{}}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(ctx context.Context, sess models.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.UploadSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.UploadSession{}, models.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, sess models.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return models.ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
