package meta

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sir_venger/portal_lite/internal/models"
)

// MemoryStore хранит метаданные только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu          sync.RWMutex
	files       map[string]models.FileRecord
	assignments map[string]map[string]struct{}
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:       map[string]models.FileRecord{},
		assignments: map[string]map[string]struct{}{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) InsertFile(ctx context.Context, rec models.FileRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.AssignedTo = nil
	s.files[rec.ID] = rec
	return rec.ID, nil
}

func (s *MemoryStore) GetFileByID(ctx context.Context, id string) (models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[id]
	if !ok {
		return models.FileRecord{}, models.ErrFileNotFound
	}
	rec.AssignedTo = s.assignedLocked(id)
	return rec, nil
}

func (s *MemoryStore) DeleteFileTransactional(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return models.ErrFileNotFound
	}
	delete(s.assignments, id)
	delete(s.files, id)
	return nil
}

func (s *MemoryStore) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FileRecord, 0, len(s.files))
	for id, rec := range s.files {
		rec.AssignedTo = s.assignedLocked(id)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StorageKey < out[j].StorageKey })
	return out, nil
}

func (s *MemoryStore) ListFilesForUser(ctx context.Context, userID string) ([]models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.FileRecord
	for id, rec := range s.files {
		if _, ok := s.assignments[id][userID]; !ok {
			continue
		}
		rec.AssignedTo = s.assignedLocked(id)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StorageKey < out[j].StorageKey })
	return out, nil
}

func (s *MemoryStore) UpdateFileSize(ctx context.Context, id string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.files[id]
	if !ok {
		return models.ErrFileNotFound
	}
	rec.Size = size
	s.files[id] = rec
	return nil
}

func (s *MemoryStore) AssignFileToUsers(ctx context.Context, fileID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileID]; !ok {
		return models.ErrFileNotFound
	}
	set, ok := s.assignments[fileID]
	if !ok {
		set = map[string]struct{}{}
		s.assignments[fileID] = set
	}
	for _, uid := range userIDs {
		set[uid] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) assignedLocked(fileID string) []string {
	set := s.assignments[fileID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}
