package blob

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sir_venger/portal_lite/internal/models"
)

type memObject struct {
	data []byte
	mod  time.Time
}

// MemoryStore хранит объекты только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memObject{}}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = memObject{data: cp, mod: time.Now()}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, models.ErrKeyNotFound
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MemoryStore) List(ctx context.Context, prefix, token string, limit int) (ListPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if len(prefix) == 0 || (len(k) >= len(prefix) && k[:len(prefix)] == prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)

	var page ListPage
	for _, k := range keys {
		if token != "" && k <= token {
			continue
		}
		if len(page.Objects) == limit {
			page.NextToken = page.Objects[limit-1].Key
			break
		}
		s.mu.RLock()
		obj := s.objects[k]
		s.mu.RUnlock()
		page.Objects = append(page.Objects, ObjectInfo{Key: k, Size: int64(len(obj.data)), LastModified: obj.mod})
	}
	return page, nil
}

// SignedURL в памяти ничего не подписывает, но возвращает стабильный URL для проверок.
func (s *MemoryStore) SignedURL(ctx context.Context, key string, ttl time.Duration, dir SignDirection) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok && dir == SignGet {
		return "", models.ErrKeyNotFound
	}
	return fmt.Sprintf("memory://%s/%s?expires=%d", dir, key, int64(ttl.Seconds())), nil
}
