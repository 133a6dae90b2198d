// Package session — хранилище состояния незавершённых загрузок за явным
// интерфейсом, чтобы тесты могли подставить in-memory реализацию.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
)

// Store — контракт хранилища сессий. Get возвращает models.ErrSessionNotFound
// для неизвестного или уже вычищенного id.
type Store interface {
	Create(ctx context.Context, s models.UploadSession) error
	Get(ctx context.Context, id string) (models.UploadSession, error)
	Update(ctx context.Context, s models.UploadSession) error
	Delete(ctx context.Context, id string) error
}

// BlobStore сериализует сессии в JSON под ключами sessions/<id> того же
// объектного хранилища, что и чанки.
type BlobStore struct {
	blobs blob.Store
}

// NewBlobStore создаёт хранилище сессий поверх объектного.
func NewBlobStore(blobs blob.Store) *BlobStore {
	return &BlobStore{blobs: blobs}
}

var _ Store = (*BlobStore)(nil)

func (s *BlobStore) Create(ctx context.Context, sess models.UploadSession) error {
	return s.write(ctx, sess)
}

func (s *BlobStore) Get(ctx context.Context, id string) (models.UploadSession, error) {
	raw, err := s.blobs.Get(ctx, blob.SessionKey(id))
	if err != nil {
		if errors.Is(err, models.ErrKeyNotFound) {
			return models.UploadSession{}, models.ErrSessionNotFound
		}
		return models.UploadSession{}, err
	}

	var sess models.UploadSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.UploadSession{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	if sess.Chunks == nil {
		sess.Chunks = map[int]int64{}
	}
	return sess, nil
}

func (s *BlobStore) Update(ctx context.Context, sess models.UploadSession) error {
	return s.write(ctx, sess)
}

func (s *BlobStore) Delete(ctx context.Context, id string) error {
	return s.blobs.Delete(ctx, blob.SessionKey(id))
}

func (s *BlobStore) write(ctx context.Context, sess models.UploadSession) error {
	if sess.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	return s.blobs.Put(ctx, blob.SessionKey(sess.ID), raw)
}
