// Package blob абстрагирует объектное хранилище: S3-совместимый бэкенд,
// легаси-хранилище на badger и in-memory реализацию для тестов.
package blob

import (
	"context"
	"time"
)

// SignDirection — назначение подписанной ссылки.
type SignDirection string

const (
	SignGet SignDirection = "get"
	SignPut SignDirection = "put"
)

// ObjectInfo описывает один объект в листинге хранилища.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListPage — одна страница листинга с токеном продолжения.
type ListPage struct {
	Objects   []ObjectInfo
	NextToken string
}

// Store — контракт объектного хранилища. Get возвращает models.ErrKeyNotFound
// для отсутствующего ключа; Put перезаписывает по ключу идемпотентно.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix, token string, limit int) (ListPage, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration, dir SignDirection) (string, error)
}

const defaultPageSize = 1000

// ListAll выгребает листинг по префиксу целиком, следуя токенам продолжения.
func ListAll(ctx context.Context, s Store, prefix string) ([]ObjectInfo, error) {
	var (
		out   []ObjectInfo
		token string
	)
	for {
		page, err := s.List(ctx, prefix, token, defaultPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Objects...)
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}
