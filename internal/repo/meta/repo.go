// Package meta — реляционное хранилище метаданных: пользователи, файлы
// и назначения файлов пользователям.
package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sir_venger/portal_lite/internal/models"
)

// Store — контракт хранилища метаданных. Ошибка models.ErrFileNotFound
// возвращается для неизвестных идентификаторов файлов.
type Store interface {
	InsertFile(ctx context.Context, rec models.FileRecord) (string, error)
	GetFileByID(ctx context.Context, id string) (models.FileRecord, error)
	DeleteFileTransactional(ctx context.Context, id string) error
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	ListFilesForUser(ctx context.Context, userID string) ([]models.FileRecord, error)
	UpdateFileSize(ctx context.Context, id string, size int64) error
	AssignFileToUsers(ctx context.Context, fileID string, userIDs []string) error
}

const (
	filesTable       = "files"
	assignmentsTable = "file_assignments"
)

// PGStore сохраняет метаданные в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore создаёт подключение к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{
		pool: pool,
	}, nil
}

var _ Store = (*PGStore)(nil)

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
