package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sir_venger/portal_lite/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// InsertFile записывает метаданные собранного файла и возвращает его id.
func (s *PGStore) InsertFile(ctx context.Context, rec models.FileRecord) (string, error) {
	if strings.TrimSpace(rec.StorageKey) == "" {
		return "", fmt.Errorf("storage key is empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	sqlStr, args, err := psql.
		Insert(filesTable).
		Columns("id", "file_name", "size", "mime_type", "storage_key", "uploader", "uploaded_at").
		Values(rec.ID, rec.FileName, rec.Size, rec.MimeType, rec.StorageKey, rec.Uploader, rec.UploadedAt).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return "", fmt.Errorf("exec insert: %w", err)
	}
	return rec.ID, nil
}

// GetFileByID возвращает запись файла вместе со списком назначений.
func (s *PGStore) GetFileByID(ctx context.Context, id string) (models.FileRecord, error) {
	sqlStr, args, err := psql.
		Select("id", "file_name", "size", "mime_type", "storage_key", "uploader", "uploaded_at").
		From(filesTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("build select: %w", err)
	}

	var rec models.FileRecord
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&rec.ID, &rec.FileName, &rec.Size, &rec.MimeType, &rec.StorageKey, &rec.Uploader, &rec.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FileRecord{}, models.ErrFileNotFound
		}
		return models.FileRecord{}, fmt.Errorf("scan file row: %w", err)
	}

	rec.AssignedTo, err = s.assignedUsers(ctx, id)
	if err != nil {
		return models.FileRecord{}, err
	}
	return rec, nil
}

// ListFiles возвращает все записи файлов.
func (s *PGStore) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	sqlStr, args, err := psql.
		Select("id", "file_name", "size", "mime_type", "storage_key", "uploader", "uploaded_at").
		From(filesTable).
		OrderBy("uploaded_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryFiles(ctx, sqlStr, args...)
}

// ListFilesForUser возвращает только файлы, назначенные пользователю.
func (s *PGStore) ListFilesForUser(ctx context.Context, userID string) ([]models.FileRecord, error) {
	sqlStr, args, err := psql.
		Select("f.id", "f.file_name", "f.size", "f.mime_type", "f.storage_key", "f.uploader", "f.uploaded_at").
		From(filesTable + " f").
		Join(assignmentsTable + " a ON a.file_id = f.id").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("f.uploaded_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return s.queryFiles(ctx, sqlStr, args...)
}

// UpdateFileSize перезаписывает размер записи значением из хранилища.
func (s *PGStore) UpdateFileSize(ctx context.Context, id string, size int64) error {
	sqlStr, args, err := psql.
		Update(filesTable).
		Set("size", size).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("exec update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// AssignFileToUsers добавляет назначения, игнорируя уже существующие пары.
func (s *PGStore) AssignFileToUsers(ctx context.Context, fileID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	b := psql.Insert(assignmentsTable).Columns("file_id", "user_id")
	for _, uid := range userIDs {
		b = b.Values(fileID, uid)
	}
	sqlStr, args, err := b.Suffix("ON CONFLICT (file_id, user_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec assign: %w", err)
	}
	return nil
}

func (s *PGStore) queryFiles(ctx context.Context, sqlStr string, args ...any) ([]models.FileRecord, error) {
	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []models.FileRecord
	for rows.Next() {
		var rec models.FileRecord
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.Size, &rec.MimeType, &rec.StorageKey, &rec.Uploader, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) assignedUsers(ctx context.Context, fileID string) ([]string, error) {
	sqlStr, args, err := psql.
		Select("user_id").
		From(assignmentsTable).
		Where(sq.Eq{"file_id": fileID}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}
