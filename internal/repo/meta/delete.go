package meta

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sir_venger/portal_lite/internal/models"
)

// DeleteFileTransactional удаляет назначения и саму запись файла одной
// транзакцией: если строки файла нет, откатываются и назначения.
func (s *PGStore) DeleteFileTransactional(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	delAssign, args, err := psql.
		Delete(assignmentsTable).
		Where(sq.Eq{"file_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete assignments: %w", err)
	}
	if _, err := tx.Exec(ctx, delAssign, args...); err != nil {
		return fmt.Errorf("exec delete assignments: %w", err)
	}

	delFile, args, err := psql.
		Delete(filesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete file: %w", err)
	}
	tag, err := tx.Exec(ctx, delFile, args...)
	if err != nil {
		return fmt.Errorf("exec delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrFileNotFound
	}

	return tx.Commit(ctx)
}
