// Package deletesvc удаляет логический файл из обоих хранилищ: объект —
// по возможности, запись метаданных — обязательно.
package deletesvc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
	"github.com/sir_venger/portal_lite/pkg/retrypolicy"
)

// DefaultRetry — две попытки с паузой на усадку eventually-consistent хранилища.
var DefaultRetry = retrypolicy.Policy{Attempts: 2, Delay: 150 * time.Millisecond}

type Deps struct {
	Blobs blob.Store
	Meta  meta.Store
	Log   *zap.SugaredLogger
	Retry retrypolicy.Policy
}

type Service struct {
	Deps
}

// New конструирует координатор удаления.
func New(deps Deps) *Service {
	if deps.Retry.Attempts == 0 {
		deps.Retry = DefaultRetry
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Service{Deps: deps}
}

// DeleteFile удаляет объект и запись файла. Отсутствие объекта считается
// успехом; неподдающийся объект не блокирует удаление метаданных — висячий
// указатель хуже сироты, сироту подберёт сверка.
func (s *Service) DeleteFile(ctx context.Context, fileID string) (models.DeletionResult, error) {
	rec, err := s.Meta.GetFileByID(ctx, fileID)
	if err != nil {
		return models.DeletionResult{}, err
	}

	res := models.DeletionResult{
		FileID:     fileID,
		StorageKey: rec.StorageKey,
	}

	switch {
	case rec.StorageKey == "":
		// Запись без ключа: удалять в хранилище нечего.
		res.BlobDeleted = true
	default:
		res = s.deleteBlob(ctx, res)
	}

	if err := s.Meta.DeleteFileTransactional(ctx, fileID); err != nil {
		if !errors.Is(err, models.ErrFileNotFound) {
			return res, err
		}
	}
	res.MetadataDeleted = true

	s.Log.Infow("file deleted",
		"file_id", fileID,
		"key", rec.StorageKey,
		"blob_deleted", res.BlobDeleted,
		"attempts", res.Attempts,
	)
	return res, nil
}

// deleteBlob выполняет до двух попыток удаления с паузой и повторной
// проверкой существования после каждой.
func (s *Service) deleteBlob(ctx context.Context, res models.DeletionResult) models.DeletionResult {
	existed, err := s.Blobs.Exists(ctx, res.StorageKey)
	if err != nil {
		s.Log.Warnw("blob existence check failed", "key", res.StorageKey, "error", err)
		return res
	}
	res.BlobExistedBefore = existed
	if !existed {
		// Объект уже убрали руками или предыдущим проходом.
		res.BlobDeleted = true
		return res
	}

	done, err := s.Retry.Run(ctx, func(attempt int) (bool, error) {
		res.Attempts = attempt
		if err := s.Blobs.Delete(ctx, res.StorageKey); err != nil {
			s.Log.Warnw("blob delete attempt failed", "key", res.StorageKey, "attempt", attempt, "error", err)
			return false, nil
		}
		s.Retry.Settle()
		still, err := s.Blobs.Exists(ctx, res.StorageKey)
		if err != nil {
			s.Log.Warnw("blob recheck failed", "key", res.StorageKey, "attempt", attempt, "error", err)
			return false, nil
		}
		return !still, nil
	})
	if err != nil {
		s.Log.Warnw("blob delete aborted", "key", res.StorageKey, "error", err)
	}

	res.BlobDeleted = done
	res.BlobExistsAfter = !done
	if !done {
		s.Log.Warnw("blob survived delete attempts, proceeding to metadata",
			"key", res.StorageKey, "attempts", res.Attempts)
	}
	return res
}
