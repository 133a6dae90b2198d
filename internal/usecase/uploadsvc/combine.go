package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
)

type CombineResult struct {
	FileID     string `json:"file_id"`
	FileKey    string `json:"file_key"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	ChunkCount int    `json:"chunk_count"`
}

// Combine — явная сборка lazy-сессии. Полноту проверяет по счётчику;
// объявленный размер, в отличие от eager-пути, не перепроверяется.
func (s *Service) Combine(ctx context.Context, sessionID string) (CombineResult, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CombineResult{}, err
	}
	if sess.Variant != models.VariantLazy {
		return CombineResult{}, fmt.Errorf("%w: combine is lazy-only, eager sessions assemble themselves", models.ErrWrongVariant)
	}
	if !sess.Complete() {
		return CombineResult{}, &models.IncompleteUploadError{
			Uploaded: sess.UploadedCount(),
			Total:    sess.TotalChunks,
		}
	}
	return s.finish(ctx, sess, false)
}

// finish склеивает чанки, пишет итоговый объект и запись метаданных,
// затем освобождает чанки и сессию.
func (s *Service) finish(ctx context.Context, sess models.UploadSession, verifyDeclared bool) (CombineResult, error) {
	data, err := s.reassemble(ctx, sess)
	if err != nil {
		return CombineResult{}, err
	}
	if verifyDeclared && int64(len(data)) != sess.DeclaredSize {
		return CombineResult{}, fmt.Errorf("%w: reassembled %d bytes, declared %d",
			models.ErrSizeMismatch, len(data), sess.DeclaredSize)
	}

	mime := sess.MimeType
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	now := time.Now().UTC()
	fileKey := blob.FileKey(now, sess.FileName)
	if err := s.Blobs.Put(ctx, fileKey, data); err != nil {
		return CombineResult{}, err
	}

	fileID, err := s.Meta.InsertFile(ctx, models.FileRecord{
		FileName:   sess.FileName,
		Size:       int64(len(data)),
		MimeType:   mime,
		StorageKey: fileKey,
		Uploader:   sess.Uploader,
		UploadedAt: now,
	})
	if err != nil {
		// Объект уже записан; без записи метаданных он станет сиротой,
		// которую подберёт следующая сверка.
		return CombineResult{}, err
	}

	s.cleanup(ctx, sess)

	s.Log.Infow("upload assembled",
		"session_id", sess.ID,
		"file_id", fileID,
		"file_key", fileKey,
		"size", len(data),
		"chunks", sess.TotalChunks,
	)

	return CombineResult{
		FileID:     fileID,
		FileKey:    fileKey,
		FileName:   sess.FileName,
		Size:       int64(len(data)),
		MimeType:   mime,
		ChunkCount: sess.TotalChunks,
	}, nil
}

// reassemble тянет чанки ограниченным числом воркеров и склеивает их строго
// в порядке индексов, а не в порядке прихода.
func (s *Service) reassemble(ctx context.Context, sess models.UploadSession) ([]byte, error) {
	buffers := make([][]byte, sess.TotalChunks)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.FetchWorkers)
	for idx := 0; idx < sess.TotalChunks; idx++ {
		idx := idx
		eg.Go(func() error {
			data, err := s.Blobs.Get(egCtx, blob.ChunkKey(sess.ID, idx))
			if errors.Is(err, models.ErrKeyNotFound) {
				return &models.MissingChunkError{Index: idx}
			}
			if err != nil {
				return err
			}
			buffers[idx] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, b := range buffers {
		total += len(b)
	}
	out := make([]byte, 0, total)
	for _, b := range buffers {
		out = append(out, b...)
	}
	return out, nil
}

// cleanup удаляет чанки и сессию. Вызывается только после подтверждённой
// записи итогового объекта; сбои здесь не валят загрузку.
func (s *Service) cleanup(ctx context.Context, sess models.UploadSession) {
	for idx := 0; idx < sess.TotalChunks; idx++ {
		key := blob.ChunkKey(sess.ID, idx)
		if err := s.Blobs.Delete(ctx, key); err != nil {
			s.Log.Warnw("chunk cleanup failed", "session_id", sess.ID, "key", key, "error", err)
		}
	}
	if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
		s.Log.Warnw("session cleanup failed", "session_id", sess.ID, "error", err)
	}
}
