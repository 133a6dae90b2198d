package uploadsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
)

type ChunkResult struct {
	UploadedChunks int `json:"uploaded_chunks"`
	TotalChunks    int `json:"total_chunks"`

	// Combined заполняется только eager-сессией на последнем чанке.
	Combined *CombineResult `json:"combined,omitempty"`
}

// UploadChunk принимает один чанк. Повторная доставка того же индекса
// перезаписывает байты по ключу и не раздувает счётчик: прогресс считается
// по множеству различных индексов.
func (s *Service) UploadChunk(ctx context.Context, sessionID string, idx int, data []byte) (ChunkResult, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return ChunkResult{}, err
	}
	if idx < 0 || idx >= sess.TotalChunks {
		return ChunkResult{}, fmt.Errorf("%w: index %d, session expects 0..%d",
			models.ErrBadChunkIndex, idx, sess.TotalChunks-1)
	}
	if want := sess.ExpectedChunkSize(idx); int64(len(data)) != want {
		return ChunkResult{}, fmt.Errorf("%w: chunk %d is %d bytes, expected %d",
			models.ErrSizeMismatch, idx, len(data), want)
	}

	// Сначала байты, потом состояние сессии. Между двумя записями нет
	// отката: повторная доставка чанка и есть путь восстановления.
	if err := s.Blobs.Put(ctx, blob.ChunkKey(sess.ID, idx), data); err != nil {
		return ChunkResult{}, err
	}

	// Счётчик обновляется под замком: чанки одного файла могут лететь
	// параллельно, и перезапись сессии без сериализации теряет индексы.
	s.sessMu.Lock()
	sess, err = s.Sessions.Get(ctx, sessionID)
	if err != nil {
		s.sessMu.Unlock()
		return ChunkResult{}, err
	}
	sess.Chunks[idx] = int64(len(data))
	if err := s.Sessions.Update(ctx, sess); err != nil {
		s.sessMu.Unlock()
		return ChunkResult{}, err
	}
	s.sessMu.Unlock()

	s.Log.Debugw("chunk stored",
		"session_id", sess.ID,
		"chunk_index", idx,
		"uploaded", sess.UploadedCount(),
		"total", sess.TotalChunks,
	)

	res := ChunkResult{
		UploadedChunks: sess.UploadedCount(),
		TotalChunks:    sess.TotalChunks,
	}

	if sess.Variant == models.VariantEager && sess.Complete() {
		combined, err := s.finish(ctx, sess, true)
		if err != nil {
			return ChunkResult{}, err
		}
		res.Combined = &combined
	}
	return res, nil
}

// GetChunk возвращает байты ранее загруженного чанка. Доступно только в
// lazy-варианте, где клиент может инспектировать частичную загрузку.
func (s *Service) GetChunk(ctx context.Context, sessionID string, idx int) ([]byte, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Variant != models.VariantLazy {
		return nil, fmt.Errorf("%w: get_chunk is lazy-only", models.ErrWrongVariant)
	}
	if idx < 0 || idx >= sess.TotalChunks {
		return nil, fmt.Errorf("%w: index %d, session expects 0..%d",
			models.ErrBadChunkIndex, idx, sess.TotalChunks-1)
	}
	if _, ok := sess.Chunks[idx]; !ok {
		return nil, fmt.Errorf("%w: index %d has not been uploaded", models.ErrChunkNotFound, idx)
	}

	data, err := s.Blobs.Get(ctx, blob.ChunkKey(sess.ID, idx))
	if errors.Is(err, models.ErrKeyNotFound) {
		// Счётчик видел этот индекс, а объекта нет: рассинхрон хранилищ.
		return nil, &models.MissingChunkError{Index: idx}
	}
	return data, err
}
