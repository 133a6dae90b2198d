package uploadsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sir_venger/portal_lite/internal/models"
)

type InitParams struct {
	Variant      models.Variant
	FileName     string
	DeclaredSize int64
	MimeType     string
	Uploader     string
}

type InitResult struct {
	SessionID   string `json:"session_id"`
	TotalChunks int    `json:"total_chunks"`
	ChunkSize   int64  `json:"chunk_size"`
}

// Init создаёт новую сессию загрузки. Размер файла фиксируется здесь и
// далее не перепроверяется до финальной сборки.
func (s *Service) Init(ctx context.Context, p InitParams) (InitResult, error) {
	lim, err := s.limits(p.Variant)
	if err != nil {
		return InitResult{}, err
	}
	if p.DeclaredSize <= 0 {
		return InitResult{}, fmt.Errorf("declared size must be positive, got %d", p.DeclaredSize)
	}
	if p.DeclaredSize > lim.MaxFileSize {
		return InitResult{}, fmt.Errorf("%w: declared %d exceeds %s limit %d",
			models.ErrPayloadTooLarge, p.DeclaredSize, p.Variant, lim.MaxFileSize)
	}

	totalChunks := int((p.DeclaredSize + lim.ChunkSize - 1) / lim.ChunkSize)
	sess := models.UploadSession{
		ID:           uuid.NewString(),
		Variant:      p.Variant,
		FileName:     p.FileName,
		DeclaredSize: p.DeclaredSize,
		MimeType:     p.MimeType,
		Uploader:     p.Uploader,
		ChunkSize:    lim.ChunkSize,
		TotalChunks:  totalChunks,
		Status:       models.StatusUploading,
		CreatedAt:    time.Now().UTC(),
		Chunks:       map[int]int64{},
	}

	if err := s.Sessions.Create(ctx, sess); err != nil {
		return InitResult{}, err
	}

	s.Log.Infow("upload session created",
		"session_id", sess.ID,
		"variant", sess.Variant,
		"file_name", sess.FileName,
		"declared_size", sess.DeclaredSize,
		"total_chunks", sess.TotalChunks,
	)

	return InitResult{
		SessionID:   sess.ID,
		TotalChunks: sess.TotalChunks,
		ChunkSize:   sess.ChunkSize,
	}, nil
}
