package uploadsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/sir_venger/portal_lite/internal/models"
)

// SessionInfo возвращает снимок состояния сессии.
func (s *Service) SessionInfo(ctx context.Context, sessionID string) (models.UploadSession, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return models.UploadSession{}, err
	}
	return sess.Clone(), nil
}

// MarkCompleted переводит lazy-сессию в статус completed. Полнота чанков не
// проверяется: статус здесь сознательно остаётся рекомендательным и сборку
// не запускает.
func (s *Service) MarkCompleted(ctx context.Context, sessionID string) (models.UploadSession, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return models.UploadSession{}, err
	}
	if sess.Variant != models.VariantLazy {
		return models.UploadSession{}, fmt.Errorf("%w: mark_completed is lazy-only", models.ErrWrongVariant)
	}

	if sess.Status != models.StatusCompleted {
		now := time.Now().UTC()
		sess.Status = models.StatusCompleted
		sess.CompletedAt = &now
		if err := s.Sessions.Update(ctx, sess); err != nil {
			return models.UploadSession{}, err
		}
	}
	return sess.Clone(), nil
}
