// Package syncsvc сверяет метаданные с объектным хранилищем и чинит дрейф:
// осиротевшие объекты, пропавшие объекты и разъехавшиеся размеры.
package syncsvc

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
)

type Deps struct {
	Blobs blob.Store
	Meta  meta.Store
	Log   *zap.SugaredLogger
}

type Service struct {
	Deps
}

// New конструирует сервис сверки.
func New(deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Service{Deps: deps}
}

// Reconcile выполняет один проход сверки. Сессии и чанки живут под другими
// префиксами и в листинг не попадают. Удаление сирот из хранилища — только
// по явному запросу; ошибка на отдельной записи не прерывает проход.
func (s *Service) Reconcile(ctx context.Context, deleteOrphans bool) (models.ReconciliationReport, error) {
	// Полный листинг файлового пространства, страница за страницей.
	objects, err := blob.ListAll(ctx, s.Blobs, blob.FilePrefix)
	if err != nil {
		return models.ReconciliationReport{}, err
	}
	byKey := lo.KeyBy(objects, func(o blob.ObjectInfo) string { return o.Key })

	records, err := s.Meta.ListFiles(ctx)
	if err != nil {
		return models.ReconciliationReport{}, err
	}
	recordKeys := lo.SliceToMap(records, func(r models.FileRecord) (string, struct{}) {
		return r.StorageKey, struct{}{}
	})

	report := models.ReconciliationReport{
		OrphanedBlobs: []models.OrphanedBlob{},
		MissingBlobs:  []models.MissingBlob{},
		SizeCorrected: []models.SizeCorrection{},
	}

	for _, rec := range records {
		obj, present := byKey[rec.StorageKey]
		if !present {
			// Запись без объекта невосстановима: удаляем вместе с назначениями.
			err := s.Meta.DeleteFileTransactional(ctx, rec.ID)
			if err != nil && !errors.Is(err, models.ErrFileNotFound) {
				report.Errors = append(report.Errors, models.ItemError{Key: rec.StorageKey, Detail: err.Error()})
				continue
			}
			report.MissingBlobs = append(report.MissingBlobs, models.MissingBlob{
				FileID:     rec.ID,
				FileName:   rec.FileName,
				StorageKey: rec.StorageKey,
			})
			s.Log.Infow("removed record without blob", "file_id", rec.ID, "key", rec.StorageKey)
			continue
		}

		if obj.Size != rec.Size {
			// Хранилище — источник истины для размера.
			if err := s.Meta.UpdateFileSize(ctx, rec.ID, obj.Size); err != nil {
				report.Errors = append(report.Errors, models.ItemError{Key: rec.StorageKey, Detail: err.Error()})
				continue
			}
			report.SizeCorrected = append(report.SizeCorrected, models.SizeCorrection{
				FileID:       rec.ID,
				FileName:     rec.FileName,
				StorageKey:   rec.StorageKey,
				RecordedSize: rec.Size,
				ActualSize:   obj.Size,
			})
			s.Log.Infow("corrected recorded size", "file_id", rec.ID, "key", rec.StorageKey,
				"recorded", rec.Size, "actual", obj.Size)
		}
	}

	for _, obj := range objects {
		if _, owned := recordKeys[obj.Key]; owned {
			continue
		}
		report.OrphanedBlobs = append(report.OrphanedBlobs, models.OrphanedBlob{Key: obj.Key, Size: obj.Size})
		if !deleteOrphans {
			continue
		}
		if err := s.Blobs.Delete(ctx, obj.Key); err != nil {
			report.Errors = append(report.Errors, models.ItemError{Key: obj.Key, Detail: err.Error()})
			continue
		}
		report.DeletedOrphans++
		s.Log.Infow("deleted orphaned blob", "key", obj.Key, "size", obj.Size)
	}

	sort.Slice(report.OrphanedBlobs, func(i, j int) bool {
		return report.OrphanedBlobs[i].Key < report.OrphanedBlobs[j].Key
	})

	report.OrphanedCount = len(report.OrphanedBlobs)
	report.MissingCount = len(report.MissingBlobs)
	report.CorrectedCount = len(report.SizeCorrected)

	s.Log.Infow("reconciliation pass finished",
		"orphaned", report.OrphanedCount,
		"missing", report.MissingCount,
		"corrected", report.CorrectedCount,
		"deleted_orphans", report.DeletedOrphans,
		"item_errors", len(report.Errors),
	)
	return report, nil
}
