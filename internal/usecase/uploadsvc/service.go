// Package uploadsvc реализует протокол чанковой загрузки: сессии, приём
// чанков и сборку итогового файла.
package uploadsvc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/models"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
	"github.com/sir_venger/portal_lite/internal/repo/session"
)

// VariantLimits — размер чанка и потолок объявленного размера для варианта протокола.
type VariantLimits struct {
	ChunkSize   int64
	MaxFileSize int64
}

var (
	// DefaultEager — быстрый путь: мелкие чанки, сборка на последнем чанке.
	DefaultEager = VariantLimits{ChunkSize: 3 << 20, MaxFileSize: 100 << 20}
	// DefaultLazy — возобновляемый путь: крупные чанки, явный combine.
	DefaultLazy = VariantLimits{ChunkSize: 5 << 20, MaxFileSize: 500 << 20}
)

type Deps struct {
	Sessions session.Store
	Blobs    blob.Store
	Meta     meta.Store
	Log      *zap.SugaredLogger

	Eager VariantLimits
	Lazy  VariantLimits

	// FetchWorkers ограничивает параллелизм чтения чанков при сборке.
	FetchWorkers int
}

type Service struct {
	Deps

	// sessMu сериализует read-modify-write состояния сессии при
	// параллельной доставке чанков одного файла.
	sessMu sync.Mutex
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Service {
	if deps.Eager == (VariantLimits{}) {
		deps.Eager = DefaultEager
	}
	if deps.Lazy == (VariantLimits{}) {
		deps.Lazy = DefaultLazy
	}
	if deps.FetchWorkers <= 0 {
		deps.FetchWorkers = 4
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Service{Deps: deps}
}

func (s *Service) limits(v models.Variant) (VariantLimits, error) {
	switch v {
	case models.VariantEager:
		return s.Eager, nil
	case models.VariantLazy:
		return s.Lazy, nil
	default:
		return VariantLimits{}, fmt.Errorf("unknown upload variant %q", v)
	}
}
