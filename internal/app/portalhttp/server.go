// Package portalhttp — HTTP-лицо портала: загрузка чанками, сверка,
// удаление и выдача файлов. Все ответы — JSON-конверты с полем success.
package portalhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sir_venger/portal_lite/internal/blob"
	"github.com/sir_venger/portal_lite/internal/repo/meta"
	"github.com/sir_venger/portal_lite/internal/usecase/deletesvc"
	"github.com/sir_venger/portal_lite/internal/usecase/syncsvc"
	"github.com/sir_venger/portal_lite/internal/usecase/uploadsvc"
)

type Deps struct {
	Upload *uploadsvc.Service
	Sync   *syncsvc.Service
	Delete *deletesvc.Service
	Meta   meta.Store
	Blobs  blob.Store
	Log    *zap.SugaredLogger
}

type Server struct {
	Deps
	validate *validator.Validate
}

// NewServer конструирует роутер портала.
func NewServer(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}

	srv := &Server{
		Deps:     deps,
		validate: validator.New(),
	}
	return srv.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.health)

	r.Route("/api", func(api chi.Router) {
		api.Use(identity)

		api.Post("/upload/init", s.uploadInit)
		api.Post("/upload/chunk", s.uploadChunk)
		api.Post("/upload/get_chunk", s.uploadGetChunk)
		api.Post("/upload/session_info", s.uploadSessionInfo)
		api.Post("/upload/mark_completed", s.uploadMarkCompleted)
		api.Post("/upload/combine", s.uploadCombine)

		api.Get("/files", s.listFiles)
		api.Post("/files/download", s.downloadFile)

		api.Group(func(admin chi.Router) {
			admin.Use(requireAdmin)
			admin.Post("/admin/sync", s.syncStores)
			admin.Delete("/files", s.deleteFile)
			admin.Post("/files/assign", s.assignFile)
		})
	})

	return r
}
