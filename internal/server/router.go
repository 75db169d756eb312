package server

import (
	"net/http"

	"github.com/cloo-solutions/loretexai/internal/api"
	"github.com/cloo-solutions/loretexai/internal/api/handlers"
	"github.com/cloo-solutions/loretexai/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator    middleware.AuthValidator
	EntryHandler     *handlers.EntryHandler
	SourceHandler    *handlers.SourceHandler
	ContextHandler   *handlers.ContextHandler
	AuthHandler      *handlers.AuthHandler
	WorkspaceHandler *handlers.WorkspaceHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Post("/batch", cfg.EntryHandler.CreateBatch)
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Patch("/{id}", cfg.EntryHandler.Update)
			r.Delete("/{id}", cfg.EntryHandler.Delete)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", cfg.SourceHandler.InitUpload)
			r.Get("/", cfg.SourceHandler.List)
			r.Get("/{id}", cfg.SourceHandler.Get)
			r.Delete("/{id}", cfg.SourceHandler.Delete)
			r.Post("/{id}/complete", cfg.SourceHandler.CompleteUpload)
			r.Get("/{id}/download", cfg.SourceHandler.GetDownloadURL)
		})

		r.Post("/context/assemble", cfg.ContextHandler.Assemble)

		r.Get("/auth/whoami", cfg.AuthHandler.Whoami)
		r.Get("/workspace", cfg.WorkspaceHandler.Get)
	})

	return r
}
