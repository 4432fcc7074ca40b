package server

import (
	"net/http"

	"github.com/cloo-solutions/tenantex/internal/api"
	"github.com/cloo-solutions/tenantex/internal/api/handlers"
	"github.com/cloo-solutions/tenantex/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	APIKey           string
	TenantHandler    *handlers.TenantHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	UtilsHandler     *handlers.UtilsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 15 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/utils/health-check", cfg.UtilsHandler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))

		r.Route("/tenant", func(r chi.Router) {
			r.Post("/retrieval", cfg.TenantHandler.Retrieve)
			r.Post("/upload-knowledge", cfg.TenantHandler.UploadKnowledge)
			r.Get("/jobs/{id}", cfg.TenantHandler.JobStatus)
			r.Post("/objects", cfg.TenantHandler.ListObjects)
			r.Delete("/knowledge/{tenant_id}", cfg.TenantHandler.DeleteKnowledge)
		})

		r.Post("/knowledge/retrieval", cfg.KnowledgeHandler.Retrieve)

		r.Post("/utils/knowledge-by-filters", cfg.UtilsHandler.KnowledgeByFilters)
	})

	return r
}
