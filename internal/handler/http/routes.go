package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init builds the router. Every route gets a trace id and an access log
// line; all but /api/version and /metrics also require an operator token
// when auth is enabled.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Get("/api/version", h.getServerVersion)
	router.Method("GET", "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// routes behind operator authorization, when it is configured
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/api/sync", func(r chi.Router) {
			r.Get("/status", h.getSyncStatus)
			r.Post("/trigger", h.triggerSync)
			r.Post("/recheck", h.recheck)
			r.Get("/log", h.getSyncLog)
		})

		r.Route("/api/conflicts", func(r chi.Router) {
			r.Get("/", h.listConflicts)
			r.Get("/{id}", h.getConflict)
			r.Post("/{id}/resolve", h.resolveConflict)
		})
	})

	return router
}
