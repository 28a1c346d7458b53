package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter creates a Chi router with all middleware and routes. The
// admission gate wraps only the redirect path; stats and health are not
// rate-limited.
func NewRouter(handler *Handler, logger *zap.Logger, gate *AdmissionGate) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", handler.Root)
	r.Get("/healthz", handler.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(gate.Middleware)
		r.Get("/{code}", handler.Redirect)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats/{code}", handler.Stats)
	})

	return r
}
