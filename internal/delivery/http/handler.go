package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"linkapp/internal/link/domain"
	linkusecase "linkapp/internal/link/usecase"
	statsusecase "linkapp/internal/stats/usecase"
	"linkapp/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LinkResolver serves the redirect path.
type LinkResolver interface {
	Resolve(ctx context.Context, shortCode string, visitor linkusecase.Visitor) (string, error)
}

// StatsProvider serves aggregate query reads.
type StatsProvider interface {
	GetStats(ctx context.Context, shortCode string) (*statsusecase.LinkStats, error)
}

// Handler handles HTTP requests for redirects and stats.
type Handler struct {
	resolver LinkResolver
	stats    StatsProvider
	logger   *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(resolver LinkResolver, stats StatsProvider, logger *zap.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		stats:    stats,
		logger:   logger,
	}
}

// Redirect handles GET /{code}
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	// RealIP middleware rewrites RemoteAddr; strip the port if one is left.
	clientIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		clientIP = host
	}

	destination, err := h.resolver.Resolve(r.Context(), code, linkusecase.Visitor{
		IP:        clientIP,
		UserAgent: r.Header.Get("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"Short URL not found: "+code,
			))
			return
		}

		h.logger.Error("resolve failed", zap.String("short_code", code), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Internal server error",
		))
		return
	}

	http.Redirect(w, r, destination, http.StatusFound)
}

// Stats handles GET /api/stats/{code}
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	stats, err := h.stats.GetStats(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			writeProblem(w, problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"Short URL not found: "+code,
			))
			return
		}

		h.logger.Error("stats query failed", zap.String("short_code", code), zap.Error(err))
		writeProblem(w, problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Failed to retrieve link stats",
		))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("linkapp is running"))
}
