package http

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"linkapp/pkg/problemdetails"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// entry holds a rate limiter and last seen timestamp for cleanup
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AdmissionGate rejects excess requests per client IP before they reach the
// resolver. Rejected requests never invoke any handler below the gate.
type AdmissionGate struct {
	limiters  map[string]*entry
	mu        sync.Mutex
	rateLimit rate.Limit
	burst     int
}

// NewAdmissionGate creates a per-IP gate allowing the given requests per minute.
func NewAdmissionGate(requestsPerMinute int) *AdmissionGate {
	g := &AdmissionGate{
		limiters:  make(map[string]*entry),
		rateLimit: rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     requestsPerMinute,
	}
	g.startCleanup()
	return g
}

// getLimiter returns the rate limiter for the given IP, creating one if it doesn't exist
func (g *AdmissionGate) getLimiter(ip string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, exists := g.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(g.rateLimit, g.burst)
		g.limiters[ip] = &entry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	e.lastSeen = time.Now()
	return e.limiter
}

// Middleware returns the gate as a chi middleware. Rejections answer 429
// with a Retry-After hint.
func (g *AdmissionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP rewrites RemoteAddr for proxied requests; direct connections
		// still carry a port, which must not split one client across limiters.
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}

		if !g.getLimiter(ip).Allow() {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(g.rateLimit)))
			writeProblem(w, problemdetails.New(
				http.StatusTooManyRequests,
				problemdetails.TypeRateLimitExceeded,
				"Rate Limit Exceeded",
				"Too many requests. Please try again later.",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds converts the refill rate into a whole-second hint,
// rounding up so clients never retry early.
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 {
		return 1
	}
	seconds := int(time.Duration(float64(time.Second) / float64(limit)).Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// startCleanup evicts limiters for IPs not seen within an hour.
func (g *AdmissionGate) startCleanup() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			g.mu.Lock()
			for ip, e := range g.limiters {
				if time.Since(e.lastSeen) > time.Hour {
					delete(g.limiters, ip)
				}
			}
			g.mu.Unlock()
		}
	}()
}

// LoggerMiddleware returns a middleware that logs HTTP requests using Zap
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
