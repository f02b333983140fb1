package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/pkg/errors"
)

// HTTPRecorder receives one observation per served request
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Middleware holds the stateful middleware of the API server
type Middleware struct {
	config  config.RateLimitConfig
	logger  *zap.Logger
	limiter *rate.Limiter
	metrics HTTPRecorder
}

// New creates a new middleware instance. metrics may be nil.
func New(cfg config.RateLimitConfig, metrics HTTPRecorder, logger *zap.Logger) *Middleware {
	limiter := rate.NewLimiter(
		rate.Limit(float64(cfg.RequestsPerMin)/60),
		cfg.BurstSize,
	)

	return &Middleware{
		config:  cfg,
		logger:  logger.Named("http"),
		limiter: limiter,
		metrics: metrics,
	}
}

// RateLimit throttles writes. Proposals and swaps are the expensive
// requests; reads are never limited.
func (m *Middleware) RateLimit() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.config.Enable || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			if !m.limiter.Allow() {
				m.logger.Warn("Rate limit exceeded",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "60")
				WriteError(w, r, errors.NewTooManyRequestsError(), 0)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request counts and latencies labelled by route pattern,
// so path parameters do not explode the label cardinality.
func (m *Middleware) Metrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.metrics.RecordHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
