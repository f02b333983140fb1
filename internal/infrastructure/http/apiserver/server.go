// Package apiserver provides the JSON API HTTP server of the rotation service
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchenops/internal/ports/inbound"
	"github.com/alchemorsel/kitchenops/pkg/healthcheck"
)

// Server is the JSON API server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	rotation *handlers.RotationHandlers
	health   *healthcheck.HealthCheck
	metrics  *monitoring.Metrics
	mw       *middleware.Middleware
	tracer   trace.TracerProvider
}

// NewServer creates the API server. metrics may be nil when metrics are
// disabled; tracer may be nil to use the global provider.
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	rotation inbound.RotationService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.Metrics,
	tracer trace.TracerProvider,
) *Server {
	var recorder middleware.HTTPRecorder
	if metrics != nil {
		recorder = metrics
	}

	s := &Server{
		config:   cfg,
		logger:   log.Named("apiserver"),
		rotation: handlers.NewRotationHandlers(rotation, log),
		health:   health,
		metrics:  metrics,
		mw:       middleware.New(cfg.RateLimit, recorder, log),
		tracer:   tracer,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.handler(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	if cfg.Server.EnableHTTP2 {
		if err := http2.ConfigureServer(s.server, &http2.Server{IdleTimeout: cfg.Server.IdleTimeout}); err != nil {
			s.logger.Error("Failed to configure HTTP/2 server", zap.Error(err))
		}
	}

	return s
}

// handler wraps the router with tracing and, when enabled, cleartext HTTP/2
func (s *Server) handler() http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, "/health") && r.URL.Path != "/metrics"
		}),
	}
	if s.tracer != nil {
		opts = append(opts, otelhttp.WithTracerProvider(s.tracer))
	}
	var h http.Handler = otelhttp.NewHandler(s.router, "kitchenops-api", opts...)

	if s.config.Server.EnableHTTP2 {
		h = h2c.NewHandler(h, &http2.Server{IdleTimeout: s.config.Server.IdleTimeout})
	}
	return h
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(s.mw.Metrics())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))

	// Operational endpoints
	r.Get("/health", s.health.Handler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		}
		r.Use(chimiddleware.Compress(5))
		r.Use(middleware.JSONOnly())
		r.Use(s.mw.RateLimit())
		s.rotation.Routes(r)
	})

	return r
}

// Handler returns the root handler; used by tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.Bool("http2", s.config.Server.EnableHTTP2),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
