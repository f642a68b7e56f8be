package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the HTTP API.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	AnalysisHandler *handlers.AnalysisHandler
	HistoryHandler  *handlers.HistoryHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	Logging     *middleware.LoggingConfig
	RateLimiter *middleware.TokenBucketLimiter

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	HTTPMetrics      middleware.HTTPMetrics
}

// NewRouter builds the route tree:
//
//	/healthz, /readyz, /metrics
//	/api/analyze        single, batch and KML analysis (rate limited)
//	/api/v1             parameters, history and queued requests
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			lc = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	registerAnalyzeRoutes(r, cfg.AnalysisHandler, cfg.RateLimiter)

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AnalysisHandler != nil {
			api.Get("/parameters", cfg.AnalysisHandler.Parameters)
			api.Post("/analyses/requests", cfg.AnalysisHandler.Enqueue)
		}
		registerHistoryRoutes(api, cfg.HistoryHandler)
	})

	return r
}

// registerAnalyzeRoutes mounts the analysis endpoints under /api/analyze.
func registerAnalyzeRoutes(r chi.Router, h *handlers.AnalysisHandler, limiter *middleware.TokenBucketLimiter) {
	if h == nil {
		return
	}
	r.Route("/api/analyze", func(ar chi.Router) {
		ar.Get("/health", h.Health)

		ar.Group(func(limited chi.Router) {
			if limiter != nil {
				limited.Use(middleware.RateLimit(limiter))
			}
			limited.Post("/", h.Analyze)
			limited.Post("/kml", h.AnalyzeUpload)
			limited.Post("/batch", h.AnalyzeBatch)
		})
	})
}

// registerHistoryRoutes mounts stored-analysis endpoints under /analyses.
func registerHistoryRoutes(r chi.Router, h *handlers.HistoryHandler) {
	if h == nil {
		return
	}
	r.Route("/analyses", func(hr chi.Router) {
		hr.Get("/", h.Search)

		hr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Get("/similar", h.Similar)
			item.Get("/report", h.Report)
		})
	})
}

//Personal.AI order the ending
