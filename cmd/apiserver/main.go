// API server entry point for SolarSite-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/bootstrap"
	"github.com/turtacn/SolarSite-Intelligence/internal/config"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/prometheus"
	grpcserver "github.com/turtacn/SolarSite-Intelligence/internal/interfaces/grpc"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const (
	shutdownTimeout = 30 * time.Second
	limiterIdleTTL  = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", -1, "gRPC server port, 0 disables (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort, grpcPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.HTTP.Port = httpPort
	}
	if grpcPort >= 0 {
		cfg.Server.GRPC.Port = grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()
	logging.SetDefault(logger)

	logger.Info("starting SolarSite API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("http_port", cfg.Server.HTTP.Port),
		logging.Int("grpc_port", cfg.Server.GRPC.Port),
	)

	if configPath != "" {
		watchLogLevel(configPath, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(cfg.Metrics, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	metrics := prometheus.NewSolarMetrics(collector)

	infra, err := bootstrap.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, infra, metrics, logger)
	if err != nil {
		return err
	}

	httpSrv := httpserver.NewServer(cfg.Server.HTTP, newRouter(cfg, pipeline, infra, collector, metrics, logger), logger)

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Port > 0 {
		grpcSrv, err = grpcserver.NewServer(cfg.Server.GRPC,
			grpcserver.WithLogger(logger),
			grpcserver.WithMetrics(metrics),
		)
		if err != nil {
			return err
		}
		grpcSrv.RegisterService(&services.AnalysisServiceDesc,
			services.NewAnalysisService(pipeline.Orchestrator, pipeline.Parser, cfg.LandOwnership(), logger))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(httpSrv.Start)
	if grpcSrv != nil {
		eg.Go(grpcSrv.Start)
	}
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down servers")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Stop(sctx); err != nil {
			logger.Error("HTTP server shutdown error", logging.Err(err))
		}
		if grpcSrv != nil {
			if err := grpcSrv.Stop(sctx); err != nil {
				logger.Error("gRPC server shutdown error", logging.Err(err))
			}
		}
		return nil
	})

	err = eg.Wait()
	logger.Info("servers stopped")
	return err
}

func newRouter(cfg *config.Config, p *bootstrap.Pipeline, infra *bootstrap.Infrastructure,
	collector prometheus.MetricsCollector, metrics *prometheus.SolarMetrics, logger logging.Logger) http.Handler {

	var reports analysis.ReportStore
	if p.Reports != nil {
		reports = p.Reports
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.HTTP.CORSOrigins

	rc := httpserver.RouterConfig{
		AnalysisHandler: handlers.NewAnalysisHandler(p.Orchestrator, p.Parser, logger,
			handlers.WithArchiver(p.Archiver()),
			handlers.WithRequestQueue(p.Queue),
			handlers.WithDefaults(handlers.AnalysisDefaults{
				LandOwnership:   cfg.LandOwnership(),
				SplitLargeAreas: cfg.Analysis.SplitLargeAreas,
				MaxBodyBytes:    cfg.Server.HTTP.MaxBodyBytes,
			}),
		),
		HistoryHandler:   handlers.NewHistoryHandler(p.History, p.Similar, reports, logger),
		HealthHandler:    handlers.NewHealthHandler(version, infra.Checkers()...),
		CORS:             &cors,
		Logger:           logger,
		MetricsCollector: collector,
		HTTPMetrics:      metrics,
	}
	if cfg.Server.HTTP.RateLimitRPS > 0 {
		rc.RateLimiter = middleware.NewTokenBucketLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.HTTP.RateLimitRPS,
			Burst:             cfg.Server.HTTP.RateLimitBurst,
			IdleTTL:           limiterIdleTTL,
		})
	}
	return httpserver.NewRouter(rc)
}

// watchLogLevel applies log level changes from the config file at runtime.
func watchLogLevel(configPath string, logger logging.Logger) {
	lc, ok := logger.(logging.LevelController)
	if !ok {
		return
	}
	err := config.Watch(configPath, func(c *config.Config) {
		if c.Log.Level != lc.Level() {
			lc.SetLevel(c.Log.Level)
			logger.Info("log level changed", logging.String("level", c.Log.Level))
		}
	}, func(err error) {
		logger.Warn("ignoring invalid config change", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
