// Worker entry point for SolarSite-Intelligence. It consumes queued analysis
// requests, runs them through the orchestrator and publishes completion
// events through the result recorders.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/bootstrap"
	"github.com/turtacn/SolarSite-Intelligence/internal/config"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
)

var version = "dev"

const (
	defaultHealthPort = 8081
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the /healthz, /readyz and /metrics endpoints")
	flag.Parse()

	if err := run(*configPath, *healthPort); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, healthPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled() {
		return fmt.Errorf("kafka.brokers must be set for the worker")
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()
	logging.SetDefault(logger)

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

	handler := newRequestHandler(pipeline.Orchestrator, pipeline.Parser, analysis.Options{
		LandOwnership:   cfg.LandOwnership(),
		SplitLargeAreas: cfg.Analysis.SplitLargeAreas,
	}, logger)
	handler.metrics = metrics
	handler.timeout = cfg.Worker.MessageTimeout
	handler.lockTTL = cfg.Worker.LockTTL
	if infra.Redis != nil {
		handler.locks = redis.NewLockFactory(infra.Redis, logger)
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Consumer(), logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()
	consumer.Subscribe(cfg.Kafka.RequestedTopic, handler.Handle)

	healthSrv := httpserver.NewServer(config.HTTPConfig{
		Port:            healthPort,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, infra.Checkers()...),
		MetricsCollector: collector,
	}), logger)
	go func() {
		if err := healthSrv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	logger.Info("worker started",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.RequestedTopic),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Bool("dedupe", handler.locks != nil),
	)

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	<-ctx.Done()
	logger.Info("received shutdown signal, draining")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := healthSrv.Stop(sctx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("worker stopped")
	return nil
}

//Personal.AI order the ending
