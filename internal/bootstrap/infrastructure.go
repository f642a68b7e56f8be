// Package bootstrap connects the configured backends and assembles the
// analysis pipeline shared by the SolarSite binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/SolarSite-Intelligence/internal/config"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
)

// Infrastructure holds the backend clients of one process. A nil field means
// the backend is not configured.
type Infrastructure struct {
	Postgres   *postgres.Connection
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Producer   *kafka.Producer
	MinIO      *minio.Client
	OpenSearch *opensearch.Client
	Milvus     *milvus.Client

	logger logging.Logger
}

// Connect opens every backend enabled in cfg. A configured backend that
// cannot be reached is an error; everything opened so far is closed.
func Connect(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{logger: logger}

	if cfg.PostgresEnabled() {
		conn, err := postgres.NewConnection(cfg.Postgres, logger.Named("postgres"))
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.Postgres = conn
		if err := conn.RunMigrations(); err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		infra.Pool = pool
	}

	if cfg.RedisEnabled() {
		rc := cfg.Redis
		client, err := redis.NewClient(&rc, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = client
	}

	if cfg.Kafka.Enabled() {
		if cfg.Kafka.AutoCreateTopics {
			if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
				infra.Close()
				return nil, fmt.Errorf("kafka topics: %w", err)
			}
		}
		producer, err := kafka.NewProducer(cfg.Kafka.Producer(), logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		infra.Producer = producer
	}

	if cfg.MinIO.Enabled() {
		client, err := minio.NewClient(ctx, cfg.MinIO, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		infra.MinIO = client
	}

	if cfg.OpenSearch.Enabled() {
		client, err := opensearch.NewClient(cfg.OpenSearch, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("opensearch: %w", err)
		}
		infra.OpenSearch = client
		if err := opensearch.NewIndexer(client).EnsureIndex(ctx); err != nil {
			infra.Close()
			return nil, fmt.Errorf("opensearch index: %w", err)
		}
	}

	if cfg.Milvus.Enabled() {
		client, err := milvus.NewClient(cfg.Milvus, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("milvus: %w", err)
		}
		infra.Milvus = client
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.Postgres != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("opensearch", infra.OpenSearch != nil),
		logging.Bool("milvus", infra.Milvus != nil),
	)
	return infra, nil
}

func ensureTopics(ctx context.Context, cfg kafka.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg))
}

// Close releases every open backend.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	warn := func(backend string, err error) {
		if err != nil {
			i.logger.Warn("failed to close backend", logging.String("backend", backend), logging.Err(err))
		}
	}
	if i.Milvus != nil {
		warn("milvus", i.Milvus.Close())
	}
	if i.OpenSearch != nil {
		warn("opensearch", i.OpenSearch.Close())
	}
	if i.Producer != nil {
		warn("kafka", i.Producer.Close())
	}
	if i.Redis != nil {
		warn("redis", i.Redis.Close())
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	if i.Postgres != nil {
		warn("postgres", i.Postgres.Close())
	}
}

// Checkers returns a readiness probe per open backend.
func (i *Infrastructure) Checkers() []handlers.HealthChecker {
	var out []handlers.HealthChecker
	if i == nil {
		return out
	}
	if i.Postgres != nil {
		out = append(out, handlers.CheckerFunc{Label: "postgres", Probe: i.Postgres.HealthCheck})
	}
	if i.Redis != nil {
		out = append(out, handlers.CheckerFunc{Label: "redis", Probe: i.Redis.Ping})
	}
	if i.MinIO != nil {
		out = append(out, handlers.CheckerFunc{Label: "minio", Probe: i.MinIO.HealthCheck})
	}
	if i.OpenSearch != nil {
		out = append(out, handlers.CheckerFunc{Label: "opensearch", Probe: i.OpenSearch.Ping})
	}
	if i.Milvus != nil {
		out = append(out, handlers.CheckerFunc{Label: "milvus", Probe: i.Milvus.CheckHealth})
	}
	return out
}

//Personal.AI order the ending
