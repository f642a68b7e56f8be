package config

import (
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost       = "0.0.0.0"
	DefaultHTTPPort       = 8080
	DefaultMaxBodyBytes   = 10 << 20
	DefaultRateLimitBurst = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "solarsite"

	DefaultBatchConcurrency  = 4
	DefaultMaxSitesPerUpload = 100

	DefaultGeoAnalysisURL = "http://localhost:8000"

	DefaultPostgresPort = 5432
	DefaultPostgresDB   = "solarsite"

	DefaultRedisKeyPrefix = "solarsite:"
	DefaultRedisCacheTTL  = 24 * time.Hour
)

// DefaultCORSOrigins are the local web front-end origins.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Explicitly set values are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = 30 * time.Second
	}
	// Analyses wait on the remote service and Overpass.
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.Server.HTTP.IdleTimeout == 0 {
		cfg.Server.HTTP.IdleTimeout = 2 * time.Minute
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.HTTP.MaxBodyBytes == 0 {
		cfg.Server.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.HTTP.RateLimitRPS > 0 && cfg.Server.HTTP.RateLimitBurst == 0 {
		cfg.Server.HTTP.RateLimitBurst = DefaultRateLimitBurst
	}
	if len(cfg.Server.HTTP.CORSOrigins) == 0 {
		cfg.Server.HTTP.CORSOrigins = append([]string(nil), DefaultCORSOrigins...)
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.MaxArea == 0 {
		cfg.Analysis.MaxArea = partition.DefaultMaxArea
	}
	if cfg.Analysis.MaxSubAreas == 0 {
		cfg.Analysis.MaxSubAreas = partition.DefaultMaxCells
	}
	if cfg.Analysis.BatchConcurrency == 0 {
		cfg.Analysis.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.Analysis.MaxSitesPerUpload == 0 {
		cfg.Analysis.MaxSitesPerUpload = DefaultMaxSitesPerUpload
	}
	if cfg.Analysis.BranchTimeout == 0 {
		cfg.Analysis.BranchTimeout = 90 * time.Second
	}

	// ── Remote services ───────────────────────────────────────────────────────
	if cfg.GeoAnalysis.BaseURL == "" {
		cfg.GeoAnalysis.BaseURL = DefaultGeoAnalysisURL
	}
	cfg.Overpass.ApplyDefaults()
	if cfg.Seismic.DefaultZone == 0 {
		cfg.Seismic.DefaultZone = suitability.DefaultSeismicZone
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.PostgresEnabled() {
		if cfg.Postgres.Port == 0 {
			cfg.Postgres.Port = DefaultPostgresPort
		}
		if cfg.Postgres.Database == "" {
			cfg.Postgres.Database = DefaultPostgresDB
		}
		if cfg.Postgres.SSLMode == "" {
			cfg.Postgres.SSLMode = "disable"
		}
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	// DB 0 is both the zero value and the default.
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = DefaultRedisCacheTTL
	}

	// ── Messaging, storage, search ────────────────────────────────────────────
	cfg.Kafka.ApplyDefaults()
	cfg.MinIO.ApplyDefaults()
	cfg.OpenSearch.ApplyDefaults()
	cfg.Milvus.ApplyDefaults()

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.LockTTL == 0 {
		cfg.Worker.LockTTL = 10 * time.Minute
	}
	if cfg.Worker.MessageTimeout == 0 {
		cfg.Worker.MessageTimeout = 5 * time.Minute
	}
}

//Personal.AI order the ending
