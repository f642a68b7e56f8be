// Package config defines the configuration of the SolarSite services.
// Infrastructure sections reuse the Config types owned by their adapters;
// this package only adds the service-level sections, defaults and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/geoanalysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/overpass"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/storage/minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service sections
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds REST server tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	// RateLimitRPS throttles the /api/analyze routes per client; 0 disables.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// GRPCConfig holds gRPC server tunables. Port 0 disables the server.
type GRPCConfig struct {
	Port             int  `mapstructure:"port" yaml:"port"`
	EnableReflection bool `mapstructure:"enable_reflection" yaml:"enable_reflection"`
}

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	GRPC GRPCConfig `mapstructure:"grpc" yaml:"grpc"`
}

// AnalysisConfig controls the orchestrator.
type AnalysisConfig struct {
	// MaxArea is the partition threshold in squared degrees.
	MaxArea              float64       `mapstructure:"max_area" yaml:"max_area"`
	// MaxSubAreas caps the display cells of one boundary.
	MaxSubAreas          int           `mapstructure:"max_sub_areas" yaml:"max_sub_areas"`
	DefaultLandOwnership string        `mapstructure:"default_land_ownership" yaml:"default_land_ownership"`
	SplitLargeAreas      bool          `mapstructure:"split_large_areas" yaml:"split_large_areas"`
	BatchConcurrency     int           `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
	MaxSitesPerUpload    int           `mapstructure:"max_sites_per_upload" yaml:"max_sites_per_upload"`
	BranchTimeout        time.Duration `mapstructure:"branch_timeout" yaml:"branch_timeout"`
	ProfilePath          string        `mapstructure:"profile_path" yaml:"profile_path"`
}

// SeismicConfig locates the zone dataset.
type SeismicConfig struct {
	ZonesFile   string `mapstructure:"zones_file" yaml:"zones_file"`
	DefaultZone int    `mapstructure:"default_zone" yaml:"default_zone"`
}

// WorkerConfig controls cmd/worker.
type WorkerConfig struct {
	// LockTTL bounds how long one request ID stays claimed by a worker.
	LockTTL        time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	MessageTimeout time.Duration `mapstructure:"message_timeout" yaml:"message_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration of every SolarSite binary. Backends
// whose address is empty are disabled.
type Config struct {
	Server      ServerConfig               `mapstructure:"server" yaml:"server"`
	Log         logging.LogConfig          `mapstructure:"log" yaml:"log"`
	Metrics     prometheus.CollectorConfig `mapstructure:"metrics" yaml:"metrics"`
	Analysis    AnalysisConfig             `mapstructure:"analysis" yaml:"analysis"`
	GeoAnalysis geoanalysis.Config         `mapstructure:"geoanalysis" yaml:"geoanalysis"`
	Overpass    overpass.Config            `mapstructure:"overpass" yaml:"overpass"`
	Seismic     SeismicConfig              `mapstructure:"seismic" yaml:"seismic"`
	Postgres    postgres.PostgresConfig    `mapstructure:"postgres" yaml:"postgres"`
	Redis       redis.RedisConfig          `mapstructure:"redis" yaml:"redis"`
	Kafka       kafka.Config               `mapstructure:"kafka" yaml:"kafka"`
	MinIO       minio.Config               `mapstructure:"minio" yaml:"minio"`
	OpenSearch  opensearch.Config          `mapstructure:"opensearch" yaml:"opensearch"`
	Milvus      milvus.Config              `mapstructure:"milvus" yaml:"milvus"`
	Worker      WorkerConfig               `mapstructure:"worker" yaml:"worker"`
}

func (c *Config) PostgresEnabled() bool { return c.Postgres.Host != "" }

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != "" || len(c.Redis.ClusterAddrs) > 0 || len(c.Redis.SentinelAddrs) > 0
}

// LandOwnership returns the parsed default ownership.
func (c *Config) LandOwnership() suitability.LandOwnership {
	o, _ := suitability.ParseLandOwnership(c.Analysis.DefaultLandOwnership)
	return o
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}
	if c.Server.GRPC.Port < 0 || c.Server.GRPC.Port > 65535 {
		return fmt.Errorf("config: server.grpc.port %d is out of range [0, 65535]", c.Server.GRPC.Port)
	}
	if c.Server.GRPC.Port != 0 && c.Server.GRPC.Port == c.Server.HTTP.Port {
		return fmt.Errorf("config: server.grpc.port must differ from server.http.port")
	}
	if c.Server.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("config: server.http.max_body_bytes must be ≥ 0")
	}
	if c.Server.HTTP.RateLimitRPS < 0 || c.Server.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("config: server.http rate limit settings must be ≥ 0")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Analysis
	if c.Analysis.MaxArea <= 0 || partition.ValidateMaxArea(c.Analysis.MaxArea) != nil {
		return fmt.Errorf("config: analysis.max_area must be ≥ %g, got %g", partition.MinMaxArea, c.Analysis.MaxArea)
	}
	if c.Analysis.MaxSubAreas < 1 {
		return fmt.Errorf("config: analysis.max_sub_areas must be ≥ 1, got %d", c.Analysis.MaxSubAreas)
	}
	if _, err := suitability.ParseLandOwnership(c.Analysis.DefaultLandOwnership); err != nil {
		return fmt.Errorf("config: analysis.default_land_ownership: %w", err)
	}
	if c.Analysis.BatchConcurrency < 1 {
		return fmt.Errorf("config: analysis.batch_concurrency must be ≥ 1, got %d", c.Analysis.BatchConcurrency)
	}
	if c.Analysis.MaxSitesPerUpload < 1 {
		return fmt.Errorf("config: analysis.max_sites_per_upload must be ≥ 1, got %d", c.Analysis.MaxSitesPerUpload)
	}

	// Remote analysis service
	if c.GeoAnalysis.BaseURL == "" {
		return fmt.Errorf("config: geoanalysis.base_url is required")
	}

	// Seismic
	if c.Seismic.DefaultZone < suitability.MinSeismicZone || c.Seismic.DefaultZone > suitability.MaxSeismicZone {
		return fmt.Errorf("config: seismic.default_zone %d is out of range [%d, %d]",
			c.Seismic.DefaultZone, suitability.MinSeismicZone, suitability.MaxSeismicZone)
	}

	// Optional backends
	if c.PostgresEnabled() && c.Postgres.Database == "" {
		return fmt.Errorf("config: postgres.database is required")
	}
	if c.RedisEnabled() && c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}
	if c.Kafka.Enabled() {
		if err := c.Kafka.Validate(); err != nil {
			return fmt.Errorf("config: kafka: %w", err)
		}
	}
	if c.OpenSearch.Enabled() {
		if err := opensearch.ValidateConfig(c.OpenSearch); err != nil {
			return fmt.Errorf("config: opensearch: %w", err)
		}
	}
	if c.Milvus.Enabled() {
		if err := milvus.ValidateConfig(c.Milvus); err != nil {
			return fmt.Errorf("config: milvus: %w", err)
		}
	}
	if c.MinIO.Enabled() && (c.MinIO.AccessKeyID == "" || c.MinIO.SecretAccessKey == "") {
		return fmt.Errorf("config: minio credentials are required")
	}

	return nil
}

//Personal.AI order the ending
