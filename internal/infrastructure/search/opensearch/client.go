// Package opensearch indexes analysis results for filtered history search.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "invalid configuration")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "connection failed")
)

// Config is the opensearch section of the service configuration.
type Config struct {
	Addresses      []string      `mapstructure:"addresses" yaml:"addresses"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	Index          string        `mapstructure:"index" yaml:"index"`
	Shards         int           `mapstructure:"shards" yaml:"shards"`
	Replicas       int           `mapstructure:"replicas" yaml:"replicas"`
	TLSEnabled     bool          `mapstructure:"tls_enabled" yaml:"tls_enabled"`
	TLSSkipVerify  bool          `mapstructure:"tls_skip_verify" yaml:"tls_skip_verify"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// Refresh is passed to index requests; "true" makes writes searchable immediately.
	Refresh             string        `mapstructure:"refresh" yaml:"refresh"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval" yaml:"health_check_interval"`
}

func (c Config) Enabled() bool { return len(c.Addresses) > 0 }

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Index == "" {
		c.Index = "solarsite-analyses"
	}
	if c.Shards == 0 {
		c.Shards = 1
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Refresh == "" {
		c.Refresh = "false"
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg Config) error {
	if len(cfg.Addresses) == 0 {
		return ErrInvalidConfig
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "RequestTimeout must be >= 0")
	}
	if cfg.Replicas < 0 {
		return errors.New(errors.ErrCodeValidation, "Replicas must be >= 0")
	}
	switch cfg.Refresh {
	case "", "true", "false", "wait_for":
	default:
		return errors.New(errors.ErrCodeValidation, "Refresh must be true, false or wait_for")
	}
	return nil
}

// Client manages the OpenSearch connection.
type Client struct {
	api     *opensearchapi.Client
	config  Config
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

// NewClient creates a client and verifies connectivity.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}
	if cfg.TLSEnabled {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec
		}
	}

	backoff := cfg.RetryBackoff
	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:     cfg.Addresses,
			Username:      cfg.Username,
			Password:      cfg.Password,
			MaxRetries:    cfg.MaxRetries,
			RetryBackoff:  func(int) time.Duration { return backoff },
			RetryOnStatus: []int{502, 503, 504, 429},
			Transport:     transport,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		api:    api,
		config: cfg,
		logger: logger.Named("opensearch"),
		cancel: cancel,
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer pingCancel()
	if err := c.Ping(pingCtx); err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	go c.startHealthCheck(ctx)

	return c, nil
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, &opensearchapi.PingReq{})
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if resp != nil && resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.New(errors.ErrCodeServiceUnavailable, "ping returned error status")
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the result of the latest ping.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// Close stops the health check.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("OpenSearch client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				c.logger.Error("OpenSearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("OpenSearch cluster recovered")
			}
		}
	}
}

//Personal.AI order the ending
