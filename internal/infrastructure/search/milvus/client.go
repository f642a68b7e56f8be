// Package milvus keeps per-parameter score vectors of analyzed sites in a
// Milvus collection and finds sites with similar profiles.
package milvus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// ClientFactory creates the underlying SDK client.
type ClientFactory func(ctx context.Context, conf client.Config) (client.Client, error)

var milvusNewClient ClientFactory = client.NewClient

var (
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "connection failed")
	ErrUnhealthy        = errors.New(errors.ErrCodeServiceUnavailable, "service unhealthy")
)

// Config is the milvus section of the service configuration.
type Config struct {
	Address          string        `mapstructure:"address" yaml:"address"`
	Username         string        `mapstructure:"username" yaml:"username"`
	Password         string        `mapstructure:"password" yaml:"password"`
	DBName           string        `mapstructure:"db_name" yaml:"db_name"`
	Collection       string        `mapstructure:"collection" yaml:"collection"`
	ShardsNum        int32         `mapstructure:"shards_num" yaml:"shards_num"`
	TLSEnabled       bool          `mapstructure:"tls_enabled" yaml:"tls_enabled"`
	TLSCertPath      string        `mapstructure:"tls_cert_path" yaml:"tls_cert_path"`
	TLSServerName    string        `mapstructure:"tls_server_name" yaml:"tls_server_name"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	KeepAliveTime    time.Duration `mapstructure:"keepalive_time" yaml:"keepalive_time"`
	KeepAliveTimeout time.Duration `mapstructure:"keepalive_timeout" yaml:"keepalive_timeout"`
	// HealthCheckInterval is the period of the background health probe; three
	// consecutive failures trigger a reconnect.
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval" yaml:"health_check_interval"`
}

func (c Config) Enabled() bool { return c.Address != "" }

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.DBName == "" {
		c.DBName = "default"
	}
	if c.Collection == "" {
		c.Collection = "solarsite_score_vectors"
	}
	if c.ShardsNum == 0 {
		c.ShardsNum = 1
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.KeepAliveTime == 0 {
		c.KeepAliveTime = 60 * time.Second
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = 20 * time.Second
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg Config) error {
	if cfg.Address == "" {
		return errors.New(errors.ErrCodeValidation, "Address is required")
	}
	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "ConnectTimeout must be >= 0")
	}
	if cfg.ShardsNum < 0 {
		return errors.New(errors.ErrCodeValidation, "ShardsNum must be >= 0")
	}
	if cfg.TLSEnabled && cfg.TLSCertPath == "" {
		return errors.New(errors.ErrCodeValidation, "TLSCertPath required when TLSEnabled is true")
	}
	return nil
}

// Client manages the Milvus connection.
type Client struct {
	milvusClient client.Client
	config       Config
	logger       logging.Logger
	healthy      atomic.Bool
	cancel       context.CancelFunc
	mu           sync.RWMutex
}

// NewClient connects, verifies health and starts the background probe.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc, err := connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	c := &Client{
		milvusClient: mc,
		config:       cfg,
		logger:       logger.Named("milvus"),
		cancel:       cancel,
	}
	if err := c.CheckHealth(ctx); err != nil {
		_ = c.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	go c.startHealthCheck(ctx)

	c.logger.Info("Milvus client connected", logging.String("address", cfg.Address))
	return c, nil
}

// NewClientWithMilvus wraps an existing SDK client without probing it.
func NewClientWithMilvus(mc client.Client, cfg Config, logger logging.Logger) *Client {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{milvusClient: mc, config: cfg, logger: logger.Named("milvus"), cancel: func() {}}
	c.healthy.Store(true)
	return c
}

func connect(ctx context.Context, cfg Config) (client.Client, error) {
	milvusCfg := client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	}

	var dialOpts []grpc.DialOption
	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: cfg.TLSServerName}
		caCert, err := os.ReadFile(cfg.TLSCertPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read TLS cert")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.New(errors.ErrCodeValidation, "failed to parse TLS cert")
		}
		tlsConfig.RootCAs = pool
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		milvusCfg.EnableTLSAuth = true
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                cfg.KeepAliveTime,
		Timeout:             cfg.KeepAliveTimeout,
		PermitWithoutStream: true,
	}))
	milvusCfg.DialOptions = dialOpts

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	return milvusNewClient(connectCtx, milvusCfg)
}

// CheckHealth asks the server for its health state.
func (c *Client) CheckHealth(ctx context.Context) error {
	mc := c.sdk()
	if mc == nil {
		return ErrConnectionFailed
	}
	state, err := mc.CheckHealth(ctx)
	if err != nil || (state != nil && !state.IsHealthy) {
		c.healthy.Store(false)
		c.logger.Warn("Milvus health check failed", logging.Err(err))
		return ErrUnhealthy
	}
	c.healthy.Store(true)
	return nil
}

func (c *Client) IsHealthy() bool { return c.healthy.Load() }

func (c *Client) Config() Config { return c.config }

func (c *Client) sdk() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.milvusClient
}

// Close stops the probe and closes the connection. It is safe to call twice.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.milvusClient != nil {
		_ = c.milvusClient.Close()
		c.milvusClient = nil
		c.logger.Info("Milvus client closed")
	}
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.CheckHealth(ctx)
			curr := c.healthy.Load()

			switch {
			case prev && !curr:
				failures++
				c.logger.Error("Milvus cluster became unhealthy", logging.Err(err))
			case !prev && curr:
				failures = 0
				c.logger.Info("Milvus cluster recovered")
			case !curr:
				failures++
			default:
				failures = 0
			}

			if failures >= 3 {
				c.logger.Warn("Milvus consecutive failures, attempting reconnect")
				if err := c.reconnect(ctx); err != nil {
					c.logger.Error("Milvus reconnect failed", logging.Err(err))
				} else {
					failures = 0
				}
			}
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.milvusClient != nil {
		_ = c.milvusClient.Close()
	}
	mc, err := connect(ctx, c.config)
	if err != nil {
		c.milvusClient = nil
		return err
	}
	c.milvusClient = mc
	c.logger.Warn("Milvus client reconnected")
	return nil
}

//Personal.AI order the ending
