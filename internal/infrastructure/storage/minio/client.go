// Package minio stores uploaded site boundaries and JSON analysis reports in
// MinIO or any S3-compatible object store.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// ObjectAPI is the subset of *minio.Client the store uses.
type ObjectAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// BucketConfig names the buckets.
type BucketConfig struct {
	Uploads string `mapstructure:"uploads" yaml:"uploads"`
	Reports string `mapstructure:"reports" yaml:"reports"`
}

// Config is the minio section of the service configuration.
type Config struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl" yaml:"use_ssl"`
	Region          string        `mapstructure:"region" yaml:"region"`
	Buckets         BucketConfig  `mapstructure:"buckets" yaml:"buckets"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry" yaml:"presign_expiry"`
	// UploadRetentionDays expires archived uploads; zero keeps them forever.
	UploadRetentionDays int `mapstructure:"upload_retention_days" yaml:"upload_retention_days"`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Buckets.Uploads == "" {
		c.Buckets.Uploads = "solarsite-uploads"
	}
	if c.Buckets.Reports == "" {
		c.Buckets.Reports = "solarsite-reports"
	}
	if c.PresignExpiry == 0 {
		c.PresignExpiry = time.Hour
	}
}

// Client owns the object-store connection and bucket setup.
type Client struct {
	api    ObjectAPI
	cfg    Config
	logger logging.Logger
}

// NewClient connects, then creates missing buckets and the upload retention
// rule.
func NewClient(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled() {
		return nil, errors.InvalidParam("minio endpoint is required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}
	c := NewClientWithAPI(mc, cfg, log)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		return nil, err
	}
	if err := c.EnsureBuckets(ctx); err != nil {
		return nil, err
	}
	c.setupLifecycle(ctx)

	c.logger.Info("MinIO client connected", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation without connecting.
func NewClientWithAPI(api ObjectAPI, cfg Config, log logging.Logger) *Client {
	cfg.ApplyDefaults()
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{api: api, cfg: cfg, logger: log.Named("minio")}
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// EnsureBuckets creates the upload and report buckets when missing.
func (c *Client) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{c.cfg.Buckets.Uploads, c.cfg.Buckets.Reports} {
		exists, err := c.api.BucketExists(ctx, bucket)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageBucketMissing, "failed to check bucket").WithDetail("bucket=" + bucket)
		}
		if exists {
			continue
		}
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageBucketMissing, "failed to create bucket").WithDetail("bucket=" + bucket)
		}
		c.logger.Info("created bucket", logging.String("bucket", bucket))
	}
	return nil
}

func (c *Client) setupLifecycle(ctx context.Context) {
	if c.cfg.UploadRetentionDays <= 0 {
		return
	}
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         "uploads-expiry",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(c.cfg.UploadRetentionDays)},
	}}
	if err := c.api.SetBucketLifecycle(ctx, c.cfg.Buckets.Uploads, lc); err != nil {
		c.logger.Warn("failed to set upload retention", logging.String("bucket", c.cfg.Buckets.Uploads), logging.Err(err))
	}
}

// HealthCheck lists buckets to verify connectivity.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "object store unreachable")
	}
	return nil
}

//Personal.AI order the ending
