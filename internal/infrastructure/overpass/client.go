// Package overpass measures distances from a site to the road and power
// networks using the OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Public mirrors, tried in order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
	"https://z.overpass-api.de/api/interpreter",
}

const (
	DefaultUserAgent    = "Solar-Suitability-App/1.0"
	DefaultMaxAttempts  = 3
	DefaultBackoffBase  = 2 * time.Second
	DefaultTimeout      = 30 * time.Second
	DefaultRoadRadiusM  = 5000
	DefaultPowerRadiusM = 25000
)

// Config tunes the Overpass client.
type Config struct {
	Endpoints    []string      `mapstructure:"endpoints" yaml:"endpoints"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffBase  time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RoadRadiusM  int           `mapstructure:"road_radius_m" yaml:"road_radius_m"`
	PowerRadiusM int           `mapstructure:"power_radius_m" yaml:"power_radius_m"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if len(c.Endpoints) == 0 {
		c.Endpoints = append([]string(nil), DefaultEndpoints...)
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RoadRadiusM <= 0 {
		c.RoadRadiusM = DefaultRoadRadiusM
	}
	if c.PowerRadiusM <= 0 {
		c.PowerRadiusM = DefaultPowerRadiusM
	}
}

// Node is one vertex of a way returned with "out geom".
type Node struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is an OSM element from an Overpass response.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []Node            `json:"geometry,omitempty"`
}

// Line returns the way geometry as (lon, lat) points.
func (e Element) Line() orb.LineString {
	ls := make(orb.LineString, len(e.Geometry))
	for i, n := range e.Geometry {
		ls[i] = orb.Point{n.Lon, n.Lat}
	}
	return ls
}

type response struct {
	Elements []Element `json:"elements"`
}

// Client queries Overpass with endpoint failover.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client; zero config fields take defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.ApplyDefaults()
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNopLogger(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("overpass")
	return c
}

// Query runs an Overpass QL query. Every endpoint is tried in each of
// MaxAttempts rounds; a round that only produced errors or empty answers is
// followed by a backoff of BackoffBase·2^round. Exhausting all rounds is not
// an error: the result is simply empty. Only cancellation is reported.
func (c *Client) Query(ctx context.Context, query string) ([]Element, error) {
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		for _, endpoint := range c.cfg.Endpoints {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeAnalysisCancelled, "overpass query cancelled")
			}
			els, err := c.post(ctx, endpoint, query)
			if err != nil {
				c.logger.Debug("overpass endpoint failed",
					logging.String("endpoint", endpoint), logging.Int("attempt", attempt+1), logging.Err(err))
				continue
			}
			if len(els) > 0 {
				return els, nil
			}
		}
		if attempt < c.cfg.MaxAttempts-1 {
			backoff := c.cfg.BackoffBase * time.Duration(1<<uint(attempt))
			c.logger.Debug("all overpass endpoints missed, backing off", logging.Duration("backoff", backoff))
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeAnalysisCancelled, "overpass query cancelled")
			}
		}
	}
	c.logger.Warn("overpass returned no elements after retries", logging.Int("attempts", c.cfg.MaxAttempts))
	return nil, nil
}

func (c *Client) post(ctx context.Context, endpoint, query string) ([]Element, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Newf(errors.ErrCodeExternalService, "overpass status %d", resp.StatusCode)
	}
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "malformed overpass response")
	}
	return r.Elements, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

//Personal.AI order the ending
