// Package geoanalysis talks to the remote geospatial analysis service that
// reports raw parameter values for a site boundary.
package geoanalysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultRetryMax     = 2
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultUserAgent    = "solarsite-geoanalysis/1.0"

	analyzePath = "/analyze"
)

// Config locates the analysis service.
type Config struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RetryMax     int           `mapstructure:"retry_max" yaml:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" yaml:"retry_wait_max"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// Client posts a polygon to the service and decodes the raw values.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	userAgent    string
	logger       logging.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
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

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.InvalidParam("analysis service base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, errors.InvalidParam("analysis service base URL must be http(s)")
	}
	c := &Client{
		baseURL:      base,
		httpClient:   &http.Client{Timeout: orDuration(cfg.Timeout, DefaultTimeout)},
		retryMax:     DefaultRetryMax,
		retryWaitMin: orDuration(cfg.RetryWaitMin, DefaultRetryWaitMin),
		retryWaitMax: orDuration(cfg.RetryWaitMax, DefaultRetryWaitMax),
		userAgent:    DefaultUserAgent,
		logger:       logging.NewNopLogger(),
	}
	if cfg.RetryMax > 0 {
		c.retryMax = cfg.RetryMax
	}
	if c.retryWaitMax < c.retryWaitMin {
		c.retryWaitMax = c.retryWaitMin
	}
	if cfg.UserAgent != "" {
		c.userAgent = cfg.UserAgent
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("geoanalysis")
	return c, nil
}

type analyzeRequest struct {
	Geometry *geojson.Geometry `json:"geometry"`
}

// Analyze implements analysis.RemoteAnalyzer.
func (c *Client) Analyze(ctx context.Context, polygon geometry.Polygon) (suitability.RawParameterData, error) {
	body, err := json.Marshal(analyzeRequest{Geometry: geojson.NewGeometry(polygon.Orb())})
	if err != nil {
		return suitability.RawParameterData{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode geometry")
	}

	respBody, err := c.do(ctx, body)
	if err != nil {
		return suitability.RawParameterData{}, err
	}

	var raw suitability.RawParameterData
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return suitability.RawParameterData{}, errors.Wrap(err, errors.ErrCodeAnalysisInvalidRaw, "analysis service returned malformed data")
	}
	return raw, nil
}

// statusError is a non-2xx answer from the service.
type statusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("analysis service: status %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
}

func (c *Client) do(ctx context.Context, body []byte) ([]byte, error) {
	url := c.baseURL + analyzePath

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debug("retrying analysis request", logging.Int("attempt", attempt), logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeAnalysisCancelled, "analysis request cancelled")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build analysis request")
		}
		requestID := uuid.NewString()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeAnalysisCancelled, "analysis request cancelled")
			}
			c.logger.Warn("analysis request failed", logging.Int("attempt", attempt), logging.Err(err))
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		c.logger.Debug("analysis response",
			logging.Int("status", resp.StatusCode),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("request_id", requestID),
		)

		if resp.StatusCode >= 400 {
			se := &statusError{StatusCode: resp.StatusCode, Message: errorMessage(respBody), RequestID: requestID}
			lastErr = se
			if resp.StatusCode >= 500 {
				continue
			}
			return nil, errors.Wrap(se, errors.ErrCodeAnalysisServiceFailed, "analysis service rejected the request")
		}
		return respBody, nil
	}
	return nil, errors.Wrapf(lastErr, errors.ErrCodeAnalysisServiceFailed, "analysis service failed after %d attempts", c.retryMax+1)
}

func (c *Client) backoff(attempt int) time.Duration {
	b := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if b > c.retryWaitMax {
		b = c.retryWaitMax
	}
	if q := int64(b / 4); q > 0 {
		b += time.Duration(rand.Int63n(q))
	}
	return b
}

// errorMessage extracts {"error": ...} or {"message": ...}, else the body.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

//Personal.AI order the ending
