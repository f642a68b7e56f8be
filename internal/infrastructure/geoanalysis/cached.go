package geoanalysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
)

// Cache results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// CacheMetrics counts cache outcomes.
type CacheMetrics interface {
	ObserveCache(result string)
}

// CachedAnalyzer serves repeated boundaries from Redis. Concurrent requests
// for the same boundary share one upstream call.
type CachedAnalyzer struct {
	next    analysis.RemoteAnalyzer
	cache   redis.Cache
	ttl     time.Duration
	metrics CacheMetrics
	logger  logging.Logger
}

// NewCachedAnalyzer wraps next. A zero ttl uses the cache default.
func NewCachedAnalyzer(next analysis.RemoteAnalyzer, cache redis.Cache, ttl time.Duration, metrics CacheMetrics, log logging.Logger) *CachedAnalyzer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedAnalyzer{next: next, cache: cache, ttl: ttl, metrics: metrics, logger: log.Named("geoanalysis_cache")}
}

// Analyze implements analysis.RemoteAnalyzer.
func (c *CachedAnalyzer) Analyze(ctx context.Context, polygon geometry.Polygon) (suitability.RawParameterData, error) {
	key := CacheKey(polygon)
	loaded := false
	var raw suitability.RawParameterData
	err := c.cache.GetOrSet(ctx, key, &raw, c.ttl, func(ctx context.Context) (interface{}, error) {
		loaded = true
		return c.next.Analyze(ctx, polygon)
	})
	if err != nil {
		return suitability.RawParameterData{}, err
	}
	result := CacheHit
	if loaded {
		result = CacheMiss
	}
	if c.metrics != nil {
		c.metrics.ObserveCache(result)
	}
	c.logger.Debug("raw data served", logging.String("cache", result), logging.String("key", key))
	return raw, nil
}

// CacheKey identifies a boundary by its vertices at 1e-7 degree precision.
func CacheKey(polygon geometry.Polygon) string {
	h := sha256.New()
	buf := make([]byte, 0, 32)
	for _, p := range polygon {
		buf = strconv.AppendFloat(buf[:0], p[0], 'f', 7, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, p[1], 'f', 7, 64)
		buf = append(buf, ';')
		h.Write(buf)
	}
	return "raw:v1:" + hex.EncodeToString(h.Sum(nil))
}

//Personal.AI order the ending
