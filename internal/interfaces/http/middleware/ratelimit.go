package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// RateLimitConfig throttles expensive routes per client address.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops buckets that have been full and unused this long.
	IdleTTL time.Duration
}

// TokenBucketLimiter keeps one token bucket per key.
type TokenBucketLimiter struct {
	rate    float64
	burst   float64
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewTokenBucketLimiter(cfg RateLimitConfig) *TokenBucketLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &TokenBucketLimiter{
		rate:    cfg.RequestsPerSecond,
		burst:   float64(cfg.Burst),
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes a token for key. When none is left it reports how long until
// the next one.
func (l *TokenBucketLimiter) Allow(key string) (bool, int, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) >= l.idleTTL {
		l.evict(now)
		l.sweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.last).Seconds()*l.rate)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, 0, wait
}

func (l *TokenBucketLimiter) evict(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.last) >= l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// Len reports the number of tracked clients.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit rejects requests beyond the limiter's rate with 429. Clients are
// keyed by remote IP, so chi's RealIP must run first behind a proxy.
func RateLimit(l *TokenBucketLimiter) func(http.Handler) http.Handler {
	limit := strconv.Itoa(int(l.burst))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, wait := l.Allow(clientIP(r))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    string(errors.ErrCodeTooManyRequests),
				"message": errors.DefaultMessageForCode(errors.ErrCodeTooManyRequests),
			})
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

//Personal.AI order the ending
