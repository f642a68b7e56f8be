package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/application/ingestion"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/middleware"
)

const (
	polygonGeometry = `{"type":"Polygon","coordinates":[[[77.1,28.1],[77.11,28.1],[77.11,28.11],[77.1,28.11],[77.1,28.1]]]}`
	testPolygon     = `{"geometry":` + polygonGeometry + `}`
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, sess analysis.AnalysisSession, site analysis.Site) (analysis.AnalysisSession, *analysis.AreaAnalysisResult, error) {
	res := &analysis.AreaAnalysisResult{ID: "a1", SessionID: sess.ID, Name: site.Name, FinalScore: 6.1, Decision: suitability.DecisionReview}
	return sess.WithResult(res), res, nil
}

func (s stubAnalyzer) AnalyzeBatch(ctx context.Context, sess analysis.AnalysisSession, sites []analysis.Site) (analysis.AnalysisSession, []analysis.BatchItem) {
	items := make([]analysis.BatchItem, len(sites))
	for i, site := range sites {
		var res *analysis.AreaAnalysisResult
		sess, res, _ = s.Analyze(ctx, sess, site)
		items[i] = analysis.BatchItem{Site: site, Result: res}
	}
	return sess, items
}

func (stubAnalyzer) Parameters() *suitability.ParameterSet { return suitability.DefaultParameterSet() }

type countingMetrics struct{ routes []string }

func (m *countingMetrics) ObserveHTTPRequest(_, route string, _ int, _ time.Duration) {
	m.routes = append(m.routes, route)
}
func (m *countingMetrics) TrackInFlight() func() { return func() {} }

func newTestRouter(cfg RouterConfig) http.Handler {
	if cfg.AnalysisHandler == nil {
		cfg.AnalysisHandler = handlers.NewAnalysisHandler(stubAnalyzer{}, ingestion.NewParser(0, nil), nil)
	}
	if cfg.HistoryHandler == nil {
		cfg.HistoryHandler = handlers.NewHistoryHandler(nil, nil, nil, nil)
	}
	if cfg.HealthHandler == nil {
		cfg.HealthHandler = handlers.NewHealthHandler("test")
	}
	return NewRouter(cfg)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	router := newTestRouter(RouterConfig{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK},
		{"analyze", http.MethodPost, "/api/analyze", testPolygon, http.StatusOK},
		{"analyze trailing slash", http.MethodPost, "/api/analyze/", testPolygon, http.StatusOK},
		{"batch", http.MethodPost, "/api/analyze/batch", `{"geometries":[` + polygonGeometry + `]}`, http.StatusOK},
		{"kml without body", http.MethodPost, "/api/analyze/kml", "", http.StatusBadRequest},
		{"analysis health", http.MethodGet, "/api/analyze/health", "", http.StatusOK},
		{"parameters", http.MethodGet, "/api/v1/parameters", "", http.StatusOK},
		{"history disabled", http.MethodGet, "/api/v1/analyses/a1", "", http.StatusNotImplemented},
		{"search disabled", http.MethodGet, "/api/v1/analyses", "", http.StatusNotImplemented},
		{"similar disabled", http.MethodGet, "/api/v1/analyses/a1/similar", "", http.StatusNotImplemented},
		{"report disabled", http.MethodGet, "/api/v1/analyses/a1/report", "", http.StatusNotImplemented},
		{"queue disabled", http.MethodPost, "/api/v1/analyses/requests", testPolygon, http.StatusNotImplemented},
		{"wrong method", http.MethodGet, "/api/analyze", "", http.StatusMethodNotAllowed},
		{"unknown", http.MethodGet, "/api/v2/anything", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	router := NewRouter(RouterConfig{})
	assert.NotPanics(t, func() {
		w := serve(router, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	router := newTestRouter(RouterConfig{
		AnalysisHandler: handlers.NewAnalysisHandler(panicAnalyzer{}, ingestion.NewParser(0, nil), nil),
	})
	w := serve(router, http.MethodPost, "/api/analyze", testPolygon)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type panicAnalyzer struct{ stubAnalyzer }

func (panicAnalyzer) Analyze(context.Context, analysis.AnalysisSession, analysis.Site) (analysis.AnalysisSession, *analysis.AreaAnalysisResult, error) {
	panic("boom")
}

func TestNewRouter_RateLimitOnlyOnAnalyze(t *testing.T) {
	limiter := middleware.NewTokenBucketLimiter(middleware.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	router := newTestRouter(RouterConfig{RateLimiter: limiter})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/analyze", testPolygon).Code)
	w := serve(router, http.MethodPost, "/api/analyze", testPolygon)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/analyze/health", "").Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/parameters", "").Code)
	}
}

func TestNewRouter_CORSAndMetrics(t *testing.T) {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://maps.example.com"}
	metrics := &countingMetrics{}
	router := newTestRouter(RouterConfig{CORS: &cors, HTTPMetrics: metrics})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/xyz", nil)
	r.Header.Set("Origin", "https://maps.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, "https://maps.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Len(t, metrics.routes, 1)
	assert.True(t, strings.HasPrefix(metrics.routes[0], "/api/v1/analyses/{id}"), metrics.routes[0])
}

//Personal.AI order the ending
