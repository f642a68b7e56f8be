package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSolarMetrics_ObserveAnalysis(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	m.ObserveAnalysis("Yes", 8.5, 2*time.Second)
	m.ObserveAnalysis("No", 2.5, time.Second)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_analyses_total{decision="Yes"} 1`)
	assert.Contains(t, out, `test_unit_analyses_total{decision="No"} 1`)
	assert.Contains(t, out, "test_unit_final_score_sum 11")
	assert.Contains(t, out, "test_unit_analysis_duration_seconds_count 2")
}

func TestSolarMetrics_FailuresAndRecorders(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	m.ObserveFailure("fetch")
	m.ObserveFailure("fetch")
	m.ObserveRecorderError("postgres")
	m.ObserveBatch(4)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_analysis_failures_total{stage="fetch"} 2`)
	assert.Contains(t, out, `test_unit_recorder_errors_total{recorder="postgres"} 1`)
	assert.Contains(t, out, "test_unit_batch_size_sum 4")
}

func TestSolarMetrics_ObserveFetch(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	m.ObserveFetch("overpass_roads", 100*time.Millisecond, nil)
	m.ObserveFetch("overpass_roads", 200*time.Millisecond, errors.New("timeout"))
	m.ObserveFallback("overpass_roads")

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_remote_fetch_duration_seconds_count{source="overpass_roads"} 2`)
	assert.Contains(t, out, `test_unit_remote_fetch_errors_total{source="overpass_roads"} 1`)
	assert.Contains(t, out, `test_unit_enrichment_fallbacks_total{source="overpass_roads"} 1`)
}

func TestSolarMetrics_HTTP(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	done := m.TrackInFlight()
	m.ObserveHTTPRequest("POST", "/api/analyze", 200, 50*time.Millisecond)
	assert.Contains(t, scrape(t, c), "test_unit_http_in_flight_requests 1")
	done()

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_http_requests_total{method="POST",route="/api/analyze",status_code="200"} 1`)
	assert.Contains(t, out, `test_unit_http_request_duration_seconds_count{method="POST",route="/api/analyze"} 1`)
	assert.Contains(t, out, "test_unit_http_in_flight_requests 0")
}

func TestSolarMetrics_CacheAndWorker(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveCache("hit")
	m.ObserveWorkerMessage("processed")

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_cache_operations_total{result="hit"} 2`)
	assert.Contains(t, out, `test_unit_cache_operations_total{result="miss"} 1`)
	assert.Contains(t, out, `test_unit_worker_messages_total{outcome="processed"} 1`)
}

func TestSolarMetrics_GRPC(t *testing.T) {
	c := newTestCollector(t)
	m := NewSolarMetrics(c)

	m.ObserveGRPCRequest("solarsite.v1.AnalysisService", "Analyze", "OK", 20*time.Millisecond)
	m.ObserveGRPCRequest("solarsite.v1.AnalysisService", "Analyze", "InvalidArgument", time.Millisecond)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_grpc_requests_total{code="OK",method="Analyze",service="solarsite.v1.AnalysisService"} 1`)
	assert.Contains(t, out, `test_unit_grpc_request_duration_seconds_count{method="Analyze",service="solarsite.v1.AnalysisService"} 2`)
}

//Personal.AI order the ending
