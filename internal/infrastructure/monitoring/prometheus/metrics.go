package prometheus

import (
	"strconv"
	"time"
)

// Bucket layouts shared by the solar metrics.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	DefaultFetchDurationBuckets    = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	FinalScoreBuckets              = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	BatchSizeBuckets               = []float64{1, 2, 5, 10, 25, 50, 100}
)

// SolarMetrics is the metric set of the analysis service. It satisfies the
// metrics ports of the analysis orchestrator, the cached analysis client and
// the HTTP middleware.
type SolarMetrics struct {
	AnalysesTotal        CounterVec
	AnalysisFailures     CounterVec
	AnalysisDuration     HistogramVec
	FinalScore           HistogramVec
	RecorderErrors       CounterVec
	BatchSize            HistogramVec
	RemoteFetchDuration  HistogramVec
	RemoteFetchErrors    CounterVec
	EnrichmentFallbacks  CounterVec
	CacheOperations      CounterVec
	HTTPRequestsTotal    CounterVec
	HTTPRequestDuration  HistogramVec
	HTTPInFlightRequests GaugeVec
	WorkerMessages       CounterVec
	GRPCRequestsTotal    CounterVec
	GRPCRequestDuration  HistogramVec
}

// NewSolarMetrics registers every solar metric on collector.
func NewSolarMetrics(c MetricsCollector) *SolarMetrics {
	return &SolarMetrics{
		AnalysesTotal:        c.RegisterCounter("analyses_total", "Completed site analyses by decision", "decision"),
		AnalysisFailures:     c.RegisterCounter("analysis_failures_total", "Failed site analyses by stage", "stage"),
		AnalysisDuration:     c.RegisterHistogram("analysis_duration_seconds", "End-to-end analysis duration", DefaultAnalysisDurationBuckets),
		FinalScore:           c.RegisterHistogram("final_score", "Distribution of final suitability scores", FinalScoreBuckets),
		RecorderErrors:       c.RegisterCounter("recorder_errors_total", "Result recorder failures", "recorder"),
		BatchSize:            c.RegisterHistogram("batch_size", "Number of sites per batch request", BatchSizeBuckets),
		RemoteFetchDuration:  c.RegisterHistogram("remote_fetch_duration_seconds", "Raw-data source latency", DefaultFetchDurationBuckets, "source"),
		RemoteFetchErrors:    c.RegisterCounter("remote_fetch_errors_total", "Raw-data source failures", "source"),
		EnrichmentFallbacks:  c.RegisterCounter("enrichment_fallbacks_total", "Enrichment lookups answered with defaults", "source"),
		CacheOperations:      c.RegisterCounter("cache_operations_total", "Raw-data cache lookups", "result"),
		HTTPRequestsTotal:    c.RegisterCounter("http_requests_total", "HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration:  c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route"),
		HTTPInFlightRequests: c.RegisterGauge("http_in_flight_requests", "HTTP requests being served"),
		WorkerMessages:       c.RegisterCounter("worker_messages_total", "Queue messages handled by outcome", "outcome"),
		GRPCRequestsTotal:    c.RegisterCounter("grpc_requests_total", "gRPC calls", "service", "method", "code"),
		GRPCRequestDuration:  c.RegisterHistogram("grpc_request_duration_seconds", "gRPC call duration", DefaultHTTPDurationBuckets, "service", "method"),
	}
}

func (m *SolarMetrics) ObserveAnalysis(decision string, finalScore float64, elapsed time.Duration) {
	m.AnalysesTotal.WithLabelValues(decision).Inc()
	m.FinalScore.WithLabelValues().Observe(finalScore)
	m.AnalysisDuration.WithLabelValues().Observe(elapsed.Seconds())
}

func (m *SolarMetrics) ObserveFailure(stage string) {
	m.AnalysisFailures.WithLabelValues(stage).Inc()
}

func (m *SolarMetrics) ObserveRecorderError(recorder string) {
	m.RecorderErrors.WithLabelValues(recorder).Inc()
}

func (m *SolarMetrics) ObserveBatch(size int) {
	m.BatchSize.WithLabelValues().Observe(float64(size))
}

// ObserveFetch records one raw-data source call; err marks it failed.
func (m *SolarMetrics) ObserveFetch(source string, elapsed time.Duration, err error) {
	m.RemoteFetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		m.RemoteFetchErrors.WithLabelValues(source).Inc()
	}
}

func (m *SolarMetrics) ObserveFallback(source string) {
	m.EnrichmentFallbacks.WithLabelValues(source).Inc()
}

// ObserveCache records a cache lookup outcome: hit, miss or error.
func (m *SolarMetrics) ObserveCache(result string) {
	m.CacheOperations.WithLabelValues(result).Inc()
}

func (m *SolarMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *SolarMetrics) TrackInFlight() func() {
	g := m.HTTPInFlightRequests.WithLabelValues()
	g.Inc()
	return g.Dec
}

func (m *SolarMetrics) ObserveWorkerMessage(outcome string) {
	m.WorkerMessages.WithLabelValues(outcome).Inc()
}

// ObserveGRPCRequest records one unary call; code is the gRPC status name.
func (m *SolarMetrics) ObserveGRPCRequest(service, method, code string, elapsed time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}

//Personal.AI order the ending
