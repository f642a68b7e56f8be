// Package analysis orchestrates site suitability analyses: it gathers raw
// parameter values for a site boundary, scores them, partitions oversized
// boundaries into display sub-areas and hands the result to recorders.
package analysis

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
)

// Site is one boundary to analyze, tagged with its display identifier.
type Site struct {
	Name    string           `json:"name"`
	Polygon geometry.Polygon `json:"polygon"`

	// AutoNamed marks a name assigned by the parser rather than read from the file.
	AutoNamed bool `json:"-"`
}

// RawDataProvider supplies the raw parameter values for a site.
type RawDataProvider interface {
	Fetch(ctx context.Context, site Site) (suitability.RawParameterData, error)
}

// RemoteAnalyzer is the remote geospatial analysis service.
type RemoteAnalyzer interface {
	Analyze(ctx context.Context, polygon geometry.Polygon) (suitability.RawParameterData, error)
}

// InfrastructureLocator measures distances from a point to the road and
// power networks. An empty neighbourhood is not an error: implementations
// answer with the documented defaults.
type InfrastructureLocator interface {
	RoadDistance(ctx context.Context, p orb.Point) (float64, error)
	PowerLine(ctx context.Context, p orb.Point) (suitability.PowerLineDetails, error)
}

// SeismicLocator resolves the seismic zone containing a point.
type SeismicLocator interface {
	ZoneAt(p orb.Point) int
}

// ResultRecorder receives every successful analysis. Failures are reported
// but never fail the analysis.
type ResultRecorder interface {
	Name() string
	Record(ctx context.Context, result *AreaAnalysisResult) error
}

// Metrics receives analysis telemetry.
type Metrics interface {
	ObserveAnalysis(decision string, finalScore float64, elapsed time.Duration)
	ObserveFailure(stage string)
	ObserveRecorderError(recorder string)
	ObserveBatch(size int)
	ObserveFetch(source string, elapsed time.Duration, err error)
	ObserveFallback(source string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAnalysis(string, float64, time.Duration) {}
func (noopMetrics) ObserveFailure(string)                          {}
func (noopMetrics) ObserveRecorderError(string)                    {}
func (noopMetrics) ObserveBatch(int)                               {}
func (noopMetrics) ObserveFetch(string, time.Duration, error)      {}
func (noopMetrics) ObserveFallback(string)                         {}

// NoopMetrics discards all telemetry.
func NoopMetrics() Metrics { return noopMetrics{} }

//Personal.AI order the ending
