package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Fetch(ctx context.Context, site Site) (suitability.RawParameterData, error) {
	args := m.Called(ctx, site)
	return args.Get(0).(suitability.RawParameterData), args.Error(1)
}

type mockRemote struct{ mock.Mock }

func (m *mockRemote) Analyze(ctx context.Context, p geometry.Polygon) (suitability.RawParameterData, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(suitability.RawParameterData), args.Error(1)
}

type mockInfra struct{ mock.Mock }

func (m *mockInfra) RoadDistance(ctx context.Context, p orb.Point) (float64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockInfra) PowerLine(ctx context.Context, p orb.Point) (suitability.PowerLineDetails, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(suitability.PowerLineDetails), args.Error(1)
}

type fixedZone int

func (z fixedZone) ZoneAt(orb.Point) int { return int(z) }

type mockRecorder struct {
	mock.Mock
	name string
}

func (m *mockRecorder) Name() string { return m.name }

func (m *mockRecorder) Record(ctx context.Context, r *AreaAnalysisResult) error {
	return m.Called(ctx, r).Error(0)
}

// countingMetrics tallies calls by label.
type countingMetrics struct {
	mu        sync.Mutex
	analyses  map[string]int
	failures  map[string]int
	recorders map[string]int
	fetches   map[string]int
	fallbacks map[string]int
	batches   []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		analyses:  map[string]int{},
		failures:  map[string]int{},
		recorders: map[string]int{},
		fetches:   map[string]int{},
		fallbacks: map[string]int{},
	}
}

func (c *countingMetrics) ObserveAnalysis(decision string, _ float64, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyses[decision]++
}

func (c *countingMetrics) ObserveFailure(stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[stage]++
}

func (c *countingMetrics) ObserveRecorderError(recorder string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorders[recorder]++
}

func (c *countingMetrics) ObserveBatch(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, size)
}

func (c *countingMetrics) ObserveFetch(source string, _ time.Duration, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches[source]++
}

func (c *countingMetrics) ObserveFallback(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks[source]++
}

func square(name string, minX, minY, size float64) Site {
	return Site{
		Name: name,
		Polygon: geometry.NewPolygon(
			orb.Point{minX, minY},
			orb.Point{minX + size, minY},
			orb.Point{minX + size, minY + size},
			orb.Point{minX, minY + size},
		),
	}
}

func optimalRaw() suitability.RawParameterData {
	return suitability.NewRawParameterData(map[suitability.ParameterKey]float64{
		suitability.KeySlope:             5.0,
		suitability.KeyGHI:               5.5,
		suitability.KeyTemperature:       25.0,
		suitability.KeyElevation:         100.0,
		suitability.KeyLandCover:         float64(suitability.ClassGrassland),
		suitability.KeyProximityToLines:  1.0,
		suitability.KeyProximityToRoads:  1.0,
		suitability.KeyWaterAvailability: 2.0,
		suitability.KeySoilStability:     100.0,
		suitability.KeyShading:           200.0,
		suitability.KeyDust:              0.1,
		suitability.KeyWindSpeed:         20.0,
		suitability.KeySeismicRisk:       0.1,
		suitability.KeyFloodRisk:         0.0,
	}).WithNDVI(0.3)
}

//Personal.AI order the ending
