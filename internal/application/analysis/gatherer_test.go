package analysis

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

func fp(v float64) *float64 { return &v }

func TestNewGatherer_RequiresRemote(t *testing.T) {
	_, err := NewGatherer(nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestGatherer_MergesEnrichment(t *testing.T) {
	site := square("merge", 10, 20, 0.002)
	remoteRaw := optimalRaw().With(suitability.KeyProximityToRoads, 99).With(suitability.KeySeismicRisk, 0.9)

	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).Return(remoteRaw, nil)

	details := suitability.PowerLineDetails{
		AerialDistance: 3.5,
		RoadDistance:   fp(5.0),
		NearestPowerLine: &suitability.NearestPowerLine{
			Coordinates: orb.Point{10.01, 20.02},
			Voltage:     "220000",
		},
	}
	infra := new(mockInfra)
	infra.On("RoadDistance", mock.Anything, mock.AnythingOfType("orb.Point")).Return(1.5, nil)
	infra.On("PowerLine", mock.Anything, mock.AnythingOfType("orb.Point")).Return(details, nil)

	m := newCountingMetrics()
	g, err := NewGatherer(remote, WithInfrastructure(infra), WithSeismic(fixedZone(4)), WithGathererMetrics(m))
	require.NoError(t, err)

	raw, err := g.Fetch(context.Background(), site)
	require.NoError(t, err)

	roads, _ := raw.Value(suitability.KeyProximityToRoads)
	lines, _ := raw.Value(suitability.KeyProximityToLines)
	seismic, _ := raw.Value(suitability.KeySeismicRisk)
	assert.Equal(t, 1.5, roads)
	assert.Equal(t, 3.5, lines)
	assert.Equal(t, 0.24, seismic)
	require.NotNil(t, raw.PowerLineDetails)
	assert.Equal(t, "220000", raw.PowerLineDetails.NearestPowerLine.Voltage)
	assert.Equal(t, 5.0, *raw.PowerLineDetails.RoadDistance)

	ghi, _ := raw.Value(suitability.KeyGHI)
	assert.Equal(t, 5.5, ghi, "remote values survive the merge")

	assert.Equal(t, 1, m.fetches[SourceRemote])
	assert.Equal(t, 1, m.fetches[SourceRoads])
	assert.Equal(t, 1, m.fetches[SourcePowerLine])
	assert.Empty(t, m.fallbacks)
}

func TestGatherer_InfrastructureFailuresUseDefaults(t *testing.T) {
	site := square("offline", 0, 0, 0.002)
	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).Return(optimalRaw(), nil)

	infra := new(mockInfra)
	infra.On("RoadDistance", mock.Anything, mock.Anything).Return(0.0, stderrors.New("overpass 504"))
	infra.On("PowerLine", mock.Anything, mock.Anything).Return(suitability.PowerLineDetails{}, stderrors.New("overpass 504"))

	m := newCountingMetrics()
	g, err := NewGatherer(remote, WithInfrastructure(infra), WithGathererMetrics(m))
	require.NoError(t, err)

	raw, err := g.Fetch(context.Background(), site)
	require.NoError(t, err)

	roads, _ := raw.Value(suitability.KeyProximityToRoads)
	lines, _ := raw.Value(suitability.KeyProximityToLines)
	seismic, _ := raw.Value(suitability.KeySeismicRisk)
	assert.Equal(t, DefaultRoadDistanceKm, roads)
	assert.Equal(t, DefaultPowerLineDistanceKm, lines)
	assert.Equal(t, suitability.SeismicZonePGA(suitability.DefaultSeismicZone), seismic)

	require.NotNil(t, raw.PowerLineDetails)
	assert.Nil(t, raw.PowerLineDetails.RoadDistance)
	assert.Equal(t, UnknownVoltage, raw.PowerLineDetails.NearestPowerLine.Voltage)
	assert.Equal(t, 1, m.fallbacks[SourceRoads])
	assert.Equal(t, 1, m.fallbacks[SourcePowerLine])
}

func TestGatherer_NoPowerLineFound(t *testing.T) {
	site := square("remote-area", 0, 0, 0.002)
	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).Return(optimalRaw(), nil)

	infra := new(mockInfra)
	infra.On("RoadDistance", mock.Anything, mock.Anything).Return(DefaultRoadDistanceKm, nil)
	infra.On("PowerLine", mock.Anything, mock.Anything).
		Return(suitability.PowerLineDetails{AerialDistance: DefaultPowerLineDistanceKm}, nil)

	g, err := NewGatherer(remote, WithInfrastructure(infra))
	require.NoError(t, err)

	raw, err := g.Fetch(context.Background(), site)
	require.NoError(t, err)
	lines, _ := raw.Value(suitability.KeyProximityToLines)
	assert.Equal(t, DefaultPowerLineDistanceKm, lines)
	assert.Nil(t, raw.PowerLineDetails.NearestPowerLine)
}

func TestGatherer_RemoteFailureIsCritical(t *testing.T) {
	site := square("critical", 0, 0, 0.002)
	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).
		Return(suitability.RawParameterData{}, errors.New(errors.ErrCodeAnalysisServiceFailed, "remote 500"))

	infra := new(mockInfra)
	infra.On("RoadDistance", mock.Anything, mock.Anything).Return(2.0, nil).Maybe()
	infra.On("PowerLine", mock.Anything, mock.Anything).Return(suitability.PowerLineDetails{AerialDistance: 2}, nil).Maybe()

	g, err := NewGatherer(remote, WithInfrastructure(infra))
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), site)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnalysisServiceFailed))
}

func TestGatherer_WithoutInfrastructure(t *testing.T) {
	site := square("bare", 0, 0, 0.002)
	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).Return(optimalRaw(), nil)

	g, err := NewGatherer(remote, WithSeismic(fixedZone(3)))
	require.NoError(t, err)

	raw, err := g.Fetch(context.Background(), site)
	require.NoError(t, err)
	roads, _ := raw.Value(suitability.KeyProximityToRoads)
	seismic, _ := raw.Value(suitability.KeySeismicRisk)
	assert.Equal(t, DefaultRoadDistanceKm, roads)
	assert.Equal(t, 0.16, seismic)
}

func TestGatherer_AsOrchestratorProvider(t *testing.T) {
	site := square("end-to-end", 0, 0, 0.002)
	remote := new(mockRemote)
	remote.On("Analyze", mock.Anything, site.Polygon).Return(optimalRaw(), nil)

	g, err := NewGatherer(remote, WithSeismic(fixedZone(2)))
	require.NoError(t, err)
	o := newTestOrchestrator(t, g)

	_, res, err := o.Analyze(context.Background(), NewSession(Options{LandOwnership: suitability.OwnershipPrivate}), site)
	require.NoError(t, err)

	own, ok := res.Parameter(suitability.KeyLandOwnership)
	require.True(t, ok)
	assert.Equal(t, 5.0, own.Score)
	roads, ok := res.Parameter(suitability.KeyProximityToRoads)
	require.True(t, ok)
	assert.Equal(t, DefaultRoadDistanceKm, *roads.RawValue)
}

//Personal.AI order the ending
