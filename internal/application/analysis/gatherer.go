package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Enrichment defaults used when a lookup fails or finds nothing.
const (
	DefaultRoadDistanceKm      = 10.0
	DefaultPowerLineDistanceKm = 25.0
	UnknownVoltage             = "Unknown"
)

// Telemetry source labels.
const (
	SourceRemote    = "remote"
	SourceRoads     = "overpass_roads"
	SourcePowerLine = "overpass_power"
	SourceSeismic   = "seismic"
)

// Gatherer is the RawDataProvider used in production. For each site it runs
// the remote analysis and both infrastructure lookups in parallel, then adds
// the seismic value of the centroid. Only the remote analysis is critical.
type Gatherer struct {
	remote        RemoteAnalyzer
	infra         InfrastructureLocator
	seismic       SeismicLocator
	logger        logging.Logger
	metrics       Metrics
	branchTimeout time.Duration
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

func WithInfrastructure(l InfrastructureLocator) GathererOption {
	return func(g *Gatherer) { g.infra = l }
}

func WithSeismic(s SeismicLocator) GathererOption {
	return func(g *Gatherer) { g.seismic = s }
}

func WithGathererLogger(l logging.Logger) GathererOption {
	return func(g *Gatherer) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithGathererMetrics(m Metrics) GathererOption {
	return func(g *Gatherer) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithBranchTimeout caps each infrastructure lookup. Zero disables the cap.
func WithBranchTimeout(d time.Duration) GathererOption {
	return func(g *Gatherer) { g.branchTimeout = d }
}

// NewGatherer builds a Gatherer around the remote analysis service.
func NewGatherer(remote RemoteAnalyzer, opts ...GathererOption) (*Gatherer, error) {
	if remote == nil {
		return nil, errors.InvalidParam("remote analyzer is required")
	}
	g := &Gatherer{
		remote:  remote,
		logger:  logging.NewNopLogger(),
		metrics: NoopMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("gatherer")
	return g, nil
}

// Fetch implements RawDataProvider.
func (g *Gatherer) Fetch(ctx context.Context, site Site) (suitability.RawParameterData, error) {
	centroid := site.Polygon.Centroid()
	log := g.logger.With(logging.Site(site.Name))

	var (
		raw       suitability.RawParameterData
		roadKm    = DefaultRoadDistanceKm
		powerLine = fallbackPowerLine()
		mu        sync.Mutex
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		start := time.Now()
		r, err := g.remote.Analyze(egCtx, site.Polygon)
		g.metrics.ObserveFetch(SourceRemote, time.Since(start), err)
		if err != nil {
			return err
		}
		mu.Lock()
		raw = r
		mu.Unlock()
		return nil
	})

	if g.infra != nil {
		eg.Go(func() error {
			bctx, cancel := g.branchContext(egCtx)
			defer cancel()
			start := time.Now()
			km, err := g.infra.RoadDistance(bctx, centroid)
			g.metrics.ObserveFetch(SourceRoads, time.Since(start), err)
			if err != nil {
				g.metrics.ObserveFallback(SourceRoads)
				log.Warn("road distance lookup failed, using default",
					logging.Stage(string(StageEnrich)), logging.Float64("default_km", DefaultRoadDistanceKm), logging.Err(err))
				return nil
			}
			mu.Lock()
			roadKm = km
			mu.Unlock()
			return nil
		})

		eg.Go(func() error {
			bctx, cancel := g.branchContext(egCtx)
			defer cancel()
			start := time.Now()
			d, err := g.infra.PowerLine(bctx, centroid)
			g.metrics.ObserveFetch(SourcePowerLine, time.Since(start), err)
			if err != nil {
				g.metrics.ObserveFallback(SourcePowerLine)
				log.Warn("power line lookup failed, using default",
					logging.Stage(string(StageEnrich)), logging.Float64("default_km", DefaultPowerLineDistanceKm), logging.Err(err))
				return nil
			}
			mu.Lock()
			powerLine = d
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return suitability.RawParameterData{}, err
	}

	zone := suitability.DefaultSeismicZone
	if g.seismic != nil {
		zone = g.seismic.ZoneAt(centroid)
	}

	lines := powerLine.AerialDistance
	if lines <= 0 && powerLine.NearestPowerLine == nil {
		lines = DefaultPowerLineDistanceKm
	}

	out := raw.
		With(suitability.KeyProximityToRoads, roadKm).
		With(suitability.KeyProximityToLines, lines).
		With(suitability.KeySeismicRisk, suitability.SeismicZonePGA(zone)).
		WithPowerLineDetails(powerLine)

	log.Debug("raw data gathered",
		logging.Float64("road_km", roadKm),
		logging.Float64("line_km", lines),
		logging.Int("seismic_zone", zone),
	)
	return out, nil
}

func (g *Gatherer) branchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.branchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.branchTimeout)
}

func fallbackPowerLine() suitability.PowerLineDetails {
	return suitability.PowerLineDetails{
		AerialDistance:   DefaultPowerLineDistanceKm,
		NearestPowerLine: &suitability.NearestPowerLine{Coordinates: orb.Point{0, 0}, Voltage: UnknownVoltage},
	}
}

//Personal.AI order the ending
