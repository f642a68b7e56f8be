package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// DefaultConcurrency bounds the number of sites analyzed at once in a batch.
const DefaultConcurrency = 4

// Orchestrator runs the per-site sequence fetch → aggregate → partition →
// record. It keeps no per-request state; everything a request accumulates
// travels in the AnalysisSession.
type Orchestrator struct {
	provider    RawDataProvider
	aggregator  *suitability.Aggregator
	partitioner *partition.Partitioner
	recorders   []ResultRecorder
	logger      logging.Logger
	metrics     Metrics
	concurrency int
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithAggregator(a *suitability.Aggregator) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.aggregator = a
		}
	}
}

// WithMaxArea sets the default partition threshold in squared degrees.
func WithMaxArea(maxArea float64) Option {
	return func(o *Orchestrator) { o.partitioner = o.partitioner.WithMaxArea(maxArea) }
}

// WithMaxSubAreas caps the display sub-areas of one site.
func WithMaxSubAreas(n int) Option {
	return func(o *Orchestrator) { o.partitioner = o.partitioner.WithMaxCells(n) }
}

func WithRecorders(rs ...ResultRecorder) Option {
	return func(o *Orchestrator) { o.recorders = append(o.recorders, rs...) }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithConcurrency bounds batch parallelism; values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator builds an orchestrator around provider.
func NewOrchestrator(provider RawDataProvider, opts ...Option) (*Orchestrator, error) {
	if provider == nil {
		return nil, errors.InvalidParam("raw data provider is required")
	}
	o := &Orchestrator{
		provider:    provider,
		aggregator:  suitability.NewAggregator(nil),
		partitioner: partition.NewPartitioner(partition.DefaultMaxArea),
		logger:      logging.NewNopLogger(),
		metrics:     NoopMetrics(),
		concurrency: DefaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("analysis")
	return o, nil
}

// Parameters returns the active parameter table.
func (o *Orchestrator) Parameters() *suitability.ParameterSet {
	return o.aggregator.Scorer().Parameters()
}

// Aggregator exposes the scoring pipeline for offline scoring.
func (o *Orchestrator) Aggregator() *suitability.Aggregator { return o.aggregator }

// Analyze analyzes one site within sess and returns the updated session.
// On failure the session records the failure and the error is a *StageError.
func (o *Orchestrator) Analyze(ctx context.Context, sess AnalysisSession, site Site) (AnalysisSession, *AreaAnalysisResult, error) {
	res, err := o.analyze(ctx, sess, site)
	if err != nil {
		return sess.WithFailure(failureFor(site, err)), nil, err
	}
	return sess.WithResult(res), res, nil
}

func (o *Orchestrator) analyze(ctx context.Context, sess AnalysisSession, site Site) (*AreaAnalysisResult, error) {
	start := time.Now()
	log := o.logger.With(logging.SessionID(sess.ID), logging.Site(site.Name))

	fail := func(err error) (*AreaAnalysisResult, error) {
		stage, _ := StageOf(err)
		o.metrics.ObserveFailure(string(stage))
		log.Warn("site analysis failed", logging.Stage(string(stage)), logging.Err(err))
		return nil, err
	}

	if err := site.Polygon.Validate(); err != nil {
		return fail(stageError(site.Name, StageValidate, err, errors.ErrCodeBoundaryInvalid, "invalid site boundary"))
	}
	if err := partition.ValidateMaxArea(sess.Options.MaxArea); err != nil {
		return fail(stageError(site.Name, StagePartition, err, errors.CodeInvalidParam, "invalid partition threshold"))
	}
	if err := ctx.Err(); err != nil {
		return fail(stageError(site.Name, StageFetch, err, errors.ErrCodeAnalysisCancelled, "analysis cancelled"))
	}

	raw, err := o.provider.Fetch(ctx, site)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(err, errors.ErrCodeAnalysisCancelled, "analysis cancelled")
		}
		return fail(stageError(site.Name, StageFetch, err, errors.ErrCodeAnalysisServiceFailed, "remote analysis failed"))
	}

	assessment := o.aggregator.Aggregate(raw, sess.Options.LandOwnership)

	subAreas := []geometry.Polygon{site.Polygon}
	if sess.Options.SplitLargeAreas {
		p := o.partitioner
		if sess.Options.MaxArea > 0 {
			p = p.WithMaxArea(sess.Options.MaxArea)
		}
		subAreas = p.Partition(site.Polygon)
	}

	res := &AreaAnalysisResult{
		ID:            uuid.NewString(),
		SessionID:     sess.ID,
		Name:          site.Name,
		Polygon:       site.Polygon,
		AreaHectares:  site.Polygon.AreaHectares(),
		RawData:       raw,
		FinalScore:    assessment.FinalScore,
		Decision:      assessment.Decision,
		Suggestions:   assessment.Suggestions,
		Parameters:    assessment.Parameters,
		SubAreas:      subAreas,
		LandOwnership: sess.Options.LandOwnership,
		AnalyzedAt:    o.now(),
	}

	o.record(ctx, log, res)

	elapsed := time.Since(start)
	o.metrics.ObserveAnalysis(string(res.Decision), res.FinalScore, elapsed)
	log.Info("site analyzed",
		logging.AnalysisID(res.ID),
		logging.Float64("final_score", res.FinalScore),
		logging.String("decision", string(res.Decision)),
		logging.Int("sub_areas", len(res.SubAreas)),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, log logging.Logger, res *AreaAnalysisResult) {
	for _, r := range o.recorders {
		if err := r.Record(ctx, res); err != nil {
			o.metrics.ObserveRecorderError(r.Name())
			log.Error("result recorder failed",
				logging.String("recorder", r.Name()),
				logging.AnalysisID(res.ID),
				logging.Stage(string(StageRecord)),
				logging.Err(err),
			)
		}
	}
}

// BatchItem is the outcome for one site of a batch, in input order.
type BatchItem struct {
	Site   Site
	Result *AreaAnalysisResult
	Err    error
}

// AnalyzeBatch analyzes sites concurrently. A failing site never affects the
// others; items come back in input order and the session lists results and
// failures in that order too.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, sess AnalysisSession, sites []Site) (AnalysisSession, []BatchItem) {
	o.metrics.ObserveBatch(len(sites))
	items := make([]BatchItem, len(sites))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, site := range sites {
		i, site := i, site
		items[i].Site = site
		g.Go(func() error {
			items[i].Result, items[i].Err = o.analyze(ctx, sess, site)
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range items {
		if it.Err != nil {
			sess = sess.WithFailure(failureFor(it.Site, it.Err))
			continue
		}
		sess = sess.WithResult(it.Result)
	}
	return sess, items
}

//Personal.AI order the ending
