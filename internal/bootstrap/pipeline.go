package bootstrap

import (
	"context"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/application/ingestion"
	"github.com/turtacn/SolarSite-Intelligence/internal/config"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/geoanalysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/overpass"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/seismic"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/SolarSite-Intelligence/internal/interfaces/http/handlers"
)

// Metrics is the telemetry the pipeline reports; *prometheus.SolarMetrics
// implements it.
type Metrics interface {
	analysis.Metrics
	geoanalysis.CacheMetrics
}

// Pipeline is the assembled analysis stack. Optional parts are nil when
// their backend is not configured.
type Pipeline struct {
	Orchestrator *analysis.Orchestrator
	Parser       *ingestion.Parser
	Profile      string
	Recorders    []analysis.ResultRecorder

	History  analysis.HistoryStore
	Similar  analysis.SimilarityIndex
	Reports  *minio.Store
	Queue    analysis.RequestQueue
	Producer kafka.Publisher
}

// Archiver returns the upload archive, or nil without MinIO.
func (p *Pipeline) Archiver() handlers.UploadArchiver {
	if p.Reports == nil {
		return nil
	}
	return p.Reports
}

// NewPipeline builds the orchestrator over the remote analysis service,
// Overpass and the seismic zone map, recording into every open backend of
// infra. infra and metrics may be nil.
func NewPipeline(ctx context.Context, cfg *config.Config, infra *Infrastructure, metrics Metrics, logger logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if infra == nil {
		infra = &Infrastructure{logger: logger}
	}

	scorer, profile, err := suitability.LoadProfile(cfg.Analysis.ProfilePath)
	if err != nil {
		return nil, err
	}
	logger.Info("scoring profile loaded",
		logging.String("profile", profile),
		logging.Int("parameters", scorer.Parameters().Len()))

	remote, err := newRemote(cfg, infra, metrics, logger)
	if err != nil {
		return nil, err
	}

	gopts := []analysis.GathererOption{
		analysis.WithInfrastructure(overpass.NewClient(cfg.Overpass, overpass.WithLogger(logger))),
		analysis.WithSeismic(seismic.Load(cfg.Seismic.ZonesFile, cfg.Seismic.DefaultZone, logger)),
		analysis.WithGathererLogger(logger),
		analysis.WithBranchTimeout(cfg.Analysis.BranchTimeout),
	}
	if metrics != nil {
		gopts = append(gopts, analysis.WithGathererMetrics(metrics))
	}
	gatherer, err := analysis.NewGatherer(remote, gopts...)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Parser:  ingestion.NewParser(cfg.Analysis.MaxSitesPerUpload, logger),
		Profile: profile,
	}
	if err := p.wireBackends(ctx, cfg, infra, scorer.Parameters().Len(), logger); err != nil {
		return nil, err
	}

	oopts := []analysis.Option{
		analysis.WithAggregator(suitability.NewAggregator(scorer)),
		analysis.WithMaxArea(cfg.Analysis.MaxArea),
		analysis.WithMaxSubAreas(cfg.Analysis.MaxSubAreas),
		analysis.WithConcurrency(cfg.Analysis.BatchConcurrency),
		analysis.WithRecorders(p.Recorders...),
		analysis.WithLogger(logger),
	}
	if metrics != nil {
		oopts = append(oopts, analysis.WithMetrics(metrics))
	}
	p.Orchestrator, err = analysis.NewOrchestrator(gatherer, oopts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newRemote returns the analysis service client, behind the Redis cache
// when one is open.
func newRemote(cfg *config.Config, infra *Infrastructure, metrics Metrics, logger logging.Logger) (analysis.RemoteAnalyzer, error) {
	client, err := geoanalysis.NewClient(cfg.GeoAnalysis, geoanalysis.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if infra.Redis == nil {
		return client, nil
	}
	cache := redis.NewRedisCache(infra.Redis, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix+"geoanalysis:"),
		redis.WithDefaultTTL(cfg.Redis.CacheTTL),
	)
	var cm geoanalysis.CacheMetrics
	if metrics != nil {
		cm = metrics
	}
	return geoanalysis.NewCachedAnalyzer(client, cache, cfg.Redis.CacheTTL, cm, logger), nil
}

func (p *Pipeline) wireBackends(ctx context.Context, cfg *config.Config, infra *Infrastructure, dim int, logger logging.Logger) error {
	if infra.Postgres != nil {
		repo := repositories.NewAnalysisRepo(infra.Postgres, logger)
		p.Recorders = append(p.Recorders, repo)
		p.History = repo
	}
	if infra.Pool != nil {
		p.Recorders = append(p.Recorders, repositories.NewSubAreaWriter(infra.Pool, logger))
	}
	if infra.Producer != nil {
		p.Producer = infra.Producer
		p.Recorders = append(p.Recorders, kafka.NewEventRecorder(infra.Producer, cfg.Kafka.CompletedTopic))
		p.Queue = kafka.NewRequestQueue(infra.Producer, cfg.Kafka.RequestedTopic)
	}
	if infra.MinIO != nil {
		p.Reports = minio.NewStore(infra.MinIO)
		p.Recorders = append(p.Recorders, p.Reports)
	}
	if infra.OpenSearch != nil {
		p.Recorders = append(p.Recorders, opensearch.NewIndexer(infra.OpenSearch))
		// The search index answers history queries ahead of Postgres.
		p.History = opensearch.NewSearcher(infra.OpenSearch)
	}
	if infra.Milvus != nil {
		if err := infra.Milvus.EnsureCollection(ctx, dim); err != nil {
			return err
		}
		idx := milvus.NewVectorIndex(infra.Milvus, dim)
		p.Recorders = append(p.Recorders, idx)
		p.Similar = idx
	}

	names := make([]string, len(p.Recorders))
	for i, r := range p.Recorders {
		names[i] = r.Name()
	}
	logger.Info("result recorders wired", logging.Any("recorders", names))
	return nil
}

//Personal.AI order the ending
