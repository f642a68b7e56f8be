package main

import (
	"context"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Outcomes reported per consumed message.
const (
	outcomeProcessed = "processed"
	outcomePartial   = "partial"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
	outcomeDuplicate = "duplicate"
	outcomeSkipped   = "skipped"
)

const lockPrefix = "analysis:request:"

type batchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, sess analysis.AnalysisSession, sites []analysis.Site) (analysis.AnalysisSession, []analysis.BatchItem)
}

type geoJSONParser interface {
	ParseGeoJSON(data []byte) ([]analysis.Site, error)
}

type workerMetrics interface {
	ObserveWorkerMessage(outcome string)
}

type noopWorkerMetrics struct{}

func (noopWorkerMetrics) ObserveWorkerMessage(string) {}

// requestHandler analyzes queued boundaries. A returned error makes the
// consumer retry the message and finally dead-letter it; malformed messages
// are dropped since no retry can fix them.
type requestHandler struct {
	analyzer batchAnalyzer
	parser   geoJSONParser
	locks    redis.LockFactory
	lockTTL  time.Duration
	timeout  time.Duration
	defaults analysis.Options
	metrics  workerMetrics
	logger   logging.Logger
}

func newRequestHandler(a batchAnalyzer, p geoJSONParser, defaults analysis.Options, logger logging.Logger) *requestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &requestHandler{
		analyzer: a,
		parser:   p,
		defaults: defaults,
		metrics:  noopWorkerMetrics{},
		logger:   logger.Named("worker"),
	}
}

// Handle is a kafka.MessageHandler.
func (h *requestHandler) Handle(ctx context.Context, msg *kafka.Message) (err error) {
	env, perr := kafka.MessageToEventEnvelope(msg)
	if perr != nil {
		return h.reject(msg, "", perr)
	}
	if env.EventType != kafka.EventAnalysisRequested {
		h.logger.Debug("ignoring event", logging.String("event_type", env.EventType))
		h.metrics.ObserveWorkerMessage(outcomeSkipped)
		return nil
	}
	var req kafka.AnalysisRequestedPayload
	if perr := env.DecodePayload(&req); perr != nil {
		return h.reject(msg, "", perr)
	}
	log := h.logger.With(logging.String("request_id", req.RequestID))

	sites, opts, perr := h.prepare(req)
	if perr != nil {
		return h.reject(msg, req.RequestID, perr)
	}

	if h.locks != nil && req.RequestID != "" {
		mu := h.locks.NewMutex(lockPrefix+req.RequestID, redis.WithLockTTL(h.lockTTL))
		ok, lerr := mu.TryLock(ctx)
		if lerr != nil {
			h.metrics.ObserveWorkerMessage(outcomeFailed)
			return errors.Wrap(lerr, errors.ErrCodeCacheError, "claim analysis request")
		}
		if !ok {
			log.Info("request already claimed, skipping")
			h.metrics.ObserveWorkerMessage(outcomeDuplicate)
			return nil
		}
		// The claim stays until its TTL after success so redeliveries are
		// skipped; a failed attempt frees it for the retry.
		defer func() {
			if err == nil {
				return
			}
			if uerr := mu.Unlock(context.Background()); uerr != nil {
				log.Warn("failed to release request claim", logging.Err(uerr))
			}
		}()
	}

	return h.analyze(ctx, log, req, sites, opts)
}

func (h *requestHandler) analyze(ctx context.Context, log logging.Logger, req kafka.AnalysisRequestedPayload, sites []analysis.Site, opts analysis.Options) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	sess := analysis.NewSession(opts)
	if req.SessionID != "" {
		sess.ID = req.SessionID
	}
	start := time.Now()
	sess, items := h.analyzer.AnalyzeBatch(ctx, sess, sites)
	sum := sess.Summary()

	if sum.Count == 0 {
		h.metrics.ObserveWorkerMessage(outcomeFailed)
		for _, it := range items {
			if it.Err != nil {
				return it.Err
			}
		}
		return errors.New(errors.ErrCodeAnalysisServiceFailed, "no site analyzed")
	}

	outcome := outcomeProcessed
	if sum.Failed > 0 {
		outcome = outcomePartial
	}
	h.metrics.ObserveWorkerMessage(outcome)
	log.Info("analysis request processed",
		logging.SessionID(sess.ID),
		logging.Int("analyzed", sum.Count),
		logging.Int("failed", sum.Failed),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// prepare parses the geometry and resolves options against the defaults.
func (h *requestHandler) prepare(req kafka.AnalysisRequestedPayload) ([]analysis.Site, analysis.Options, error) {
	opts := h.defaults
	if req.LandOwnership != "" {
		o, err := suitability.ParseLandOwnership(req.LandOwnership)
		if err != nil {
			return nil, opts, err
		}
		opts.LandOwnership = o
	}
	if req.SplitLargeAreas {
		opts.SplitLargeAreas = true
	}
	if err := partition.ValidateMaxArea(req.MaxArea); err != nil {
		return nil, opts, err
	}
	opts.MaxArea = req.MaxArea

	if len(req.Geometry) == 0 {
		return nil, opts, errors.InvalidParam("geometry is required")
	}
	sites, err := h.parser.ParseGeoJSON(req.Geometry)
	if err != nil {
		return nil, opts, err
	}
	if req.Name != "" && len(sites) == 1 {
		sites[0].Name = req.Name
	}
	return sites, opts, nil
}

func (h *requestHandler) reject(msg *kafka.Message, requestID string, err error) error {
	h.logger.Warn("dropping unprocessable message",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.String("request_id", requestID),
		logging.Err(err))
	h.metrics.ObserveWorkerMessage(outcomeRejected)
	return nil
}

//Personal.AI order the ending
