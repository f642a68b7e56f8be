package kafka

import (
	"context"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
)

// EventRecorder publishes an AnalysisCompleted event for every result.
type EventRecorder struct {
	publisher Publisher
	topic     string
}

var _ analysis.ResultRecorder = (*EventRecorder)(nil)

func NewEventRecorder(p Publisher, topic string) *EventRecorder {
	if topic == "" {
		topic = TopicAnalysisCompleted
	}
	return &EventRecorder{publisher: p, topic: topic}
}

func (r *EventRecorder) Name() string { return "kafka" }

// Record implements analysis.ResultRecorder. Events are keyed by session so
// one session's results stay ordered.
func (r *EventRecorder) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	env, err := NewEventEnvelope(EventAnalysisCompleted, EventSource, CompletedPayload(res))
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(r.topic, res.SessionID)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, msg)
}

// CompletedPayload summarises res for the completed topic.
func CompletedPayload(res *analysis.AreaAnalysisResult) AnalysisCompletedPayload {
	return AnalysisCompletedPayload{
		AnalysisID:   res.ID,
		SessionID:    res.SessionID,
		Name:         res.Name,
		FinalScore:   res.FinalScore,
		Decision:     string(res.Decision),
		AreaHectares: res.AreaHectares,
		SubAreaCount: len(res.SubAreas),
		Suggestions:  res.Suggestions,
		AnalyzedAt:   res.AnalyzedAt,
	}
}

// RequestQueue enqueues analysis requests on the requested topic.
type RequestQueue struct {
	publisher Publisher
	topic     string
}

var _ analysis.RequestQueue = (*RequestQueue)(nil)

func NewRequestQueue(p Publisher, topic string) *RequestQueue {
	if topic == "" {
		topic = TopicAnalysisRequested
	}
	return &RequestQueue{publisher: p, topic: topic}
}

// Enqueue implements analysis.RequestQueue.
func (q *RequestQueue) Enqueue(ctx context.Context, req analysis.QueuedRequest) (string, error) {
	return RequestAnalysis(ctx, q.publisher, q.topic, AnalysisRequestedPayload{
		RequestID:       req.RequestID,
		SessionID:       req.SessionID,
		Name:            req.Name,
		Geometry:        req.Geometry,
		LandOwnership:   req.LandOwnership,
		SplitLargeAreas: req.SplitLargeAreas,
		MaxArea:         req.MaxArea,
	})
}

//Personal.AI order the ending
