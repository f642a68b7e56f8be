package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const (
	TopicAnalysisRequested  = "solarsite.analysis.requested"
	TopicAnalysisCompleted  = "solarsite.analysis.completed"
	TopicAnalysisDeadLetter = "solarsite.analysis.requested.dlq"
)

// Event types carried in EventEnvelope.EventType.
const (
	EventAnalysisRequested = "analysis.requested"
	EventAnalysisCompleted = "analysis.completed"
)

// EventSource identifies this service in envelopes.
const EventSource = "solarsite"

// EventEnvelope wraps every event payload.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AnalysisRequestedPayload queues one boundary for analysis. Geometry is a
// GeoJSON Polygon, Feature or FeatureCollection.
type AnalysisRequestedPayload struct {
	RequestID       string          `json:"requestId"`
	SessionID       string          `json:"sessionId,omitempty"`
	Name            string          `json:"name,omitempty"`
	Geometry        json.RawMessage `json:"geometry"`
	LandOwnership   string          `json:"landOwnership,omitempty"`
	SplitLargeAreas bool            `json:"splitLargeAreas,omitempty"`
	MaxArea         float64         `json:"maxArea,omitempty"`
}

// AnalysisCompletedPayload announces a recorded analysis.
type AnalysisCompletedPayload struct {
	AnalysisID   string    `json:"analysisId"`
	SessionID    string    `json:"sessionId"`
	Name         string    `json:"name"`
	FinalScore   float64   `json:"finalScore"`
	Decision     string    `json:"decision"`
	AreaHectares float64   `json:"areaHectares"`
	SubAreaCount int       `json:"subAreaCount"`
	Suggestions  []string  `json:"suggestions,omitempty"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage serialises the envelope for topic.
func (e *EventEnvelope) ToMessage(topic string, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	msg := &ProducerMessage{Topic: topic, Value: val, Headers: headers, Timestamp: e.Timestamp}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// MessageToEventEnvelope parses a consumed message.
func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// RequestAnalysis publishes an analysis request keyed by its request id. A
// missing request id is generated and returned.
func RequestAnalysis(ctx context.Context, p Publisher, topic string, req AnalysisRequestedPayload) (string, error) {
	if len(req.Geometry) == 0 {
		return "", errors.New(errors.ErrCodeValidation, "geometry required")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	env, err := NewEventEnvelope(EventAnalysisRequested, EventSource, req)
	if err != nil {
		return "", err
	}
	msg, err := env.ToMessage(topic, req.RequestID)
	if err != nil {
		return "", err
	}
	if err := p.Publish(ctx, msg); err != nil {
		return "", err
	}
	return req.RequestID, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the service topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0")
	}
	if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
		return nil
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create topic").WithDetail("topic=" + cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every missing topic.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error { return m.conn.Close() }

const day = int64(24 * time.Hour / time.Millisecond)

// DefaultTopics lists the topics the service uses.
func DefaultTopics(cfg Config) []TopicConfig {
	return []TopicConfig{
		{Name: cfg.RequestedTopic, NumPartitions: cfg.NumPartitions, ReplicationFactor: cfg.ReplicationFactor, RetentionMs: 7 * day},
		{Name: cfg.CompletedTopic, NumPartitions: cfg.NumPartitions, ReplicationFactor: cfg.ReplicationFactor, RetentionMs: 30 * day},
		{Name: cfg.DeadLetterTopic, NumPartitions: 1, ReplicationFactor: cfg.ReplicationFactor, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
