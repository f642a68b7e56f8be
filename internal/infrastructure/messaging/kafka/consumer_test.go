package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
)

// mockKafkaReader serves queued messages, then blocks until cancelled.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockKafkaReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *capturePublisher) published() []*ProducerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ProducerMessage(nil), c.msgs...)
}

func newTestConsumer(r ReaderInterface, retries int) *Consumer {
	cfg := ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group",
		Topics:  []string{"requests"},
		RetryConfig: RetryConfig{
			MaxRetries:      retries,
			RetryBackoff:    time.Millisecond,
			MaxRetryBackoff: 2 * time.Millisecond,
			DeadLetterTopic: "requests.dlq",
		},
	}
	return newConsumerWithReader(r, cfg, logging.NewNopLogger())
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g", Topics: []string{"t"}}
	assert.NoError(t, ValidateConsumerConfig(valid))

	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"no topics", func(c *ConsumerConfig) { c.Topics = nil }},
		{"bad offset reset", func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" }},
		{"sasl without credentials", func(c *ConsumerConfig) { c.SASLEnabled = true }},
		{"negative retries", func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, ValidateConsumerConfig(cfg))
		})
	}
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{{
		Topic:   "requests",
		Offset:  7,
		Value:   []byte("payload"),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("analysis.requested")}},
	}}}
	c := newTestConsumer(r, 0)

	got := make(chan *Message, 1)
	c.Subscribe("requests", func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))

	msg := <-got
	assert.Equal(t, int64(7), msg.Offset)
	assert.Equal(t, "analysis.requested", msg.Headers["event_type"])
	assert.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
	assert.Equal(t, int64(1), c.GetMetrics().MessagesProcessed.Load())
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{{Topic: "requests", Value: []byte("x")}}}
	c := newTestConsumer(r, 3)
	dlq := &capturePublisher{}
	c.SetDeadLetterPublisher(dlq)

	var calls atomic.Int32
	c.Subscribe("requests", func(context.Context, *Message) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), c.GetMetrics().MessagesRetried.Load())
	assert.Empty(t, dlq.published())
}

func TestConsumer_DeadLettersAfterRetries(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{{
		Topic:   "requests",
		Key:     []byte("req-1"),
		Value:   []byte("x"),
		Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}},
	}}}
	c := newTestConsumer(r, 2)
	dlq := &capturePublisher{}
	c.SetDeadLetterPublisher(dlq)

	var calls atomic.Int32
	c.Subscribe("requests", func(context.Context, *Message) error {
		calls.Add(1)
		return errors.New("bad geometry")
	})
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	out := dlq.published()
	require.Len(t, out, 1)
	assert.Equal(t, "requests.dlq", out[0].Topic)
	assert.Equal(t, []byte("req-1"), out[0].Key)
	assert.Equal(t, "requests", out[0].Headers[HeaderOriginalTopic])
	assert.Equal(t, "bad geometry", out[0].Headers[HeaderErrorMessage])
	assert.Equal(t, "3", out[0].Headers[HeaderAttempts])
	assert.Equal(t, "abc", out[0].Headers["trace_id"])
	assert.Equal(t, int64(1), c.GetMetrics().MessagesDeadLettered.Load())
	assert.Equal(t, int64(1), c.GetMetrics().MessagesFailed.Load())
}

func TestConsumer_UnhandledTopicIsCommitted(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{{Topic: "other", Value: []byte("x")}}}
	c := newTestConsumer(r, 0)
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestConsumer_CancelDuringRetryLeavesOffset(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{{Topic: "requests", Value: []byte("x")}}}
	c := newTestConsumer(r, 5)
	entered := make(chan struct{})
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}
	c.Subscribe("requests", func(context.Context, *Message) error { return errors.New("fail") })

	require.NoError(t, c.Start(context.Background()))
	<-entered
	require.NoError(t, c.Close())
	assert.Zero(t, r.commits())
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

//Personal.AI order the ending
