package consumer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/config"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type mockHandler struct {
	processFunc func(ctx context.Context, e event.Event) error
	callCount   atomic.Int32
}

func (m *mockHandler) Process(ctx context.Context, e event.Event) error {
	m.callCount.Add(1)
	if m.processFunc != nil {
		return m.processFunc(ctx, e)
	}
	return nil
}

type mockTracer struct{}

func (mockTracer) ExtractContext(ctx context.Context, _ *kafka.Message) context.Context {
	return ctx
}

func (mockTracer) StartConsumerSpan(ctx context.Context, _ *kafka.Message) (context.Context, trace.Span) {
	return noop.NewTracerProvider().Tracer("test").Start(ctx, "consume")
}

func (mockTracer) StartDLQSpan(ctx context.Context, _ *kafka.Message, _ string) (context.Context, trace.Span) {
	return noop.NewTracerProvider().Tracer("test").Start(ctx, "dlq")
}

func (mockTracer) InjectContext(context.Context, *kafka.Message) {}

type mockSpan struct {
	trace.Span
	statusCode    codes.Code
	recordedError error
}

func newMockSpan() *mockSpan {
	_, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "test")
	return &mockSpan{Span: span}
}

func (m *mockSpan) SetStatus(code codes.Code, _ string) { m.statusCode = code }

func (m *mockSpan) RecordError(err error, _ ...trace.EventOption) { m.recordedError = err }

type mockOffsetStorer struct {
	mu             sync.Mutex
	err            error
	storedMessages []*kafka.Message
}

func (m *mockOffsetStorer) StoreMessage(msg *kafka.Message) ([]kafka.TopicPartition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storedMessages = append(m.storedMessages, msg)
	return []kafka.TopicPartition{msg.TopicPartition}, m.err
}

func (m *mockOffsetStorer) stored() []*kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*kafka.Message(nil), m.storedMessages...)
}

type dlqCall struct {
	message *kafka.Message
	err     error
}

type mockDLQHandler struct {
	mu    sync.Mutex
	calls []dlqCall
}

func (m *mockDLQHandler) SendToDLQ(_ context.Context, message *kafka.Message, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, dlqCall{message: message, err: err})
}

func (m *mockDLQHandler) sent() []dlqCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dlqCall(nil), m.calls...)
}

func testConsumerConfig() config.ConsumerConfig {
	return config.ConsumerConfig{
		Name:              "test-consumer",
		Topic:             "test-topic",
		GroupID:           "test-group",
		MaxRetryAttempts:  3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		ProcessingTimeout: time.Second,
	}
}

func testMessage(value string) *kafka.Message {
	topic := "test-topic"
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: 100},
		Key:            []byte("test-key"),
		Value:          []byte(value),
	}
}
