package consumer

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Sokol111/eventsink/pkg/messaging/kafka/consumer"

// MessageTracer creates spans for consumed messages and carries trace context
// through Kafka headers.
type MessageTracer interface {
	ExtractContext(ctx context.Context, message *kafka.Message) context.Context
	StartConsumerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span)
	StartDLQSpan(ctx context.Context, message *kafka.Message, dlqTopic string) (context.Context, trace.Span)
	InjectContext(ctx context.Context, message *kafka.Message)
}

type messageTracer struct {
	tracer trace.Tracer
}

func newMessageTracer(tp trace.TracerProvider) MessageTracer {
	return &messageTracer{tracer: tp.Tracer(tracerName)}
}

func (t *messageTracer) ExtractContext(ctx context.Context, message *kafka.Message) context.Context {
	if len(message.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headersToMap(message.Headers)))
}

func (t *messageTracer) StartConsumerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "eventsink.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topicOf(message)),
			attribute.Int("messaging.partition", int(message.TopicPartition.Partition)),
			attribute.Int64("messaging.offset", int64(message.TopicPartition.Offset)),
			attribute.Int("messaging.message.body.size", len(message.Value)),
		),
	)
}

func (t *messageTracer) StartDLQSpan(ctx context.Context, message *kafka.Message, dlqTopic string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "eventsink.send_to_dlq",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", dlqTopic),
			attribute.String("messaging.source.topic", topicOf(message)),
			attribute.Int("messaging.source.partition", int(message.TopicPartition.Partition)),
			attribute.Int64("messaging.source.offset", int64(message.TopicPartition.Offset)),
		),
	)
}

func (t *messageTracer) InjectContext(ctx context.Context, message *kafka.Message) {
	headers := headersToMap(message.Headers)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
	message.Headers = mapToHeaders(headers)
}

func topicOf(message *kafka.Message) string {
	if message.TopicPartition.Topic == nil {
		return ""
	}
	return *message.TopicPartition.Topic
}
