package consumer

import (
	"context"
	"strconv"
	"time"

	"github.com/Sokol111/eventsink/pkg/messaging/kafka/producer"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	headerDLQOriginalTopic     = "dlq.original.topic"
	headerDLQOriginalPartition = "dlq.original.partition"
	headerDLQOriginalOffset    = "dlq.original.offset"
	headerDLQError             = "dlq.error"
	headerDLQTimestamp         = "dlq.timestamp"
)

// DLQHandler forwards messages that could not be processed to a dead letter topic.
type DLQHandler interface {
	SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error)
}

type dlqHandler struct {
	producer producer.Producer
	dlqTopic string
	tracer   MessageTracer
	log      *zap.Logger
	now      func() time.Time
}

func newDLQHandler(p producer.Producer, dlqTopic string, tracer MessageTracer, log *zap.Logger) DLQHandler {
	return &dlqHandler{
		producer: p,
		dlqTopic: dlqTopic,
		tracer:   tracer,
		log:      log,
		now:      time.Now,
	}
}

func (h *dlqHandler) SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error) {
	ctx, span := h.tracer.StartDLQSpan(ctx, message, h.dlqTopic)
	defer span.End()

	headers := make([]kafka.Header, 0, len(message.Headers)+5)
	headers = append(headers, message.Headers...)
	headers = append(headers,
		kafka.Header{Key: headerDLQOriginalTopic, Value: []byte(topicOf(message))},
		kafka.Header{Key: headerDLQOriginalPartition, Value: []byte(strconv.Itoa(int(message.TopicPartition.Partition)))},
		kafka.Header{Key: headerDLQOriginalOffset, Value: []byte(strconv.FormatInt(int64(message.TopicPartition.Offset), 10))},
		kafka.Header{Key: headerDLQError, Value: []byte(processingErr.Error())},
		kafka.Header{Key: headerDLQTimestamp, Value: []byte(h.now().UTC().Format(time.RFC3339))},
	)

	dlqMessage := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &h.dlqTopic, Partition: kafka.PartitionAny},
		Key:            message.Key,
		Value:          message.Value,
		Headers:        headers,
	}
	h.tracer.InjectContext(ctx, dlqMessage)

	if err := h.producer.ProduceSync(ctx, dlqMessage); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send message to DLQ")
		h.log.Error("failed to send message to DLQ", append(messageFields(message), zap.String("dlq_topic", h.dlqTopic), zap.Error(err))...)
		return
	}

	span.SetStatus(codes.Ok, "message sent to DLQ")
	h.log.Info("message sent to DLQ", append(messageFields(message), zap.String("dlq_topic", h.dlqTopic))...)
}

type noopDLQHandler struct {
	log *zap.Logger
}

func newNoopDLQHandler(log *zap.Logger) DLQHandler {
	return &noopDLQHandler{log: log}
}

func (h *noopDLQHandler) SendToDLQ(_ context.Context, message *kafka.Message, processingErr error) {
	h.log.Warn("DLQ disabled, dropping message", append(messageFields(message), zap.Error(processingErr))...)
}

func messageFields(message *kafka.Message) []zap.Field {
	return []zap.Field{
		zap.String("key", string(message.Key)),
		zap.Int32("partition", message.TopicPartition.Partition),
		zap.Int64("offset", int64(message.TopicPartition.Offset)),
	}
}
