package consumer

import (
	"context"
	"errors"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// offsetStorer is the subset of *kafka.Consumer used to mark messages as done.
type offsetStorer interface {
	StoreMessage(m *kafka.Message) (storedOffsets []kafka.TopicPartition, err error)
}

// resultHandler settles a message once processing has finished.
// The offset is stored in every case so a bad message never blocks its partition.
type resultHandler struct {
	log        *zap.Logger
	dlqHandler DLQHandler
	consumer   offsetStorer
}

func newResultHandler(log *zap.Logger, dlqHandler DLQHandler, consumer offsetStorer) *resultHandler {
	return &resultHandler{
		log:        log,
		dlqHandler: dlqHandler,
		consumer:   consumer,
	}
}

func (h *resultHandler) handle(ctx context.Context, err error, message *kafka.Message, span trace.Span) {
	defer h.storeOffset(message)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "message processed")

	case errors.Is(err, ErrSkipMessage):
		span.SetStatus(codes.Ok, "message skipped")
		h.log.Info("skipping message", messageFields(message)...)

	case errors.Is(err, ErrPermanent):
		span.RecordError(err)
		span.SetStatus(codes.Error, "permanent error")
		fields := append(messageFields(message), zap.Error(err))
		var pe *panicError
		if errors.As(err, &pe) {
			fields = append(fields, zap.ByteString("stack", pe.Stack))
		}
		h.log.Error("permanent error, sending message to DLQ", fields...)
		h.dlqHandler.SendToDLQ(ctx, message, err)

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "retries exhausted")
		h.log.Error("message processing failed after retries, sending to DLQ", append(messageFields(message), zap.Error(err))...)
		h.dlqHandler.SendToDLQ(ctx, message, err)
	}
}

func (h *resultHandler) storeOffset(message *kafka.Message) {
	if _, err := h.consumer.StoreMessage(message); err != nil {
		h.log.Error("failed to store offset", append(messageFields(message), zap.Error(err))...)
	}
}
