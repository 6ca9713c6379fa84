package consumer

import (
	"context"
	"time"

	"github.com/Sokol111/eventsink/pkg/core/logger"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	readTimeout      = 1 * time.Second
	throttleInterval = 1 * time.Minute
)

// messageReader is the subset of *kafka.Consumer the reader needs.
type messageReader interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
}

// reader polls Kafka and forwards raw messages to the decoder.
type reader struct {
	consumer     messageReader
	messagesChan chan<- *kafka.Message
	log          *zap.Logger
	throttler    *logger.LogThrottler
}

func newReader(consumer messageReader, messagesChan chan<- *kafka.Message, log *zap.Logger) *reader {
	return &reader{
		consumer:     consumer,
		messagesChan: messagesChan,
		log:          log,
		throttler:    logger.NewLogThrottler(log, throttleInterval),
	}
}

// Run reads until ctx is cancelled. It returns an error only when the consumer
// reports a fatal error.
func (r *reader) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		msg, err := r.consumer.ReadMessage(readTimeout)
		if err != nil {
			if fatal := r.handleError(err); fatal != nil {
				return fatal
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case r.messagesChan <- msg:
		}
	}
	return nil
}

func (r *reader) handleError(err error) error {
	rerr := wrapReaderError(err)
	switch {
	case rerr.isTimeout():
		return nil
	case rerr.isFatal():
		r.log.Error("fatal error while reading", zap.Error(rerr))
		return rerr
	case rerr.isTemporary():
		r.throttler.Warn(rerr.key, rerr.description, zap.Error(err))
	default:
		r.throttler.Warn(rerr.key, "failed to read message", zap.Error(err))
	}
	return nil
}
