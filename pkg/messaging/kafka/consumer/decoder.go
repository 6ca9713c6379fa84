package consumer

import (
	"context"
	"fmt"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// MessageEnvelope pairs a Kafka message with its decoded event.
// Err is set when the value could not be decoded.
type MessageEnvelope struct {
	Message *kafka.Message
	Event   event.Event
	Err     error
}

// messageDecoder turns raw messages into envelopes using the configured codec.
type messageDecoder struct {
	inputChan  <-chan *kafka.Message
	outputChan chan<- *MessageEnvelope
	codec      event.Codec
	log        *zap.Logger
}

func newMessageDecoder(
	inputChan <-chan *kafka.Message,
	outputChan chan<- *MessageEnvelope,
	codec event.Codec,
	log *zap.Logger,
) *messageDecoder {
	return &messageDecoder{
		inputChan:  inputChan,
		outputChan: outputChan,
		codec:      codec,
		log:        log,
	}
}

func (d *messageDecoder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.inputChan:
			envelope := d.decode(msg)
			select {
			case <-ctx.Done():
				return nil
			case d.outputChan <- envelope:
			}
		}
	}
}

func (d *messageDecoder) decode(msg *kafka.Message) *MessageEnvelope {
	e, err := d.codec.Decode(msg.Value, headersToMap(msg.Headers))
	if err != nil {
		d.log.Warn("failed to decode message", append(messageFields(msg), zap.Error(err))...)
		return &MessageEnvelope{Message: msg, Err: fmt.Errorf("%w: decode: %w", ErrPermanent, err)}
	}
	return &MessageEnvelope{Message: msg, Event: e}
}
