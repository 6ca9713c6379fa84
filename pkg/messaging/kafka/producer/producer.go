package producer

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Producer publishes messages to Kafka.
type Producer interface {
	// Produce enqueues the message; the delivery report goes to deliveryChan (may be nil).
	Produce(message *kafka.Message, deliveryChan chan kafka.Event) error
	// ProduceSync enqueues the message and waits for its delivery report.
	ProduceSync(ctx context.Context, message *kafka.Message) error
}

// kafkaProducer is the subset of *kafka.Producer used here.
type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

type producer struct {
	producer kafkaProducer
	log      *zap.Logger
}

func newProducer(p kafkaProducer, log *zap.Logger) *producer {
	return &producer{producer: p, log: log}
}

func (p *producer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if err := p.producer.Produce(message, deliveryChan); err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topicOf(message), err)
	}
	return nil
}

func (p *producer) ProduceSync(ctx context.Context, message *kafka.Message) error {
	deliveryChan := make(chan kafka.Event, 1)
	if err := p.Produce(message, deliveryChan); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T for topic %s", e, topicOf(message))
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver message to topic %s: %w", topicOf(message), m.TopicPartition.Error)
		}
		p.log.Debug("message delivered",
			zap.String("topic", topicOf(message)),
			zap.Int32("partition", m.TopicPartition.Partition),
			zap.Int64("offset", int64(m.TopicPartition.Offset)))
		return nil
	}
}

func topicOf(message *kafka.Message) string {
	if message.TopicPartition.Topic == nil {
		return ""
	}
	return *message.TopicPartition.Topic
}
