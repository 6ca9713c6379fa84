package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	metadataTimeout   = 5 * time.Second
	topicPollInterval = 2 * time.Second
)

// topicSubscriber is the subset of *kafka.Consumer used during startup.
type topicSubscriber interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

// initializer subscribes the consumer and waits for the topic to show up in metadata.
type initializer struct {
	consumer         topicSubscriber
	topic            string
	log              *zap.Logger
	timeout          time.Duration
	failOnTopicError bool
}

func newInitializer(consumer topicSubscriber, topic string, log *zap.Logger, timeoutSeconds int, failOnTopicError bool) *initializer {
	return &initializer{
		consumer:         consumer,
		topic:            topic,
		log:              log,
		timeout:          time.Duration(timeoutSeconds) * time.Second,
		failOnTopicError: failOnTopicError,
	}
}

func (i *initializer) initialize(ctx context.Context) error {
	i.log.Info("subscribing to topic")
	if err := i.consumer.SubscribeTopics([]string{i.topic}, i.onRebalance); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", i.topic, err)
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	err := i.waitForTopic(ctx)
	if err == nil {
		return nil
	}
	if i.failOnTopicError {
		return err
	}
	i.log.Warn("topic not ready, continuing anyway", zap.Error(err))
	return nil
}

func (i *initializer) waitForTopic(ctx context.Context) error {
	ticker := time.NewTicker(topicPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		partitions, err := i.checkTopic()
		if err == nil {
			i.log.Info("topic is ready", zap.Int("partitions", partitions))
			return nil
		}
		lastErr = err
		i.log.Debug("topic not ready yet", zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %s not ready: %w (last error: %v)", i.topic, ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

func (i *initializer) checkTopic() (int, error) {
	metadata, err := i.consumer.GetMetadata(&i.topic, false, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to get topic metadata: %w", err)
	}
	topicMeta, ok := metadata.Topics[i.topic]
	if !ok {
		return 0, fmt.Errorf("topic not found in metadata")
	}
	if topicMeta.Error.Code() != kafka.ErrNoError {
		return 0, fmt.Errorf("topic has error: %w", topicMeta.Error)
	}
	if len(topicMeta.Partitions) == 0 {
		return 0, fmt.Errorf("topic has no partitions")
	}
	return len(topicMeta.Partitions), nil
}

func (i *initializer) onRebalance(_ *kafka.Consumer, ev kafka.Event) error {
	switch e := ev.(type) {
	case kafka.AssignedPartitions:
		logPartitions(i.log, "partitions assigned", e.Partitions)
	case kafka.RevokedPartitions:
		logPartitions(i.log, "partitions revoked", e.Partitions)
	}
	return nil
}

func logPartitions(log *zap.Logger, msg string, partitions []kafka.TopicPartition) {
	ids := make([]int32, len(partitions))
	for idx, p := range partitions {
		ids[idx] = p.Partition
	}
	log.Info(msg, zap.Int32s("partitions", ids))
}
