package producer

import (
	"context"
	"fmt"

	"github.com/Sokol111/eventsink/pkg/core/health"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/config"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const flushTimeoutMs = 5000

// NewProducerModule provides a Producer backed by confluent-kafka-go.
func NewProducerModule() fx.Option {
	return fx.Provide(
		provideProducer,
	)
}

func provideProducer(lc fx.Lifecycle, log *zap.Logger, conf config.Config, readiness health.ComponentManager) (Producer, error) {
	log = log.With(zap.String("component", "producer"))

	kp, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  conf.Brokers,
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	markReady := readiness.AddComponent("kafka-producer")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := waitForBrokers(ctx, kp, log, conf.Producer.ReadinessTimeoutSeconds, conf.Producer.FailOnBrokerError); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if remaining := kp.Flush(flushTimeoutMs); remaining > 0 {
				log.Warn("producer closed with undelivered messages", zap.Int("remaining", remaining))
			}
			kp.Close()
			return nil
		},
	})

	return newProducer(kp, log), nil
}
