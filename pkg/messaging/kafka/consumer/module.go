package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/eventsink/pkg/core/health"
	"github.com/Sokol111/eventsink/pkg/core/worker"
	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/config"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/producer"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const autoCommitIntervalMs = 3000

// NewConsumerModule reads kafka.consumer and feeds decoded events to the Handler
// provided by the application.
func NewConsumerModule() fx.Option {
	return fx.Module("kafka-consumer",
		fx.Decorate(func(log *zap.Logger, conf config.ConsumerConfig) *zap.Logger {
			return log.With(
				zap.String("component", "consumer"),
				zap.String("consumer_name", conf.Name),
				zap.String("topic", conf.Topic),
				zap.String("group_id", conf.GroupID),
			)
		}),
		fx.Provide(
			provideKafkaConsumer,
			provideCodec,
			provideMessageChannel,
			provideEnvelopeChannel,
			provideReader,
			provideDecoder,
			provideProcessor,
			provideDLQHandler,
			newResultHandler,
			newMessageTracer,
			fx.Private,
		),
		worker.Register[*reader]("reader", worker.WithReady(), worker.WithShutdown()),
		worker.Register[*messageDecoder]("decoder"),
		worker.Register[*processor]("processor"),
	)
}

func provideKafkaConsumer(lc fx.Lifecycle, conf config.Config, consumerConf config.ConsumerConfig, log *zap.Logger, readiness health.ComponentManager) (messageReader, offsetStorer, error) {
	kc, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"group.id":                 consumerConf.GroupID,
		"auto.offset.reset":        consumerConf.AutoOffsetReset,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  autoCommitIntervalMs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka consumer %s: %w", consumerConf.Name, err)
	}

	init := newInitializer(kc, consumerConf.Topic, log, consumerConf.ReadinessTimeoutSeconds, consumerConf.FailOnTopicError)
	markReady := readiness.AddComponent("kafka-consumer-" + consumerConf.Name)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := init.initialize(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if _, err := kc.Commit(); err != nil {
				var kafkaErr kafka.Error
				if !errors.As(err, &kafkaErr) || kafkaErr.Code() != kafka.ErrNoOffset {
					log.Warn("failed to commit offsets on shutdown", zap.Error(err))
				}
			}
			log.Info("closing kafka consumer")
			return kc.Close()
		},
	})

	return kc, kc, nil
}

func provideCodec(conf config.ConsumerConfig) (event.Codec, error) {
	return event.NewCodec(conf.Format)
}

func provideMessageChannel(conf config.ConsumerConfig) chan *kafka.Message {
	return make(chan *kafka.Message, conf.ChannelBufferSize)
}

func provideEnvelopeChannel(conf config.ConsumerConfig) chan *MessageEnvelope {
	return make(chan *MessageEnvelope, conf.ChannelBufferSize)
}

func provideReader(consumer messageReader, messages chan *kafka.Message, log *zap.Logger) *reader {
	return newReader(consumer, messages, log)
}

func provideDecoder(messages chan *kafka.Message, envelopes chan *MessageEnvelope, codec event.Codec, log *zap.Logger) *messageDecoder {
	return newMessageDecoder(messages, envelopes, codec, log)
}

func provideProcessor(
	envelopes chan *MessageEnvelope,
	handler Handler,
	log *zap.Logger,
	rh *resultHandler,
	tracer MessageTracer,
	conf config.ConsumerConfig,
) *processor {
	return newProcessor(envelopes, handler, log, rh, tracer, conf)
}

type dlqParams struct {
	fx.In

	Conf     config.ConsumerConfig
	Tracer   MessageTracer
	Log      *zap.Logger
	Producer producer.Producer `optional:"true"`
}

func provideDLQHandler(p dlqParams) (DLQHandler, error) {
	if !p.Conf.EnableDLQ {
		return newNoopDLQHandler(p.Log), nil
	}
	if p.Producer == nil {
		return nil, fmt.Errorf("consumer %s: DLQ is enabled but no producer is configured", p.Conf.Name)
	}
	return newDLQHandler(p.Producer, p.Conf.DLQTopic, p.Tracer, p.Log), nil
}
