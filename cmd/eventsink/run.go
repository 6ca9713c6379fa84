package main

import (
	"context"

	"github.com/Sokol111/eventsink/pkg/core"
	httpmodule "github.com/Sokol111/eventsink/pkg/http"
	kafkaconfig "github.com/Sokol111/eventsink/pkg/messaging/kafka/config"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/consumer"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/producer"
	"github.com/Sokol111/eventsink/pkg/observability"
	"github.com/Sokol111/eventsink/pkg/persistence/mongo"
	"github.com/Sokol111/eventsink/pkg/sink"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Consume events from Kafka and write them to the cell store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(runModule(coreOptions(*configPath)...))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func coreOptions(configPath string) []core.Option {
	if configPath == "" {
		return nil
	}
	return []core.Option{core.WithConfigPath(configPath)}
}

func runModule(opts ...core.Option) fx.Option {
	return fx.Options(
		core.NewCoreModule(opts...),
		observability.NewObservabilityModule(),
		httpmodule.NewHTTPModule(),
		mongo.NewMongoModule(),
		sinkModule(),
		kafkaconfig.NewKafkaConfigModule(),
		producer.NewProducerModule(),
		consumer.NewConsumerModule(),
		fx.Provide(
			fx.Annotate(
				func(s *sink.Sink) *sink.Sink { return s },
				fx.As(new(consumer.Handler)),
			),
		),
	)
}

// sinkModule binds the sink to the MongoDB cell store and creates the
// destination indexes before any event is written.
func sinkModule() fx.Option {
	return fx.Options(
		sink.NewSinkModule(),
		fx.Provide(
			fx.Annotate(
				func(s *mongo.CellStore) *mongo.CellStore { return s },
				fx.As(new(sink.Store)),
			),
		),
		fx.Invoke(ensureIndexes),
	)
}

func ensureIndexes(lc fx.Lifecycle, store *mongo.CellStore, conf sink.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.EnsureIndexes(ctx, conf.Table)
		},
	})
}
