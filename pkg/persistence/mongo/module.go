package mongo

import (
	"context"

	"github.com/Sokol111/eventsink/pkg/core/health"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type mongoOptions struct {
	config *Config
}

// Option configures the mongo module.
type Option func(*mongoOptions)

// WithMongoConfig provides a static Config instead of loading it from viper.
func WithMongoConfig(cfg Config) Option {
	return func(o *mongoOptions) {
		o.config = &cfg
	}
}

// NewMongoModule provides the MongoDB cell store.
func NewMongoModule(opts ...Option) fx.Option {
	o := &mongoOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Supply(o),
		fx.Provide(
			provideConfig,
			provideCellStore,
		),
	)
}

func provideConfig(o *mongoOptions, v *viper.Viper) (Config, error) {
	if o.config != nil {
		cfg := *o.config
		applyDefaults(&cfg)
		return cfg, nil
	}
	return newConfig(v)
}

func provideCellStore(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.ComponentManager) (*CellStore, error) {
	c, err := newClient(log, conf)
	if err != nil {
		return nil, err
	}

	store := newCellStore(c.database,
		NewBulkhead(conf.MaxConcurrentWrites, conf.BulkheadTimeout, log),
		conf.QueryTimeout, log)

	markReady := readiness.AddComponent("mongo-module")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.ping(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return c.disconnect(ctx)
		},
	})

	return store, nil
}
