package logger

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/Sokol111/eventsink/pkg/core/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type loggerOptions struct {
	config *Config
}

// Option configures NewZapLoggingModule.
type Option func(*loggerOptions)

// WithLoggerConfig supplies a static Config instead of reading viper.
func WithLoggerConfig(cfg Config) Option {
	return func(o *loggerOptions) {
		o.config = &cfg
	}
}

// NewZapLoggingModule provides *zap.Logger and routes fx events through it.
func NewZapLoggingModule(opts ...Option) fx.Option {
	o := &loggerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	provideConfig := fx.Provide(newConfig)
	if o.config != nil {
		provideConfig = fx.Supply(*o.config)
	}

	return fx.Options(
		provideConfig,
		fx.Provide(provideLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	)
}

func provideLogger(lc fx.Lifecycle, conf Config, app config.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	log, level, err := newLogger(conf, app)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to create logger: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// Syncing stderr fails with EINVAL or ENOTTY on most terminals.
			if err := log.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
				return err
			}
			return nil
		},
	})

	return log, level, nil
}
