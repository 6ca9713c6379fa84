package sink

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewSinkModule provides the sink. A Store implementation must be supplied separately.
func NewSinkModule() fx.Option {
	return fx.Provide(
		newConfig,
		provideSink,
	)
}

func provideSink(lc fx.Lifecycle, log *zap.Logger, conf Config, store Store, mp metric.MeterProvider) (*Sink, error) {
	s, err := New(conf, store, log, mp)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Close()
			return nil
		},
	})

	return s, nil
}
