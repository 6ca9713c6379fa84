// Package observability provides OpenTelemetry tracing and metrics providers.
//
// Usage:
//
//	// Configured from the "observability" section
//	observability.NewObservabilityModule()
//
//	// Disable observability for tests
//	observability.NewObservabilityModule(
//	    observability.WithoutTracing(),
//	    observability.WithoutMetrics(),
//	)
package observability

import (
	"github.com/Sokol111/eventsink/pkg/observability/config"
	"github.com/Sokol111/eventsink/pkg/observability/metrics"
	"github.com/Sokol111/eventsink/pkg/observability/tracing"
	"go.uber.org/fx"
)

// observabilityOptions holds internal configuration for the observability module.
type observabilityOptions struct {
	config         *config.Config
	disableTracing bool
	disableMetrics bool
}

// Option is a functional option for configuring the observability module.
type Option func(*observabilityOptions)

// WithConfig provides a static observability Config instead of loading it from viper.
func WithConfig(cfg config.Config) Option {
	return func(opts *observabilityOptions) {
		opts.config = &cfg
	}
}

// WithoutTracing disables tracing regardless of configuration.
func WithoutTracing() Option {
	return func(opts *observabilityOptions) {
		opts.disableTracing = true
	}
}

// WithoutMetrics disables metrics regardless of configuration.
func WithoutMetrics() Option {
	return func(opts *observabilityOptions) {
		opts.disableMetrics = true
	}
}

// NewObservabilityModule returns fx.Option providing metric.MeterProvider and
// trace.TracerProvider. Disabled signals get noop providers.
func NewObservabilityModule(opts ...Option) fx.Option {
	cfg := &observabilityOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Options(
		configModule(cfg),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}

func configModule(opts *observabilityOptions) fx.Option {
	var configOpts []config.Option

	if opts.config != nil {
		configOpts = append(configOpts, config.WithConfig(*opts.config))
	}
	if opts.disableTracing {
		configOpts = append(configOpts, config.WithDisableTracing())
	}
	if opts.disableMetrics {
		configOpts = append(configOpts, config.WithDisableMetrics())
	}

	return config.NewObservabilityConfigModule(configOpts...)
}
