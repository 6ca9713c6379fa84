// Package http serves liveness and readiness probes.
package http

import (
	"github.com/Sokol111/eventsink/pkg/http/health"
	"github.com/Sokol111/eventsink/pkg/http/server"
	"go.uber.org/fx"
)

// Option configures NewHTTPModule.
type Option func(*httpOptions)

type httpOptions struct {
	serverConfig *server.Config
}

// WithServerConfig provides a static server Config instead of loading it from viper.
func WithServerConfig(cfg server.Config) Option {
	return func(opts *httpOptions) {
		opts.serverConfig = &cfg
	}
}

// NewHTTPModule provides the probe server with /health/ready and /health/live.
func NewHTTPModule(opts ...Option) fx.Option {
	o := &httpOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var serverOpts []server.Option
	if o.serverConfig != nil {
		serverOpts = append(serverOpts, server.WithServerConfig(*o.serverConfig))
	}

	return fx.Options(
		server.NewHTTPServerModule(serverOpts...),
		health.NewHealthRoutesModule(),
	)
}
