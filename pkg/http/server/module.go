package server

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serverOptions struct {
	config *Config
}

// Option configures the HTTP server module.
type Option func(*serverOptions)

// WithServerConfig provides a static Config instead of loading it from viper.
func WithServerConfig(cfg Config) Option {
	return func(o *serverOptions) {
		o.config = &cfg
	}
}

// NewHTTPServerModule provides the ServeMux routes register on and the server serving it.
func NewHTTPServerModule(opts ...Option) fx.Option {
	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideConfig),
		fx.Provide(newServeMux),
		fx.Invoke(startHTTPServer),
	)
}

func provideConfig(o *serverOptions, v *viper.Viper, log *zap.Logger) (Config, error) {
	if o.config != nil {
		cfg := *o.config
		cfg.setDefaults()
		return cfg, cfg.validate()
	}
	return newConfig(v, log)
}

func newServeMux() *http.ServeMux {
	return http.NewServeMux()
}

func startHTTPServer(lc fx.Lifecycle, log *zap.Logger, conf Config, mux *http.ServeMux, shutdowner fx.Shutdowner) {
	if !conf.IsEnabled() {
		log.Info("HTTP server: disabled")
		return
	}

	log = log.With(zap.String("component", "http-server"))
	var srv Server
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// Created on start so every route is registered.
			srv = newServer(log, conf, mux)
			ready := make(chan struct{})
			errCh := make(chan error, 1)

			go func() {
				err := srv.ServeWithReadyCallback(func() { close(ready) })
				if err == nil {
					return
				}
				select {
				case <-ready:
					log.Error("HTTP server failed, shutting down application", zap.Error(err))
					_ = shutdowner.Shutdown()
				default:
					errCh <- err
				}
			}()

			select {
			case <-ready:
				return nil
			case err := <-errCh:
				return err
			}
		},
		OnStop: func(ctx context.Context) error {
			if srv != nil {
				return srv.Shutdown(ctx)
			}
			return nil
		},
	})
}
