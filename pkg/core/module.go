package core

import (
	"time"

	"github.com/Sokol111/eventsink/pkg/core/config"
	"github.com/Sokol111/eventsink/pkg/core/health"
	"github.com/Sokol111/eventsink/pkg/core/logger"
	"go.uber.org/fx"
)

const (
	startTimeout = 2 * time.Minute
	stopTimeout  = 1 * time.Minute
)

type coreOptions struct {
	appConfig     *config.AppConfig
	loggerConfig  *logger.Config
	viperOptions  []config.ViperOption
	disableDotEnv bool
}

// Option configures NewCoreModule.
type Option func(*coreOptions)

// WithAppConfig supplies a static AppConfig instead of reading the environment.
func WithAppConfig(cfg config.AppConfig) Option {
	return func(o *coreOptions) { o.appConfig = &cfg }
}

// WithLoggerConfig supplies a static logger Config instead of reading viper.
func WithLoggerConfig(cfg logger.Config) Option {
	return func(o *coreOptions) { o.loggerConfig = &cfg }
}

// WithConfigPath reads configuration from path instead of CONFIG_FILE.
func WithConfigPath(path string) Option {
	return func(o *coreOptions) {
		o.viperOptions = append(o.viperOptions, config.WithConfigPath(path))
	}
}

// WithoutConfigFile uses environment variables only.
func WithoutConfigFile() Option {
	return func(o *coreOptions) {
		o.viperOptions = append(o.viperOptions, config.WithoutConfigFile())
	}
}

// WithoutEnvFile skips loading .env.
func WithoutEnvFile() Option {
	return func(o *coreOptions) { o.disableDotEnv = true }
}

// NewCoreModule wires configuration, logging and readiness.
//
//	core.NewCoreModule(core.WithConfigPath("configs/config.yaml"))
func NewCoreModule(opts ...Option) fx.Option {
	o := &coreOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var appOpts []config.AppConfigOption
	if o.appConfig != nil {
		appOpts = append(appOpts, config.WithAppConfig(*o.appConfig))
	}
	var logOpts []logger.Option
	if o.loggerConfig != nil {
		logOpts = append(logOpts, logger.WithLoggerConfig(*o.loggerConfig))
	}

	modules := []fx.Option{
		fx.StartTimeout(startTimeout),
		fx.StopTimeout(stopTimeout),
		config.NewViperModule(o.viperOptions...),
		config.NewAppConfigModule(appOpts...),
		logger.NewZapLoggingModule(logOpts...),
		health.NewReadinessModule(),
	}
	if !o.disableDotEnv {
		modules = append([]fx.Option{config.NewDotEnvModule()}, modules...)
	}
	return fx.Options(modules...)
}
