package config

import (
	"os"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	envAppEnv            = "APP_ENV"
	envAppServiceName    = "APP_SERVICE_NAME"
	envAppServiceVersion = "APP_SERVICE_VERSION"

	defaultEnvironment = "local"
	defaultServiceName = "eventsink"
)

// Version is set at build time with -ldflags "-X ...config.Version=...".
var Version = "dev"

// AppConfig identifies the running service.
type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

type appConfigOptions struct {
	appConfig *AppConfig
}

// AppConfigOption configures NewAppConfigModule.
type AppConfigOption func(*appConfigOptions)

// WithAppConfig supplies a static AppConfig instead of reading the environment.
func WithAppConfig(cfg AppConfig) AppConfigOption {
	return func(o *appConfigOptions) {
		o.appConfig = &cfg
	}
}

// NewAppConfigModule provides AppConfig built from APP_ENV, APP_SERVICE_NAME
// and APP_SERVICE_VERSION. Unset variables fall back to local, eventsink and
// the build Version.
func NewAppConfigModule(opts ...AppConfigOption) fx.Option {
	o := &appConfigOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var provide fx.Option
	if o.appConfig != nil {
		provide = fx.Supply(*o.appConfig)
	} else {
		provide = fx.Provide(newAppConfig)
	}

	return fx.Module("appconfig",
		provide,
		fx.Invoke(func(log *zap.Logger, conf AppConfig) {
			log.Info("application config loaded",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.String("environment", conf.Environment))
		}),
	)
}

func newAppConfig() AppConfig {
	return AppConfig{
		ServiceName:    envOr(envAppServiceName, defaultServiceName),
		ServiceVersion: envOr(envAppServiceVersion, Version),
		Environment:    envOr(envAppEnv, defaultEnvironment),
	}
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, fallback)
}
