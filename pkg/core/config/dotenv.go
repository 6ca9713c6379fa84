package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type dotenvConfig struct {
	path string
}

// DotEnvOption configures NewDotEnvModule.
type DotEnvOption func(*dotenvConfig)

// WithDotEnvPath sets the .env file to load.
func WithDotEnvPath(path string) DotEnvOption {
	return func(cfg *dotenvConfig) {
		cfg.path = path
	}
}

// NewDotEnvModule loads a .env file into the process environment.
// Loading happens when the module is built so later providers see the variables.
// Variables already set in the environment are not overridden.
func NewDotEnvModule(opts ...DotEnvOption) fx.Option {
	cfg := &dotenvConfig{path: ".env"}
	for _, opt := range opts {
		opt(cfg)
	}

	err := godotenv.Load(cfg.path)

	return fx.Module("dotenv",
		fx.Invoke(func(log *zap.Logger) {
			switch {
			case err == nil:
				log.Info("loaded .env file", zap.String("path", cfg.path))
			case errors.Is(err, fs.ErrNotExist):
				log.Debug("no .env file found", zap.String("path", cfg.path))
			default:
				log.Warn("failed to load .env file", zap.String("path", cfg.path), zap.Error(err))
			}
		}),
	)
}
