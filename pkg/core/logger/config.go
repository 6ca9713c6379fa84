package logger

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the logger section of the service configuration.
type Config struct {
	Level            zapcore.Level
	Development      bool     // console encoding instead of JSON
	OutputPaths      []string // defaults to stderr
	ErrorOutputPaths []string // defaults to stderr
	StacktraceLevel  zapcore.Level
}

type rawConfig struct {
	Level            string   `mapstructure:"level"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output-paths"`
	ErrorOutputPaths []string `mapstructure:"error-output-paths"`
	StacktraceLevel  string   `mapstructure:"stacktrace-level"`
}

func defaultConfig() Config {
	return Config{Level: zapcore.InfoLevel, StacktraceLevel: zapcore.ErrorLevel}
}

func (c Config) Validate() error {
	for name, paths := range map[string][]string{"output-paths": c.OutputPaths, "error-output-paths": c.ErrorOutputPaths} {
		for i, path := range paths {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("logger.%s[%d] cannot be empty", name, i)
			}
		}
	}
	return nil
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := defaultConfig()

	sub := v.Sub("logger")
	if sub == nil {
		return cfg, nil
	}

	var raw rawConfig
	if err := sub.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}

	var err error
	if cfg.Level, err = parseLevel(raw.Level, cfg.Level); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}
	if cfg.StacktraceLevel, err = parseLevel(raw.StacktraceLevel, cfg.StacktraceLevel); err != nil {
		return Config{}, fmt.Errorf("invalid stacktrace level: %w", err)
	}
	cfg.Development = raw.Development
	cfg.OutputPaths = raw.OutputPaths
	cfg.ErrorOutputPaths = raw.ErrorOutputPaths

	return cfg, cfg.Validate()
}

func parseLevel(s string, fallback zapcore.Level) (zapcore.Level, error) {
	if s == "" {
		return fallback, nil
	}
	return zapcore.ParseLevel(s)
}
