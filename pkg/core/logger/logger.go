package logger

import (
	"fmt"

	"github.com/Sokol111/eventsink/pkg/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger and installs it as the zap global.
func newLogger(conf Config, app config.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	if err := conf.Validate(); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid logger config: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if conf.Development {
		cfg = zap.NewDevelopmentConfig()
	}

	level := zap.NewAtomicLevelAt(conf.Level)
	cfg.Level = level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(conf.OutputPaths) > 0 {
		cfg.OutputPaths = conf.OutputPaths
	}
	if len(conf.ErrorOutputPaths) > 0 {
		cfg.ErrorOutputPaths = conf.ErrorOutputPaths
	}
	cfg.InitialFields = map[string]any{
		"service": app.ServiceName,
		"version": app.ServiceVersion,
		"env":     app.Environment,
	}

	log, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(conf.StacktraceLevel))
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	zap.ReplaceGlobals(log)
	log.Debug("logger initialized",
		zap.Stringer("level", conf.Level),
		zap.Bool("development", conf.Development))

	return log, level, nil
}
