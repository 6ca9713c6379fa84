package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// Get returns the logger stored in ctx, or the global logger.
func Get(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.L()
}

// With returns a copy of ctx carrying log.
func With(ctx context.Context, log *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, log)
}
