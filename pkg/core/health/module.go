package health

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewReadinessModule provides the readiness tracker under its three interfaces.
func NewReadinessModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(lc fx.Lifecycle, log *zap.Logger) *readiness {
				r := newReadiness(log.With(zap.String("component", "readiness")))
				// All constructors have run by the time hooks start,
				// so an empty tracker here means nothing will register.
				lc.Append(fx.Hook{OnStart: func(context.Context) error {
					r.sealIfEmpty()
					return nil
				}})
				return r
			},
			func(r *readiness) ComponentManager { return r },
			func(r *readiness) ReadinessChecker { return r },
			func(r *readiness) ReadinessWaiter { return r },
		),
	)
}
