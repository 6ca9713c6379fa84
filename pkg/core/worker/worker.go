// Package worker runs long-lived loops under the fx lifecycle.
package worker

import (
	"context"
	"sync"

	"github.com/Sokol111/eventsink/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// runnable is anything with a blocking Run that returns on ctx cancellation.
// A non-nil error means the loop cannot continue.
type runnable interface {
	Run(ctx context.Context) error
}

type options struct {
	waitReady       bool
	shutdownOnError bool
}

// Option configures a registered worker.
type Option func(*options)

// WithReady delays Run until every health component is ready.
func WithReady() Option {
	return func(o *options) { o.waitReady = true }
}

// WithShutdown stops the application when Run returns an error.
func WithShutdown() Option {
	return func(o *options) { o.shutdownOnError = true }
}

type baseWorker struct {
	name       string
	log        *zap.Logger
	runFunc    func(ctx context.Context) error
	shutdowner fx.Shutdowner
	readiness  health.ReadinessWaiter
	options    options

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (w *baseWorker) Start() {
	w.log.Info("starting worker")
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.run(ctx)
	}()
}

func (w *baseWorker) run(ctx context.Context) {
	if w.options.waitReady {
		if err := w.readiness.WaitReady(ctx); err != nil {
			w.log.Info("worker cancelled while waiting for readiness")
			return
		}
	}

	err := w.runFunc(ctx)
	if err == nil {
		w.log.Info("worker stopped")
		return
	}

	if !w.options.shutdownOnError {
		w.log.Error("worker stopped with error", zap.Error(err))
		return
	}
	w.log.Error("worker failed, shutting down", zap.Error(err))
	if shutdownErr := w.shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
		w.log.Error("failed to initiate shutdown", zap.Error(shutdownErr))
	}
}

// Stop cancels Run and waits for it to return or for ctx to expire.
func (w *baseWorker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.once.Do(func() {
		w.log.Info("stopping worker")
		w.cancel()
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register starts T's Run with the application and stops it on shutdown.
//
//	worker.Register[*reader]("reader", worker.WithReady(), worker.WithShutdown())
func Register[T runnable](name string, opts ...Option) fx.Option {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger, shutdowner fx.Shutdowner, readiness health.ReadinessWaiter, dep T) {
		w := &baseWorker{
			name:       name,
			log:        log.With(zap.String("worker", name)),
			runFunc:    dep.Run,
			shutdowner: shutdowner,
			readiness:  readiness,
			options:    o,
		}
		lc.Append(fx.StartStopHook(w.Start, w.Stop))
	})
}
