package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Sokol111/eventsink/pkg/persistence"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Bulkhead limits concurrent bulk writes against the database.
type Bulkhead struct {
	semaphore *semaphore.Weighted
	timeout   time.Duration
	log       *zap.Logger
}

func NewBulkhead(limit int, timeout time.Duration, log *zap.Logger) *Bulkhead {
	log.Info("bulkhead initialized",
		zap.Int("limit", limit),
		zap.Duration("timeout", timeout),
	)

	return &Bulkhead{
		semaphore: semaphore.NewWeighted(int64(limit)),
		timeout:   timeout,
		log:       log,
	}
}

// Execute runs fn once a slot is free. Waiting longer than the bulkhead timeout
// fails with persistence.ErrUnavailable.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.semaphore.Acquire(acquireCtx, 1); err != nil {
		b.log.Warn("bulkhead acquisition failed",
			zap.Duration("timeout", b.timeout),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	defer b.semaphore.Release(1)

	return fn()
}
