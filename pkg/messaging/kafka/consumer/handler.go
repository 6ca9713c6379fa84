package consumer

import (
	"context"

	"github.com/Sokol111/eventsink/pkg/event"
)

// Handler consumes decoded events.
// Returning ErrPermanent or ErrSkipMessage (possibly wrapped) stops retries.
type Handler interface {
	Process(ctx context.Context, e event.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e event.Event) error

func (f HandlerFunc) Process(ctx context.Context, e event.Event) error {
	return f(ctx, e)
}
