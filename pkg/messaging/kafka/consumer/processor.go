package consumer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Sokol111/eventsink/pkg/core/logger"
	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/messaging/kafka/config"
	"github.com/Sokol111/eventsink/pkg/observability/tracing"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// processor hands decoded events to the Handler, retrying transient failures.
type processor struct {
	envelopeChan      <-chan *MessageEnvelope
	handler           Handler
	log               *zap.Logger
	resultHandler     *resultHandler
	tracer            MessageTracer
	maxRetries        uint64
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	processingTimeout time.Duration
}

func newProcessor(
	envelopeChan <-chan *MessageEnvelope,
	handler Handler,
	log *zap.Logger,
	resultHandler *resultHandler,
	tracer MessageTracer,
	conf config.ConsumerConfig,
) *processor {
	var maxRetries uint64
	if conf.MaxRetryAttempts > 1 {
		maxRetries = uint64(conf.MaxRetryAttempts - 1)
	}
	return &processor{
		envelopeChan:      envelopeChan,
		handler:           handler,
		log:               log,
		resultHandler:     resultHandler,
		tracer:            tracer,
		maxRetries:        maxRetries,
		initialBackoff:    conf.InitialBackoff,
		maxBackoff:        conf.MaxBackoff,
		processingTimeout: conf.ProcessingTimeout,
	}
}

func (p *processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case envelope := <-p.envelopeChan:
			p.processEnvelope(ctx, envelope)
		}
	}
}

func (p *processor) processEnvelope(ctx context.Context, envelope *MessageEnvelope) {
	ctx = p.tracer.ExtractContext(ctx, envelope.Message)
	ctx, span := p.tracer.StartConsumerSpan(ctx, envelope.Message)
	defer span.End()
	ctx = tracing.WithTraceLogger(logger.With(ctx, p.log))

	err := envelope.Err
	if err == nil {
		err = p.executeWithRetry(ctx, envelope.Event)
	}
	if ctx.Err() != nil {
		// Shutting down: leave the offset unstored so the message is redelivered.
		return
	}
	p.resultHandler.handle(ctx, err, envelope.Message, span)
}

func (p *processor) executeWithRetry(ctx context.Context, e event.Event) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialBackoff
	b.MaxInterval = p.maxBackoff
	b.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := p.process(ctx, e)
		if errors.Is(err, ErrSkipMessage) || errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		p.logAttempt(ctx, err, attempt, next)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx), notify)
}

func (p *processor) process(ctx context.Context, e event.Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.processingTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w", ErrPermanent, &panicError{Panic: r, Stack: debug.Stack()})
		}
	}()

	return p.handler.Process(ctx, e)
}

func (p *processor) logAttempt(ctx context.Context, err error, attempt int, next time.Duration) {
	logger.Get(ctx).Warn("failed to process event, retrying",
		zap.Int("attempt", attempt),
		zap.Uint64("max_retries", p.maxRetries),
		zap.Duration("next_backoff", next),
		zap.Error(err))
}
