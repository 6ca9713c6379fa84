package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestProcessor(handler Handler, modify ...func(p *processor)) (*processor, *mockOffsetStorer, *mockDLQHandler) {
	offsets := &mockOffsetStorer{}
	dlq := &mockDLQHandler{}
	rh := newResultHandler(zap.NewNop(), dlq, offsets)
	p := newProcessor(make(chan *MessageEnvelope, 1), handler, zap.NewNop(), rh, mockTracer{}, testConsumerConfig())
	for _, m := range modify {
		m(p)
	}
	return p, offsets, dlq
}

func TestNewProcessor(t *testing.T) {
	conf := testConsumerConfig()
	conf.MaxRetryAttempts = 5

	p := newProcessor(nil, &mockHandler{}, zap.NewNop(), nil, mockTracer{}, conf)

	assert.Equal(t, uint64(4), p.maxRetries)
	assert.Equal(t, 10*time.Millisecond, p.initialBackoff)
	assert.Equal(t, 50*time.Millisecond, p.maxBackoff)
	assert.Equal(t, time.Second, p.processingTimeout)
}

func TestProcessor_ExecuteWithRetry(t *testing.T) {
	e := event.New([]byte(`{"a":"1"}`), nil)

	t.Run("succeeds on first attempt", func(t *testing.T) {
		handler := &mockHandler{}
		p, _, _ := newTestProcessor(handler)

		err := p.executeWithRetry(context.Background(), e)

		assert.NoError(t, err)
		assert.Equal(t, int32(1), handler.callCount.Load())
	})

	t.Run("retries transient error and succeeds", func(t *testing.T) {
		var attempts atomic.Int32
		handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
			if attempts.Add(1) < 3 {
				return errors.New("store unavailable")
			}
			return nil
		}}
		p, _, _ := newTestProcessor(handler)

		err := p.executeWithRetry(context.Background(), e)

		assert.NoError(t, err)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
			return errors.New("store unavailable")
		}}
		p, _, _ := newTestProcessor(handler)

		err := p.executeWithRetry(context.Background(), e)

		require.Error(t, err)
		assert.Equal(t, int32(3), handler.callCount.Load())
	})

	t.Run("does not retry skip or permanent errors", func(t *testing.T) {
		for _, sentinel := range []error{ErrSkipMessage, ErrPermanent} {
			handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
				return fmt.Errorf("wrapped: %w", sentinel)
			}}
			p, _, _ := newTestProcessor(handler)

			err := p.executeWithRetry(context.Background(), e)

			assert.ErrorIs(t, err, sentinel)
			assert.Equal(t, int32(1), handler.callCount.Load())
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
			return errors.New("store unavailable")
		}}
		p, _, _ := newTestProcessor(handler, func(p *processor) { p.maxRetries = 10 })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := p.executeWithRetry(ctx, e)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), handler.callCount.Load())
	})
}

func TestProcessor_Process(t *testing.T) {
	e := event.New([]byte(`{"a":"1"}`), nil)

	t.Run("recovers from panic as permanent error", func(t *testing.T) {
		handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
			panic("boom")
		}}
		p, _, _ := newTestProcessor(handler)

		err := p.process(context.Background(), e)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPermanent)
		var pe *panicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "boom", pe.Panic)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("applies processing timeout", func(t *testing.T) {
		handler := &mockHandler{processFunc: func(ctx context.Context, _ event.Event) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		p, _, _ := newTestProcessor(handler, func(p *processor) { p.processingTimeout = 50 * time.Millisecond })

		start := time.Now()
		err := p.process(context.Background(), e)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestProcessor_ProcessEnvelope(t *testing.T) {
	t.Run("stores offset after success", func(t *testing.T) {
		// Given
		var got event.Event
		handler := &mockHandler{processFunc: func(_ context.Context, e event.Event) error {
			got = e
			return nil
		}}
		p, offsets, dlq := newTestProcessor(handler)
		msg := testMessage(`{"a":"1"}`)

		// When
		p.processEnvelope(context.Background(), &MessageEnvelope{Message: msg, Event: event.New(msg.Value, nil)})

		// Then
		assert.Equal(t, msg.Value, got.Body)
		assert.Equal(t, []*kafka.Message{msg}, offsets.stored())
		assert.Empty(t, dlq.sent())
	})

	t.Run("sends decode failure to DLQ without calling handler", func(t *testing.T) {
		handler := &mockHandler{}
		p, offsets, dlq := newTestProcessor(handler)
		msg := testMessage("not avro")
		decodeErr := fmt.Errorf("%w: decode: bad", ErrPermanent)

		p.processEnvelope(context.Background(), &MessageEnvelope{Message: msg, Err: decodeErr})

		assert.Zero(t, handler.callCount.Load())
		require.Len(t, dlq.sent(), 1)
		assert.ErrorIs(t, dlq.sent()[0].err, ErrPermanent)
		assert.Len(t, offsets.stored(), 1)
	})

	t.Run("leaves offset unstored on shutdown", func(t *testing.T) {
		handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
			return errors.New("store unavailable")
		}}
		p, offsets, dlq := newTestProcessor(handler)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		msg := testMessage(`{"a":"1"}`)

		p.processEnvelope(ctx, &MessageEnvelope{Message: msg, Event: event.New(msg.Value, nil)})

		assert.Empty(t, offsets.stored())
		assert.Empty(t, dlq.sent())
	})
}

func TestProcessor_ProcessEnvelope_TraceLogging(t *testing.T) {
	// Given
	core, logs := observer.New(zap.WarnLevel)
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var calls atomic.Int32
	handler := &mockHandler{processFunc: func(context.Context, event.Event) error {
		if calls.Add(1) == 1 {
			return errors.New("store unavailable")
		}
		return nil
	}}
	rh := newResultHandler(zap.NewNop(), &mockDLQHandler{}, &mockOffsetStorer{})
	p := newProcessor(nil, handler, zap.New(core), rh, newMessageTracer(tp), testConsumerConfig())
	msg := testMessage(`{"a":"1"}`)

	// When
	p.processEnvelope(context.Background(), &MessageEnvelope{Message: msg, Event: event.New(msg.Value, nil)})

	// Then
	retries := logs.FilterMessage("failed to process event, retrying").All()
	require.Len(t, retries, 1)
	fields := retries[0].ContextMap()
	assert.NotEmpty(t, fields["trace_id"])
	assert.NotEmpty(t, fields["span_id"])
}

func TestProcessor_Run(t *testing.T) {
	p, _, _ := newTestProcessor(&mockHandler{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("processor did not stop on context cancellation")
	}
}

func TestPanicError(t *testing.T) {
	assert.Equal(t, "panic: 42", (&panicError{Panic: 42}).Error())
}
