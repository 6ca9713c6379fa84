// Package sink drives a serializer over incoming events and hands the
// resulting mutations to a cell store.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/mutation"
	"github.com/Sokol111/eventsink/pkg/serializer"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Store applies mutation batches to the wide-column backend.
type Store interface {
	Apply(ctx context.Context, batch mutation.Batch) error
}

// Sink is safe for concurrent use. Events are serialized one at a time since
// a serializer instance is single-threaded.
type Sink struct {
	mu         sync.Mutex
	serializer serializer.EventSerializer

	store     Store
	log       *zap.Logger
	metrics   *sinkMetrics
	batchSize int
}

// New configures and initializes a serializer for conf and wraps it with store.
func New(conf Config, store Store, log *zap.Logger, mp metric.MeterProvider, opts ...serializer.Option) (*Sink, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	applyDefaults(&conf)

	log = log.With(zap.String("component", "sink"), zap.String("table", conf.Table))

	ser, err := serializer.New(conf.Serializer, log, opts...)
	if err != nil {
		return nil, err
	}
	if err := ser.Configure(conf.SerializerConfig); err != nil {
		return nil, err
	}
	if err := ser.Initialize([]byte(conf.Table), []byte(conf.ColumnFamily)); err != nil {
		return nil, err
	}

	m, err := newSinkMetrics(mp, conf.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink metrics: %w", err)
	}

	return &Sink{
		serializer: ser,
		store:      store,
		log:        log,
		metrics:    m,
		batchSize:  conf.BatchSize,
	}, nil
}

// Serialize runs one event through the serializer.
func (s *Sink) Serialize(ctx context.Context, e event.Event) (mutation.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch mutation.Batch
	if err := s.serializer.SetEvent(e); err != nil {
		return batch, err
	}
	puts, err := s.serializer.Actions()
	if err != nil {
		return batch, err
	}
	incs, err := s.serializer.Increments()
	if err != nil {
		return batch, err
	}

	batch.Add(puts, incs)
	s.metrics.recordEvent(ctx, len(puts), len(incs))
	return batch, nil
}

// Write serializes events and applies the result in a single store call.
func (s *Sink) Write(ctx context.Context, events ...event.Event) error {
	var batch mutation.Batch
	for _, e := range events {
		b, err := s.Serialize(ctx, e)
		if err != nil {
			return err
		}
		batch.Add(b.Puts, b.Increments)
	}

	if batch.Empty() {
		return nil
	}

	if err := s.store.Apply(ctx, batch); err != nil {
		s.metrics.recordStoreFailure(ctx)
		return fmt.Errorf("failed to apply batch of %d mutations: %w", batch.Len(), err)
	}

	s.log.Debug("batch applied",
		zap.Int("events", len(events)),
		zap.Int("puts", len(batch.Puts)),
		zap.Int("increments", len(batch.Increments)))
	return nil
}

// Process writes a single event. It satisfies the Kafka consumer handler.
func (s *Sink) Process(ctx context.Context, e event.Event) error {
	return s.Write(ctx, e)
}

// BatchSize is the configured number of events per store call.
func (s *Sink) BatchSize() int {
	return s.batchSize
}

// Close releases the serializer. The sink must not be used afterwards.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serializer.CleanUp()
}
