package sink

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Sokol111/eventsink/pkg/sink"

type sinkMetrics struct {
	events        metric.Int64Counter
	emptyEvents   metric.Int64Counter
	puts          metric.Int64Counter
	increments    metric.Int64Counter
	storeFailures metric.Int64Counter
	attrs         metric.MeasurementOption
}

func newSinkMetrics(mp metric.MeterProvider, table string) (*sinkMetrics, error) {
	meter := mp.Meter(meterName)
	m := &sinkMetrics{
		attrs: metric.WithAttributes(attribute.String("table", table)),
	}

	var err error
	if m.events, err = meter.Int64Counter("eventsink.events",
		metric.WithDescription("Events passed to the serializer")); err != nil {
		return nil, err
	}
	if m.emptyEvents, err = meter.Int64Counter("eventsink.events.empty",
		metric.WithDescription("Events that produced no puts")); err != nil {
		return nil, err
	}
	if m.puts, err = meter.Int64Counter("eventsink.puts",
		metric.WithDescription("Cell puts planned")); err != nil {
		return nil, err
	}
	if m.increments, err = meter.Int64Counter("eventsink.increments",
		metric.WithDescription("Counter increments planned")); err != nil {
		return nil, err
	}
	if m.storeFailures, err = meter.Int64Counter("eventsink.store.failures",
		metric.WithDescription("Batches the store rejected")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *sinkMetrics) recordEvent(ctx context.Context, puts, incs int) {
	m.events.Add(ctx, 1, m.attrs)
	if puts == 0 {
		m.emptyEvents.Add(ctx, 1, m.attrs)
	}
	m.puts.Add(ctx, int64(puts), m.attrs)
	m.increments.Add(ctx, int64(incs), m.attrs)
}

func (m *sinkMetrics) recordStoreFailure(ctx context.Context) {
	m.storeFailures.Add(ctx, 1, m.attrs)
}
