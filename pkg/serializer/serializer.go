// Package serializer turns event payloads into wide-column mutations.
//
// A serializer instance is driven by its host through a fixed call sequence:
//
//	Configure -> Initialize -> (SetEvent -> Actions -> Increments)* -> CleanUp
//
// Instances are single-threaded and perform no I/O. Hosts that process events in
// parallel create one instance per goroutine.
package serializer

import (
	"math/rand/v2"
	"time"

	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/mutation"
	"go.uber.org/zap"
)

// Serializer kinds accepted by New.
const (
	KindJSON   = "json"
	KindSimple = "simple"
)

// EventSerializer is the contract between a sink and a serializer.
type EventSerializer interface {
	// Configure binds the option bag. It may be called once.
	Configure(bag map[string]string) error
	// Initialize sets the destination table and column family.
	Initialize(table, cf []byte) error
	// SetEvent arms the serializer with the next event.
	SetEvent(e event.Event) error
	// Actions returns the puts for the armed event.
	Actions() ([]mutation.Put, error)
	// Increments returns the counter increments for the current event.
	Increments() ([]mutation.Increment, error)
	// CleanUp releases the instance. No call is valid afterwards.
	CleanUp()
}

type options struct {
	clock func() time.Time
	rnd   *rand.Rand
}

// Option customises a serializer instance.
type Option func(*options)

// WithClock overrides the wall clock used for timestamps and row keys.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRand overrides the per-instance random source.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) {
		o.rnd = rnd
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = newRand()
	}
	return o
}

// New creates a serializer of the given kind. An empty kind selects json.
func New(kind string, log *zap.Logger, opts ...Option) (EventSerializer, error) {
	switch kind {
	case "", KindJSON:
		return NewJSONSerializer(log, opts...), nil
	case KindSimple:
		return NewSimpleSerializer(log, opts...), nil
	default:
		return nil, &ConfigError{Key: "serializer", Reason: "unknown serializer kind " + kind}
	}
}

// base holds the lifecycle shared by all serializers.
type base struct {
	log   *zap.Logger
	opts  options
	conf  Config
	table []byte
	cf    []byte
	st    state
}

func newBase(log *zap.Logger, opts []Option) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{log: log, opts: buildOptions(opts)}
}

func (b *base) Configure(bag map[string]string) error {
	next, err := b.st.configure()
	if err != nil {
		return err
	}
	b.conf = Bind(bag)
	b.st = next
	return nil
}

func (b *base) Initialize(table, cf []byte) error {
	next, err := b.st.initialize()
	if err != nil {
		return err
	}
	if len(table) == 0 {
		return &ConfigError{Key: "table", Reason: "table name is required"}
	}
	if len(cf) == 0 {
		return &ConfigError{Key: "cf", Reason: "column family is required"}
	}
	b.table = append([]byte(nil), table...)
	b.cf = append([]byte(nil), cf...)
	b.st = next
	return nil
}

func (b *base) SetEvent(e event.Event) error {
	next, err := b.st.arm(e.Body)
	if err != nil {
		return err
	}
	b.st = next
	return nil
}

func (b *base) Increments() ([]mutation.Increment, error) {
	if err := b.st.requireEvent("Increments"); err != nil {
		return nil, err
	}
	return PlanIncrements(b.table, b.cf, b.conf), nil
}

func (b *base) CleanUp() {
	b.st = b.st.close()
}

// Phase reports the current lifecycle phase.
func (b *base) Phase() Phase {
	return b.st.phase
}

// Config returns the bound configuration.
func (b *base) Config() Config {
	return b.conf
}
