package serializer

import (
	"github.com/Sokol111/eventsink/pkg/mutation"
	"go.uber.org/zap"
)

// JSONSerializer writes each member of a flat JSON object embedded in the event
// body as its own column of a single row.
//
// Options: incrementColumn, incrementRow. payloadColumn, rowPrefix and suffix are
// accepted and bound but do not affect the emitted mutations.
type JSONSerializer struct {
	base
	keys *RowKeyBuilder
}

// NewJSONSerializer creates an unconfigured JSON serializer.
func NewJSONSerializer(log *zap.Logger, opts ...Option) *JSONSerializer {
	b := newBase(log, opts)
	return &JSONSerializer{
		base: b,
		keys: NewRowKeyBuilder(b.opts.rnd),
	}
}

// Actions decodes the armed event and returns one put per JSON member.
// A payload that does not decode is logged and yields no puts.
func (s *JSONSerializer) Actions() ([]mutation.Put, error) {
	next, body, err := s.st.drain()
	if err != nil {
		return nil, err
	}
	s.st = next

	now := s.opts.clock().UnixMilli()
	data := ExtractJSON(body)

	pairs, err := DecodeFlat(data)
	if err != nil {
		s.log.Error("failed to parse json",
			zap.String("payload", string(data)),
			zap.Error(err))
		return []mutation.Put{}, nil
	}

	rowKey := s.keys.Build(pairs, now)
	return PlanPuts(s.table, s.cf, rowKey, pairs, now), nil
}
