package serializer

import (
	"github.com/Sokol111/eventsink/pkg/mutation"
	"go.uber.org/zap"
)

// SimpleSerializer writes the whole event body into payloadColumn under a row
// key of rowPrefix followed by a suffix chosen by the suffix option.
// Nothing is written when payloadColumn is absent.
type SimpleSerializer struct {
	base
}

// NewSimpleSerializer creates an unconfigured simple serializer.
func NewSimpleSerializer(log *zap.Logger, opts ...Option) *SimpleSerializer {
	return &SimpleSerializer{base: newBase(log, opts)}
}

func (s *SimpleSerializer) Actions() ([]mutation.Put, error) {
	next, body, err := s.st.drain()
	if err != nil {
		return nil, err
	}
	s.st = next

	if len(s.conf.PayloadColumn) == 0 {
		return []mutation.Put{}, nil
	}

	now := s.opts.clock()
	return []mutation.Put{{
		Table:     s.table,
		RowKey:    SuffixKey(s.conf.RowPrefix, s.conf.KeyType, now, s.opts.rnd),
		Family:    s.cf,
		Qualifier: s.conf.PayloadColumn,
		Value:     append([]byte(nil), body...),
		Timestamp: now.UnixMilli(),
	}}, nil
}
