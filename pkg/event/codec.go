package event

import (
	"errors"
	"fmt"

	hambavro "github.com/hamba/avro/v2"
)

const (
	FormatRaw  = "raw"
	FormatAvro = "avro"
)

// flumeEventSchema is the record layout used by Flume avro sources and channels.
const flumeEventSchema = `{
  "type": "record",
  "name": "AvroFlumeEvent",
  "namespace": "org.apache.flume.source.avro",
  "fields": [
    {"name": "headers", "type": {"type": "map", "values": "string"}},
    {"name": "body", "type": "bytes"}
  ]
}`

// Codec converts a transport message value into an Event.
type Codec interface {
	Decode(value []byte, headers map[string]string) (Event, error)
}

// NewCodec returns the codec registered for format. An empty format selects raw.
func NewCodec(format string) (Codec, error) {
	switch format {
	case "", FormatRaw:
		return RawCodec{}, nil
	case FormatAvro:
		return NewAvroCodec()
	default:
		return nil, fmt.Errorf("unsupported event format: %s", format)
	}
}

// RawCodec uses the message value as the event body and transport headers as event headers.
type RawCodec struct{}

func (RawCodec) Decode(value []byte, headers map[string]string) (Event, error) {
	return New(value, headers), nil
}

type flumeEvent struct {
	Headers map[string]string `avro:"headers"`
	Body    []byte            `avro:"body"`
}

// AvroCodec decodes values carrying an avro-encoded Flume event.
// Headers embedded in the record take precedence over transport headers.
type AvroCodec struct {
	schema hambavro.Schema
}

// NewAvroCodec parses the Flume event schema.
func NewAvroCodec() (*AvroCodec, error) {
	schema, err := hambavro.Parse(flumeEventSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flume event schema: %w", err)
	}
	return &AvroCodec{schema: schema}, nil
}

// ErrTrailingBytes reports an avro value with bytes left after the Flume record.
var ErrTrailingBytes = errors.New("trailing bytes after avro record")

// Decode reads exactly one Flume record from value. Short reads and leftover
// bytes are both errors.
func (c *AvroCodec) Decode(value []byte, headers map[string]string) (Event, error) {
	var fe flumeEvent
	r := hambavro.NewReader(nil, 0).Reset(value)
	r.ReadVal(c.schema, &fe)
	if r.Error != nil {
		return Event{}, fmt.Errorf("failed to unmarshal avro event: %w", r.Error)
	}
	// Peek sets io.EOF only when the value is fully consumed.
	r.Peek()
	if r.Error == nil {
		return Event{}, fmt.Errorf("failed to unmarshal avro event: %w", ErrTrailingBytes)
	}

	ev := New(fe.Body, headers)
	for k, v := range fe.Headers {
		ev.Headers[k] = v
	}
	return ev, nil
}

// Encode serializes an event into the Flume avro record.
func (c *AvroCodec) Encode(e Event) ([]byte, error) {
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	body := e.Body
	if body == nil {
		body = []byte{}
	}
	data, err := hambavro.Marshal(c.schema, flumeEvent{Headers: headers, Body: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal avro event: %w", err)
	}
	return data, nil
}
