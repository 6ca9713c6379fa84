// Package event holds the event model delivered to serializers and the codecs
// that turn transport messages into events.
package event

// Event is an opaque body plus string headers.
// Serializers in this module read only the body.
type Event struct {
	Body    []byte
	Headers map[string]string
}

// New creates an event with a copy of the given headers.
func New(body []byte, headers map[string]string) Event {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return Event{Body: body, Headers: h}
}
