package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockProducer struct {
	produceSyncFunc func(ctx context.Context, msg *kafka.Message) error
	sent            []*kafka.Message
}

func (m *mockProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockProducer) ProduceSync(ctx context.Context, msg *kafka.Message) error {
	m.sent = append(m.sent, msg)
	if m.produceSyncFunc != nil {
		return m.produceSyncFunc(ctx, msg)
	}
	return nil
}

func header(msg *kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDLQHandler_SendToDLQ(t *testing.T) {
	t.Run("copies message and adds failure headers", func(t *testing.T) {
		// Given
		p := &mockProducer{}
		h := newDLQHandler(p, "test-topic.dlq", mockTracer{}, zap.NewNop()).(*dlqHandler)
		h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
		msg := testMessage(`{"a":"1"}`)
		msg.Headers = []kafka.Header{{Key: "source", Value: []byte("web")}}

		// When
		h.SendToDLQ(context.Background(), msg, errors.New("failed to parse json"))

		// Then
		require.Len(t, p.sent, 1)
		out := p.sent[0]
		assert.Equal(t, "test-topic.dlq", *out.TopicPartition.Topic)
		assert.Equal(t, msg.Key, out.Key)
		assert.Equal(t, msg.Value, out.Value)
		assert.Equal(t, "web", header(out, "source"))
		assert.Equal(t, "test-topic", header(out, headerDLQOriginalTopic))
		assert.Equal(t, "0", header(out, headerDLQOriginalPartition))
		assert.Equal(t, "100", header(out, headerDLQOriginalOffset))
		assert.Equal(t, "failed to parse json", header(out, headerDLQError))
		assert.Equal(t, "2024-05-01T12:00:00Z", header(out, headerDLQTimestamp))
		assert.Len(t, msg.Headers, 1, "original message headers must not change")
	})

	t.Run("logs delivery failure", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		p := &mockProducer{produceSyncFunc: func(context.Context, *kafka.Message) error {
			return errors.New("broker down")
		}}
		h := newDLQHandler(p, "test-topic.dlq", mockTracer{}, zap.New(core))

		h.SendToDLQ(context.Background(), testMessage("x"), errors.New("boom"))

		assert.Equal(t, 1, logs.FilterMessage("failed to send message to DLQ").Len())
	})
}

func TestNoopDLQHandler(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newNoopDLQHandler(zap.New(core))

	h.SendToDLQ(context.Background(), testMessage("x"), errors.New("boom"))

	assert.Equal(t, 1, logs.Len())
}
