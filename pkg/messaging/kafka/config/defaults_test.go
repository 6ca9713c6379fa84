package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyConsumerDefaults_AllDefaults(t *testing.T) {
	consumer := &ConsumerConfig{Topic: "test-topic", GroupID: "g"}

	applyConsumerDefaults(consumer)

	assert.Equal(t, defaultConsumerName, consumer.Name)
	assert.Equal(t, "earliest", consumer.AutoOffsetReset)
	assert.Equal(t, "raw", consumer.Format)
	assert.Equal(t, defaultConsumerReadinessTimeout, consumer.ReadinessTimeoutSeconds)
	assert.Equal(t, defaultMaxRetryAttempts, consumer.MaxRetryAttempts)
	assert.Equal(t, defaultInitialBackoff, consumer.InitialBackoff)
	assert.Equal(t, defaultMaxBackoff, consumer.MaxBackoff)
	assert.Equal(t, defaultProcessingTimeout, consumer.ProcessingTimeout)
	assert.Equal(t, defaultChannelBufferSize, consumer.ChannelBufferSize)
}

func TestApplyConsumerDefaults_CustomValues(t *testing.T) {
	consumer := &ConsumerConfig{
		Name:              "custom",
		Topic:             "test-topic",
		AutoOffsetReset:   "latest",
		Format:            "avro",
		MaxRetryAttempts:  7,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        time.Minute,
		ProcessingTimeout: 5 * time.Second,
		ChannelBufferSize: 20,
	}

	applyConsumerDefaults(consumer)

	assert.Equal(t, "custom", consumer.Name)
	assert.Equal(t, "latest", consumer.AutoOffsetReset)
	assert.Equal(t, "avro", consumer.Format)
	assert.Equal(t, 7, consumer.MaxRetryAttempts)
	assert.Equal(t, 200*time.Millisecond, consumer.InitialBackoff)
	assert.Equal(t, time.Minute, consumer.MaxBackoff)
	assert.Equal(t, 5*time.Second, consumer.ProcessingTimeout)
	assert.Equal(t, 20, consumer.ChannelBufferSize)
}

func TestApplyConsumerDefaults_DLQTopicNaming(t *testing.T) {
	tests := []struct {
		name     string
		consumer ConsumerConfig
		expected string
	}{
		{"dlq disabled", ConsumerConfig{Topic: "orders"}, ""},
		{"dlq enabled without topic", ConsumerConfig{Topic: "orders", EnableDLQ: true}, "orders.dlq"},
		{"dlq enabled with topic", ConsumerConfig{Topic: "orders", EnableDLQ: true, DLQTopic: "dead"}, "dead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.consumer
			applyConsumerDefaults(&c)
			assert.Equal(t, tt.expected, c.DLQTopic)
		})
	}
}
