package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockMetadataProvider struct {
	getMetadataFunc func(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

func (m *mockMetadataProvider) GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error) {
	if m.getMetadataFunc != nil {
		return m.getMetadataFunc(topic, allTopics, timeoutMs)
	}
	return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1}}}, nil
}

func unreachable() *mockMetadataProvider {
	return &mockMetadataProvider{
		getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
			return nil, errors.New("no brokers")
		},
	}
}

func TestWaitForBrokers(t *testing.T) {
	t.Run("returns nil when brokers are available", func(t *testing.T) {
		err := waitForBrokers(context.Background(), &mockMetadataProvider{}, zap.NewNop(), 5, true)

		assert.NoError(t, err)
	})

	t.Run("returns deadline error when failOnError is true", func(t *testing.T) {
		err := waitForBrokers(context.Background(), unreachable(), zap.NewNop(), 1, true)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("swallows timeout when failOnError is false", func(t *testing.T) {
		err := waitForBrokers(context.Background(), unreachable(), zap.NewNop(), 1, false)

		assert.NoError(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := waitForBrokers(ctx, unreachable(), zap.NewNop(), 0, true)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPollBrokers(t *testing.T) {
	t.Run("keeps polling until brokers are listed", func(t *testing.T) {
		callCount := 0
		mock := &mockMetadataProvider{
			getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
				callCount++
				switch {
				case callCount == 1:
					return nil, errors.New("no brokers")
				case callCount == 2:
					return &kafka.Metadata{}, nil
				default:
					return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1}}}, nil
				}
			},
		}

		err := pollBrokers(context.Background(), mock)

		assert.NoError(t, err)
		assert.Equal(t, 3, callCount)
	})

	t.Run("returns error on context timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := pollBrokers(ctx, unreachable())

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
