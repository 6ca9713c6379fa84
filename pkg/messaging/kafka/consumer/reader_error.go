package consumer

import (
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type readerErrorKind int

const (
	readerErrorTimeout readerErrorKind = iota
	readerErrorFatal
	readerErrorTemporary
	readerErrorUnknown
)

// readerError classifies a ReadMessage failure.
// key groups errors of the same cause for log throttling.
type readerError struct {
	err         error
	kind        readerErrorKind
	key         string
	description string
}

func (e *readerError) Error() string {
	if e.description == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %v", e.description, e.err)
}

func (e *readerError) Unwrap() error {
	return e.err
}

func (e *readerError) isTimeout() bool   { return e.kind == readerErrorTimeout }
func (e *readerError) isFatal() bool     { return e.kind == readerErrorFatal }
func (e *readerError) isTemporary() bool { return e.kind == readerErrorTemporary }

func wrapReaderError(err error) *readerError {
	if err == nil {
		return nil
	}

	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return &readerError{err: err, kind: readerErrorUnknown, key: "non_kafka_error", description: "non-kafka error"}
	}

	switch {
	case kafkaErr.IsTimeout():
		return &readerError{err: err, kind: readerErrorTimeout}
	case kafkaErr.IsFatal():
		return &readerError{err: err, kind: readerErrorFatal, description: "fatal kafka error, consumer is no longer operable"}
	}

	switch kafkaErr.Code() {
	case kafka.ErrUnknownTopicOrPart:
		return &readerError{err: err, kind: readerErrorTemporary, key: "topic_not_found", description: "topic not available, waiting for topic creation"}
	case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrNetworkException:
		return &readerError{err: err, kind: readerErrorTemporary, key: "broker_connection", description: "broker connection issue, retrying"}
	case kafka.ErrLeaderNotAvailable, kafka.ErrNotLeaderForPartition:
		return &readerError{err: err, kind: readerErrorTemporary, key: "leader_election", description: "partition leader changing, retrying"}
	}

	if kafkaErr.IsRetriable() {
		return &readerError{err: err, kind: readerErrorTemporary, key: "retriable_error", description: "retriable kafka error, retrying"}
	}
	return &readerError{err: err, kind: readerErrorUnknown, key: "unknown_error", description: "unknown kafka error"}
}
