package consumer

import (
	"errors"
	"fmt"
)

var (
	// ErrPermanent marks a failure that retrying cannot fix. The message goes to the DLQ.
	ErrPermanent = errors.New("permanent error")
	// ErrSkipMessage acknowledges the message without processing it.
	ErrSkipMessage = errors.New("skip message")
)

type panicError struct {
	Panic any
	Stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}
