package serializer

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError.
	ErrConfig = errors.New("serializer configuration error")

	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("event payload decode error")

	// ErrInvariant matches every *InvariantError.
	ErrInvariant = errors.New("serializer lifecycle violation")
)

// ConfigError reports configuration that cannot be read or is missing a required field.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid serializer configuration [%s]: %s", e.Key, e.Reason)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// DecodeError reports a payload that is not a flat JSON object of strings.
// It never leaves the serializer; Actions logs it and returns no puts.
type DecodeError struct {
	// Input is the extracted text that failed to decode.
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return "failed to parse json: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// InvariantError reports an operation called in a phase that does not allow it.
type InvariantError struct {
	Op    string
	Phase Phase
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }
