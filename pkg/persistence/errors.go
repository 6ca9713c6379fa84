package persistence

import "errors"

var (
	// ErrUnavailable is returned when the store cannot accept more writes in time.
	ErrUnavailable = errors.New("cell store unavailable")

	// ErrPartialWrite is returned when some mutations of a batch were not applied.
	ErrPartialWrite = errors.New("batch partially applied")
)
