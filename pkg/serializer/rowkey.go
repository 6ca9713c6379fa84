package serializer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Buckets is the number of row key prefixes writes are spread across.
	Buckets = 8

	userKeyField   = "user_key"
	eventTypeField = "event_type"

	anonymousTail = "1-0000000000-0000000000"
)

// RowKeyBuilder composes write-spread, newest-first row keys:
//
//	bucket "-" (MaxInt64 - nowMillis) "-" tail
//
// It is not safe for concurrent use; each serializer owns one.
type RowKeyBuilder struct {
	rnd *rand.Rand
}

// NewRowKeyBuilder creates a builder drawing buckets from rnd.
// A nil rnd selects a randomly seeded per-instance generator.
func NewRowKeyBuilder(rnd *rand.Rand) *RowKeyBuilder {
	if rnd == nil {
		rnd = newRand()
	}
	return &RowKeyBuilder{rnd: rnd}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Build returns the row key for the decoded pairs at nowMillis.
func (b *RowKeyBuilder) Build(pairs map[string]string, nowMillis int64) []byte {
	bucket := strconv.Itoa(b.rnd.IntN(Buckets))
	rts := strconv.FormatInt(math.MaxInt64-nowMillis, 10)

	var tail string
	userKey, hasUser := pairs[userKeyField]
	eventType, hasType := pairs[eventTypeField]
	switch {
	case hasUser && hasType:
		tail = eventType + "-" + userKey
	case hasUser:
		// no separator between the literal and the user key
		tail = "1" + userKey
	default:
		tail = anonymousTail
	}

	return []byte(bucket + "-" + rts + "-" + tail)
}

// RowKey is a parsed row key produced by RowKeyBuilder.
type RowKey struct {
	Bucket           int
	ReverseTimestamp int64
	Tail             string
}

// Timestamp returns the epoch milliseconds the key was built at.
func (k RowKey) Timestamp() int64 {
	return math.MaxInt64 - k.ReverseTimestamp
}

var errMalformedRowKey = errors.New("malformed row key")

// ParseRowKey splits key on its first two '-' separators.
func ParseRowKey(key []byte) (RowKey, error) {
	parts := strings.SplitN(string(key), "-", 3)
	if len(parts) != 3 {
		return RowKey{}, fmt.Errorf("%w: %q", errMalformedRowKey, key)
	}

	bucket, err := strconv.Atoi(parts[0])
	if err != nil || bucket < 0 || bucket >= Buckets {
		return RowKey{}, fmt.Errorf("%w: bucket %q", errMalformedRowKey, parts[0])
	}

	rts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return RowKey{}, fmt.Errorf("%w: reverse timestamp %q: %v", errMalformedRowKey, parts[1], err)
	}

	return RowKey{Bucket: bucket, ReverseTimestamp: rts, Tail: parts[2]}, nil
}

// SuffixKey returns prefix followed by a suffix chosen by kt.
func SuffixKey(prefix string, kt KeyType, now time.Time, rnd *rand.Rand) []byte {
	var suffix string
	switch kt {
	case KeyTypeTS:
		suffix = strconv.FormatInt(now.UnixMilli(), 10)
	case KeyTypeTSNano:
		suffix = strconv.FormatInt(now.UnixNano(), 10)
	case KeyTypeRandom:
		suffix = strconv.FormatInt(rnd.Int64(), 10)
	default:
		suffix = uuid.NewString()
	}
	return []byte(prefix + suffix)
}
