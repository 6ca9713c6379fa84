package serializer

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Recognised configuration keys.
const (
	KeyPayloadColumn   = "payloadColumn"
	KeyIncrementColumn = "incrementColumn"
	KeyRowPrefix       = "rowPrefix"
	KeySuffix          = "suffix"
	KeyIncrementRow    = "incrementRow"
)

const (
	defaultRowPrefix    = "default"
	defaultSuffix       = "uuid"
	defaultIncrementRow = "incRow"
)

// KeyType selects the row key suffix of the simple serializer.
type KeyType int

const (
	KeyTypeUUID KeyType = iota
	KeyTypeRandom
	KeyTypeTS
	KeyTypeTSNano
)

func (k KeyType) String() string {
	switch k {
	case KeyTypeRandom:
		return "random"
	case KeyTypeTS:
		return "timestamp"
	case KeyTypeTSNano:
		return "nano"
	default:
		return "uuid"
	}
}

// parseKeyType maps a suffix option to a KeyType. Unknown values fall back to UUID.
func parseKeyType(suffix string) KeyType {
	switch suffix {
	case "timestamp":
		return KeyTypeTS
	case "random":
		return KeyTypeRandom
	case "nano":
		return KeyTypeTSNano
	default:
		return KeyTypeUUID
	}
}

// Config is the bound, read-only parameter set of a serializer instance.
type Config struct {
	// PayloadColumn is nil when the option is absent.
	PayloadColumn []byte
	// IncrementColumn is nil when no counter should be incremented.
	IncrementColumn []byte
	RowPrefix       string
	KeyType         KeyType
	IncrementRow    []byte
}

// HasIncrement reports whether a counter column is configured.
func (c Config) HasIncrement() bool {
	return len(c.IncrementColumn) > 0
}

// Bind reads the recognised options from bag. Missing values fall back to defaults
// and unknown keys are ignored. The suffix option is only parsed when a payload
// column is present.
func Bind(bag map[string]string) Config {
	conf := Config{
		RowPrefix:    getString(bag, KeyRowPrefix, defaultRowPrefix),
		IncrementRow: []byte(getString(bag, KeyIncrementRow, defaultIncrementRow)),
	}

	if pCol := bag[KeyPayloadColumn]; pCol != "" {
		conf.KeyType = parseKeyType(getString(bag, KeySuffix, defaultSuffix))
		conf.PayloadColumn = []byte(pCol)
	}
	if iCol := bag[KeyIncrementColumn]; iCol != "" {
		conf.IncrementColumn = []byte(iCol)
	}

	return conf
}

func getString(bag map[string]string, key, def string) string {
	if v, ok := bag[key]; ok {
		return v
	}
	return def
}

// ReadBag loads the string bag stored under key. A missing key yields an empty bag.
// Case of the option names is preserved, since viper lowercases map keys.
func ReadBag(v *viper.Viper, key string) (map[string]string, error) {
	raw := v.Get(key)
	if raw == nil {
		return map[string]string{}, nil
	}

	bag, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, &ConfigError{Key: key, Reason: "expected a map of strings", Err: err}
	}

	return restoreKeyCase(bag), nil
}

var knownKeys = []string{KeyPayloadColumn, KeyIncrementColumn, KeyRowPrefix, KeySuffix, KeyIncrementRow}

func restoreKeyCase(bag map[string]string) map[string]string {
	out := make(map[string]string, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	for _, known := range knownKeys {
		lower := strings.ToLower(known)
		if v, ok := out[lower]; ok && lower != known {
			if _, exists := out[known]; !exists {
				out[known] = v
			}
			delete(out, lower)
		}
	}
	return out
}
