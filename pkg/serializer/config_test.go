package serializer

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		conf := Bind(map[string]string{})

		assert.Nil(t, conf.PayloadColumn)
		assert.Nil(t, conf.IncrementColumn)
		assert.False(t, conf.HasIncrement())
		assert.Equal(t, "default", conf.RowPrefix)
		assert.Equal(t, KeyTypeUUID, conf.KeyType)
		assert.Equal(t, []byte("incRow"), conf.IncrementRow)
	})

	t.Run("nil bag", func(t *testing.T) {
		conf := Bind(nil)

		assert.Equal(t, "default", conf.RowPrefix)
	})

	t.Run("all options", func(t *testing.T) {
		conf := Bind(map[string]string{
			KeyPayloadColumn:   "p",
			KeyIncrementColumn: "n",
			KeyRowPrefix:       "r_",
			KeySuffix:          "nano",
			KeyIncrementRow:    "counters",
			"unknown":          "ignored",
		})

		assert.Equal(t, []byte("p"), conf.PayloadColumn)
		assert.Equal(t, []byte("n"), conf.IncrementColumn)
		assert.True(t, conf.HasIncrement())
		assert.Equal(t, "r_", conf.RowPrefix)
		assert.Equal(t, KeyTypeTSNano, conf.KeyType)
		assert.Equal(t, []byte("counters"), conf.IncrementRow)
	})

	t.Run("suffix ignored without payload column", func(t *testing.T) {
		conf := Bind(map[string]string{KeySuffix: "timestamp"})

		assert.Equal(t, KeyTypeUUID, conf.KeyType)
	})

	t.Run("empty increment column is absent", func(t *testing.T) {
		conf := Bind(map[string]string{KeyIncrementColumn: ""})

		assert.False(t, conf.HasIncrement())
	})
}

func TestParseKeyType(t *testing.T) {
	tests := map[string]KeyType{
		"timestamp": KeyTypeTS,
		"random":    KeyTypeRandom,
		"nano":      KeyTypeTSNano,
		"uuid":      KeyTypeUUID,
		"other":     KeyTypeUUID,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseKeyType(in), in)
	}
}

func TestReadBag(t *testing.T) {
	t.Run("restores option case", func(t *testing.T) {
		// Given
		v := viper.New()
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(`
sink:
  serializer-config:
    incrementColumn: n
    rowPrefix: r_
    custom: x
`)))

		// When
		bag, err := ReadBag(v, "sink.serializer-config")

		// Then
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			KeyIncrementColumn: "n",
			KeyRowPrefix:       "r_",
			"custom":           "x",
		}, bag)
	})

	t.Run("missing key", func(t *testing.T) {
		bag, err := ReadBag(viper.New(), "sink.serializer-config")

		require.NoError(t, err)
		assert.Empty(t, bag)
	})

	t.Run("not a map", func(t *testing.T) {
		v := viper.New()
		v.Set("sink.serializer-config", []int{1, 2})

		_, err := ReadBag(v, "sink.serializer-config")

		require.ErrorIs(t, err, ErrConfig)
		var confErr *ConfigError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, "sink.serializer-config", confErr.Key)
	})
}
