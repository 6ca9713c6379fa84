package sink

import (
	"fmt"

	"github.com/Sokol111/eventsink/pkg/serializer"
	"github.com/spf13/viper"
)

const defaultBatchSize = 100

type Config struct {
	Table        string `mapstructure:"table"`
	ColumnFamily string `mapstructure:"column-family"`
	Serializer   string `mapstructure:"serializer"`
	BatchSize    int    `mapstructure:"batch-size"`

	// SerializerConfig is read separately to keep the case of option names.
	SerializerConfig map[string]string `mapstructure:"-"`
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if sub := v.Sub("sink"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load sink config: %w", err)
		}
	}

	bag, err := serializer.ReadBag(v, "sink.serializer-config")
	if err != nil {
		return cfg, err
	}
	cfg.SerializerConfig = bag

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Serializer == "" {
		cfg.Serializer = serializer.KindJSON
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.SerializerConfig == nil {
		cfg.SerializerConfig = map[string]string{}
	}
}

// Validate reports a *serializer.ConfigError for missing destination names.
func (c Config) Validate() error {
	if c.Table == "" {
		return &serializer.ConfigError{Key: "sink.table", Reason: "table is required"}
	}
	if c.ColumnFamily == "" {
		return &serializer.ConfigError{Key: "sink.column-family", Reason: "column family is required"}
	}
	return nil
}
