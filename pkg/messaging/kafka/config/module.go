package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// NewKafkaConfigModule provides Config and its ConsumerConfig.
func NewKafkaConfigModule() fx.Option {
	return fx.Provide(
		newConfig,
		func(c Config) ConsumerConfig { return c.Consumer },
	)
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	sub := v.Sub("kafka")
	if sub == nil {
		return cfg, fmt.Errorf("kafka config section is missing")
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load kafka config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid kafka config: %w", err)
	}
	return cfg, nil
}
