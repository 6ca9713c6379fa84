package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultPort = 8080

type Config struct {
	// Enabled turns the probe server off when explicitly false.
	Enabled *bool `mapstructure:"enabled"`
	Port    int   `mapstructure:"port"`

	Connection ConnectionConfig `mapstructure:"connection"`
}

// ConnectionConfig contains low-level HTTP server connection settings.
type ConnectionConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ReadTimeout       time.Duration `mapstructure:"read-timeout"`
	WriteTimeout      time.Duration `mapstructure:"write-timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle-timeout"`
	MaxHeaderBytes    int           `mapstructure:"max-header-bytes"`
}

// IsEnabled reports whether the server should listen.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if sub := v.Sub("server"); sub != nil {
		if err := sub.UnmarshalExact(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load server config: %w", err)
		}
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	logger.Info("loaded server config",
		zap.Bool("enabled", cfg.IsEnabled()),
		zap.Int("port", cfg.Port))
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	c.Connection.setDefaults()
}

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server config: port %d out of range", c.Port)
	}
	return nil
}

// Probes are tiny, so the limits are tighter than for an API server.
func (c *ConnectionConfig) setDefaults() {
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 64 << 10
	}
}
