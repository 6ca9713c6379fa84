package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const envConfigFile = "CONFIG_FILE"

type viperConfig struct {
	configPath   *string
	noConfigFile bool
}

// ViperOption configures NewViperModule.
type ViperOption func(*viperConfig)

// WithConfigPath reads the given file instead of CONFIG_FILE.
func WithConfigPath(path string) ViperOption {
	return func(cfg *viperConfig) {
		cfg.configPath = &path
	}
}

// WithoutConfigFile leaves viper backed by environment variables only.
func WithoutConfigFile() ViperOption {
	return func(cfg *viperConfig) {
		cfg.noConfigFile = true
	}
}

// FilePath is the configuration file to read. Empty means none.
type FilePath string

// NewViperModule provides *viper.Viper. Keys can be overridden from the
// environment with dots and dashes replaced by underscores, so
// sink.column-family becomes SINK_COLUMN_FAMILY.
func NewViperModule(opts ...ViperOption) fx.Option {
	cfg := &viperConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Module("viper",
		fx.Supply(resolveConfigPath(cfg)),
		fx.Provide(NewViper),
		fx.Invoke(logViperConfig),
	)
}

func logViperConfig(log *zap.Logger, v *viper.Viper) {
	file := v.ConfigFileUsed()
	if file == "" {
		log.Info("no config file, using environment only")
		return
	}
	log.Info("configuration loaded",
		zap.String("config_file", file),
		zap.Strings("keys", v.AllKeys()))
}

func resolveConfigPath(cfg *viperConfig) FilePath {
	switch {
	case cfg.noConfigFile:
		return ""
	case cfg.configPath != nil:
		return FilePath(*cfg.configPath)
	default:
		return FilePath(os.Getenv(envConfigFile))
	}
}

// NewViper builds a viper instance reading configFile (if set) with
// environment overrides enabled.
func NewViper(configFile FilePath) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(string(configFile))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}
	return v, nil
}
