// Package config handles configuration loading and validation for winframe
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vegasq/winframe/internal/logger"
	"github.com/vegasq/winframe/output"
	"github.com/vegasq/winframe/window"
)

// EnvPrefix prefixes environment overrides, e.g. WINFRAME_ENGINE_WORKERS.
const EnvPrefix = "WINFRAME"

// Config holds all configuration for winframe
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
}

// EngineConfig holds window engine configuration
type EngineConfig struct {
	// Workers is the partition worker count; 0 means GOMAXPROCS
	Workers int `mapstructure:"workers"`
	// NullPlacement is "smallest" or "largest"
	NullPlacement string `mapstructure:"null_placement"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// OutputConfig holds result output configuration
type OutputConfig struct {
	Format string `mapstructure:"format"`
	// Limit caps printed rows; 0 prints all
	Limit int `mapstructure:"limit"`
}

// Default configuration values
func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:       0,
			NullPlacement: "smallest",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Output: OutputConfig{
			Format: string(output.FormatJSONL),
			Limit:  0,
		},
	}
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"workers":    "engine.workers",
	"nulls":      "engine.null_placement",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-output": "log.output",
	"format":     "output.format",
	"limit":      "output.limit",
}

// Load reads configuration from defaults, the config file, the environment
// and flags, in increasing precedence. An empty configPath searches
// winframe.yaml in . and $HOME/.winframe; a missing file there is not an
// error. flags may be nil; flags it lacks are skipped.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("engine.workers", cfg.Engine.Workers)
	v.SetDefault("engine.null_placement", cfg.Engine.NullPlacement)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.limit", cfg.Output.Limit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.SetConfigName("winframe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.winframe")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
				}
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	if c.Engine.Workers < 0 {
		return errors.Newf("engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	if _, err := window.ParseNullPlacement(c.Engine.NullPlacement); err != nil {
		return errors.Wrap(err, "engine.null_placement")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if !logger.ValidFormat(c.Log.Format) {
		return errors.Newf("invalid log format: %s", c.Log.Format)
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return errors.Wrap(err, "output.format")
	}
	if c.Output.Limit < 0 {
		return errors.Newf("output.limit must not be negative, got %d", c.Output.Limit)
	}
	return nil
}

// Builder returns the window.Builder for the configured null placement.
func (c *Config) Builder() window.Builder {
	p, _ := window.ParseNullPlacement(c.Engine.NullPlacement)
	return window.Builder{Nulls: p}
}
