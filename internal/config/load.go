package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath       string `mapstructure:"db_path"`
	Format       string `mapstructure:"format"`
	IDSource     string `mapstructure:"id_source"`
	CounterStart uint32 `mapstructure:"counter_start"`
	LogLevel     string `mapstructure:"log_level"`
	Verbose      bool   `mapstructure:"verbose"`
}

// Load resolves configuration from defaults, an optional config file,
// VULNIX_* environment variables and flags, in increasing precedence.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", "database/vex_data.db")
	v.SetDefault("format", "text")
	v.SetDefault("id_source", "counter")
	v.SetDefault("counter_start", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VULNIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{"db_path", "format", "id_source", "log_level", "verbose"} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
