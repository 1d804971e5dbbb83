package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds settings read from mytoken.yaml and MYTOKEN_* environment
// variables. Command-line flags override it.
type Config struct {
	// Database is the default --db for trace, replay and query.
	Database string `mapstructure:"db"`

	// Parallel bounds concurrently running scenarios in the test command.
	Parallel int `mapstructure:"parallel"`

	// ABICacheSize bounds the parsed-ABI cache shared by a test run.
	ABICacheSize int64 `mapstructure:"abi_cache_size"`

	// MaxActions and MaxInlineDepth override the chain's per-transaction
	// limits when positive.
	MaxActions     int `mapstructure:"max_actions"`
	MaxInlineDepth int `mapstructure:"max_inline_depth"`

	Verbose bool `mapstructure:"verbose"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{Parallel: 4}
}

// LoadConfig reads path, or mytoken.yaml in the working directory when
// path is empty, and overlays MYTOKEN_* environment variables. A missing
// default file is not an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("db", def.Database)
	v.SetDefault("parallel", def.Parallel)
	v.SetDefault("abi_cache_size", def.ABICacheSize)
	v.SetDefault("max_actions", def.MaxActions)
	v.SetDefault("max_inline_depth", def.MaxInlineDepth)
	v.SetDefault("verbose", def.Verbose)

	v.SetEnvPrefix("MYTOKEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mytoken")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("couldn't read the config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal the configuration: %w", err)
	}
	if cfg.Parallel <= 0 {
		return nil, fmt.Errorf("parallel must be positive, got %d", cfg.Parallel)
	}
	return &cfg, nil
}
