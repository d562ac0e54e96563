// Package config loads quill.yml with viper. Every key can be overridden
// with a QUILL_ environment variable (QUILL_OUTPUT, QUILL_LOG_LEVEL, ...)
// or a bound command-line flag.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved quill configuration.
type Config struct {
	Schemas    string `mapstructure:"schemas"`
	Output     string `mapstructure:"output"`
	History    string `mapstructure:"history"` // relative to Output
	Extension  string `mapstructure:"extension"`
	Formatter  string `mapstructure:"formatter"`
	Operations bool   `mapstructure:"operations"`
	Workers    int    `mapstructure:"workers"`
	Log        Log    `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Log configures the diagnostic logger.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Defaults
const (
	DefaultSchemas   = "internal/schemas"
	DefaultOutput    = "graph/schema"
	DefaultHistory   = ".history.json"
	DefaultExtension = "graphql"
)

// flagKeys maps config keys to the flag names that may override them.
var flagKeys = map[string]string{
	"schemas":   "schemas",
	"output":    "output",
	"formatter": "formatter",
	"workers":   "workers",
	"log.level": "log-level",
}

// Load reads configuration. An explicit path must exist; without one,
// quill.yml in the working directory is optional. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("schemas", DefaultSchemas)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("history", DefaultHistory)
	v.SetDefault("extension", DefaultExtension)
	v.SetDefault("formatter", "builtin")
	v.SetDefault("operations", true)
	v.SetDefault("workers", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quill")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	if c.Schemas == "" {
		errs = append(errs, errors.New("schemas directory must not be empty"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if c.History == "" {
		errs = append(errs, errors.New("history file must not be empty"))
	}
	if c.Extension == "" {
		errs = append(errs, errors.New("extension must not be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be zero or positive, got %d", c.Workers))
	}
	if _, err := graphql.FormatterByName(c.Formatter); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HistoryPath returns the ledger path relative to the output directory.
func (c *Config) HistoryPath() string {
	return filepath.ToSlash(filepath.Clean(c.History))
}
