package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/facmaker/facmaker/sim/trace"
)

const (
	envPrefix         = "FACMAKER_"
	defaultConfigFile = "facmaker.yaml"
)

// Config holds the settings shared by every command. Flags explicitly set on the
// command line take precedence over it.
type Config struct {
	Log   LogConfig   `koanf:"log"`
	Run   RunConfig   `koanf:"run"`
	Store StoreConfig `koanf:"store"`
}

// LogConfig controls logrus output. An empty File logs to stderr.
type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	File       string `koanf:"file"`
	MaxSize    int    `koanf:"max_size" validate:"gte=0"` // MB
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAge     int    `koanf:"max_age" validate:"gte=0"` // days
	Compress   bool   `koanf:"compress"`
}

// RunConfig holds defaults of the run command.
type RunConfig struct {
	Horizon int64  `koanf:"horizon" validate:"gte=-1"` // -1 uses the description's "simulate"
	Trace   string `koanf:"trace" validate:"oneof=none operations"`
}

// StoreConfig locates the run history database. An empty Path disables it.
type StoreConfig struct {
	Path string `koanf:"path"`
}

func defaultConfig() map[string]any {
	return map[string]any{
		"log.level":       "warn",
		"log.file":        "",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"run.horizon": -1,
		"run.trace":   string(trace.TraceLevelNone),

		"store.path": "",
	}
}

// LoadConfig layers defaults, the YAML file at path (or ./facmaker.yaml when path is
// empty and that file exists) and FACMAKER_* environment variables, then validates.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// FACMAKER_LOG_MAX_SIZE -> log.max_size: the first underscore separates the section
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.Replace(key, "_", ".", 1), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')",
			e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(messages, "\n  "))
}
