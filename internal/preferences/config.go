package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file of the scheduling engine.
type Config struct {
	// Defaults apply to users without stored preferences and fill the gaps
	// of partially stored ones.
	Defaults Preferences `yaml:"defaults"`

	// MaxSuggestions caps the number of returned slots.
	MaxSuggestions int `yaml:"max_suggestions"`

	// WindowDays is the search horizon for candidates without a date range.
	WindowDays int `yaml:"window_days"`

	// FreeBusyTimeout bounds the calendar free/busy request.
	FreeBusyTimeout time.Duration `yaml:"freebusy_timeout"`
}

// Built-in engine limits.
const (
	DefaultMaxSuggestions  = 5
	DefaultWindowDays      = 7
	DefaultFreeBusyTimeout = 10 * time.Second
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Defaults:        Default(),
		MaxSuggestions:  DefaultMaxSuggestions,
		WindowDays:      DefaultWindowDays,
		FreeBusyTimeout: DefaultFreeBusyTimeout,
	}
}

// Normalize fills missing or invalid values from the built-in configuration.
func (c *Config) Normalize() {
	c.Defaults = c.Defaults.Merge(Default())
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = DefaultMaxSuggestions
	}
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.FreeBusyTimeout <= 0 {
		c.FreeBusyTimeout = DefaultFreeBusyTimeout
	}
}

// LoadConfig reads the YAML configuration at path.
//
// An empty path or a missing file yields DefaultConfig. Working hours in the
// file are validated so that a typo fails at startup instead of per request.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()

	if _, err := cfg.Defaults.Policy(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}
