package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/iconreg/internal/config"
)

// DefaultConfigFile is read from the project root when present and no
// file is configured explicitly.
const DefaultConfigFile = "iconreg.hcl"

// Config holds everything an App needs that does not come from the
// configuration model itself.
type Config struct {
	Root       string
	ConfigFile string

	LogFormat string
	LogLevel  string

	// Dev enables development behaviour in the generated file and the
	// watch hook.
	Dev bool
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
	// Overrides runs after file and environment settings are applied.
	Overrides func(m *config.Model)
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !validLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	return &cfg, nil
}
