package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "ICONREG_"

// envOverrides holds the variables that may override file settings. Unset
// variables leave their field nil.
type envOverrides struct {
	Location        *string        `env:"ICONS_LOCATION"`
	ComponentName   *string        `env:"ICONS_COMPONENT_NAME"`
	TypeName        *string        `env:"ICONS_TYPE_NAME"`
	PackageName     *string        `env:"ICONS_PACKAGE_NAME"`
	Filename        *string        `env:"ICONS_FILENAME"`
	WarnMissingIcon *bool          `env:"ICONS_WARN_MISSING_ICON"`
	BuildDir        *string        `env:"BUILD_DIR"`
	Workers         *int           `env:"BUILD_WORKERS"`
	Port            *int           `env:"DEV_PORT"`
	Debounce        *time.Duration `env:"DEV_DEBOUNCE"`
}

// ApplyEnv overlays ICONREG_* variables onto m. When environ is nil the
// process environment is used.
func ApplyEnv(m *Model, environ map[string]string) error {
	var raw envOverrides
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&m.Icons.Location, raw.Location)
	setString(&m.Icons.ComponentName, raw.ComponentName)
	setString(&m.Icons.TypeName, raw.TypeName)
	setString(&m.Icons.PackageName, raw.PackageName)
	setString(&m.Icons.Filename, raw.Filename)
	if raw.WarnMissingIcon != nil {
		m.Icons.WarnMissingIcon = *raw.WarnMissingIcon
	}
	setString(&m.Build.Dir, raw.BuildDir)
	if raw.Workers != nil {
		m.Build.Workers = *raw.Workers
	}
	if raw.Port != nil {
		m.Dev.Port = *raw.Port
	}
	if raw.Debounce != nil {
		m.Dev.Debounce = *raw.Debounce
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
