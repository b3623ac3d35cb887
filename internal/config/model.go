package config

import (
	"errors"
	"fmt"
	"go/token"
	"time"

	"github.com/vk/iconreg/internal/generator"
)

// Model is the complete configuration of one iconreg run.
type Model struct {
	Icons Icons
	Build Build
	Dev   Dev
}

// Icons configures the icon module and the generated file.
type Icons struct {
	Location        string
	ComponentName   string
	TypeName        string
	PackageName     string
	Filename        string
	WarnMissingIcon bool
}

// Build configures where and how the generated file is produced.
type Build struct {
	Dir     string
	Workers int
}

// Dev configures development mode.
type Dev struct {
	Port     int
	Debounce time.Duration
}

// Default returns the built-in defaults.
func Default() *Model {
	return &Model{
		Icons: Icons{
			Location:        "~/assets/icons",
			ComponentName:   "AppIcon",
			TypeName:        "Icon",
			PackageName:     "icons",
			Filename:        "icons.go",
			WarnMissingIcon: true,
		},
		Build: Build{
			Dir:     ".iconreg",
			Workers: 8,
		},
		Dev: Dev{
			Port:     3030,
			Debounce: 100 * time.Millisecond,
		},
	}
}

// Validate reports every invalid setting.
func (m *Model) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"icons.component_name", m.Icons.ComponentName},
		{"icons.type_name", m.Icons.TypeName},
		{"icons.package_name", m.Icons.PackageName},
	} {
		if !token.IsIdentifier(f.value) {
			errs = append(errs, fmt.Errorf("%s: %q is not a valid Go identifier", f.name, f.value))
		}
	}
	if m.Icons.ComponentName == m.Icons.TypeName {
		errs = append(errs, fmt.Errorf("icons.component_name and icons.type_name must differ"))
	} else if err := m.generatedNames().CheckNames(); err != nil {
		errs = append(errs, fmt.Errorf("icons: %w", err))
	}
	if m.Icons.Location == "" {
		errs = append(errs, errors.New("icons.location must not be empty"))
	}
	if m.Icons.Filename == "" {
		errs = append(errs, errors.New("icons.filename must not be empty"))
	}
	if m.Build.Dir == "" {
		errs = append(errs, errors.New("build.dir must not be empty"))
	}
	if m.Build.Workers < 1 {
		errs = append(errs, fmt.Errorf("build.workers must be at least 1, got %d", m.Build.Workers))
	}
	if m.Dev.Port < 0 || m.Dev.Port > 65535 {
		errs = append(errs, fmt.Errorf("dev.port %d is out of range", m.Dev.Port))
	}
	if m.Dev.Debounce < 0 {
		errs = append(errs, fmt.Errorf("dev.debounce must not be negative"))
	}
	return errors.Join(errs...)
}

func (m *Model) generatedNames() generator.Options {
	return generator.Options{
		PackageName:   m.Icons.PackageName,
		ComponentName: m.Icons.ComponentName,
		TypeName:      m.Icons.TypeName,
	}
}
