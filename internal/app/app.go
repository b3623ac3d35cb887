package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/iconreg/internal/compiler"
	"github.com/vk/iconreg/internal/config"
	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/icons"
	"github.com/vk/iconreg/internal/registry"
	"github.com/vk/iconreg/internal/resolve"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	resolver *resolve.Resolver
	registry *registry.Registry
	icons    *icons.Module

	httpServer *http.Server
	addr       string
	ready      chan struct{}
}

// NewApp builds the configuration model, creates the registry and sets up
// the icon module against it.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := NewLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	resolver, err := resolve.New(appConfig.Root)
	if err != nil {
		return nil, err
	}

	model, err := loadModel(ctx, appConfig, resolver, loader)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "root", resolver.Root(), "icons", model.Icons.Location)

	reg, err := registry.New(resolver.Resolve(model.Build.Dir))
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		model:    model,
		resolver: resolver,
		registry: reg,
		icons:    icons.New(iconOptions(model, appConfig.Dev), resolver, compiler.New()),
		ready:    make(chan struct{}),
	}

	for _, mod := range a.modules() {
		if err := reg.Load(ctx, mod); err != nil {
			return nil, err
		}
	}
	logger.Debug("All modules set up.", "components", len(reg.Components()))
	return a, nil
}

// loadModel applies defaults, the configuration file, the environment and
// finally the caller's overrides, in that order.
func loadModel(ctx context.Context, cfg *Config, resolver *resolve.Resolver, loader config.Loader) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default()

	path := cfg.ConfigFile
	explicit := path != ""
	if !explicit {
		path = filepath.Join(resolver.Root(), DefaultConfigFile)
	} else {
		path = resolver.Resolve(path)
	}

	if _, err := os.Stat(path); err == nil || explicit {
		loaded, err := loader.Load(ctx, path, model)
		if err != nil {
			return nil, err
		}
		model = loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	} else {
		logger.Debug("No configuration file, using defaults.", "path", path)
	}

	if err := config.ApplyEnv(model, cfg.Environ); err != nil {
		return nil, err
	}
	if cfg.Overrides != nil {
		cfg.Overrides(model)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func iconOptions(m *config.Model, dev bool) icons.Options {
	return icons.Options{
		Location:        m.Icons.Location,
		ComponentName:   m.Icons.ComponentName,
		TypeName:        m.Icons.TypeName,
		PackageName:     m.Icons.PackageName,
		Filename:        m.Icons.Filename,
		WarnMissingIcon: m.Icons.WarnMissingIcon,
		Dev:             dev,
		Workers:         m.Build.Workers,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Icons returns the icon module.
func (a *App) Icons() *icons.Module {
	return a.icons
}

// Model returns the effective configuration.
func (a *App) Model() *config.Model {
	return a.model
}
