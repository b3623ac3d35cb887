// Package icons wires the icon pipeline into a host registry. It resolves
// the source directory, registers the generated registry file as a
// template behind the "#icons" alias, exposes the dispatching component and,
// in development mode, regenerates the file when sources change.
package icons

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/iconreg/internal/batch"
	"github.com/vk/iconreg/internal/compiler"
	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/fragment"
	"github.com/vk/iconreg/internal/fsutil"
	"github.com/vk/iconreg/internal/generator"
	"github.com/vk/iconreg/internal/registry"
	"github.com/vk/iconreg/internal/resolve"
)

const (
	// Alias is the logical name the generated file is registered under.
	Alias = "#icons"
	// WatchHook is the registry hook fired with changed root-relative paths.
	WatchHook = "builder:watch"

	sourceExt = ".svg"
)

// Options configures the module.
type Options struct {
	Location        string
	ComponentName   string
	TypeName        string
	PackageName     string
	Filename        string
	WarnMissingIcon bool
	Dev             bool
	Workers         int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Location:        "~/assets/icons",
		ComponentName:   "AppIcon",
		TypeName:        "Icon",
		PackageName:     "icons",
		Filename:        "icons.go",
		WarnMissingIcon: true,
		Workers:         batch.DefaultWorkers,
	}
}

func (o Options) generatorOptions() generator.Options {
	return generator.Options{
		PackageName:     o.PackageName,
		ComponentName:   o.ComponentName,
		TypeName:        o.TypeName,
		WarnMissingIcon: o.WarnMissingIcon,
		Dev:             o.Dev,
	}
}

// Stats describes the most recent generation.
type Stats struct {
	Sources  int
	Entries  int
	Failures int
}

// Module is the icon registry module. Create it with New.
type Module struct {
	opts     Options
	resolver *resolve.Resolver
	compiler compiler.Compiler

	mu          sync.Mutex
	state       State
	srcDir      string
	watchPrefix string
	dst         string
	stats       Stats
}

// New creates a module resolving locations with resolver and compiling
// sources with c.
func New(opts Options, resolver *resolve.Resolver, c compiler.Compiler) *Module {
	return &Module{opts: opts, resolver: resolver, compiler: c, state: StateIdle}
}

// Setup registers the module's template, alias, component and watch hook.
// An unusable source directory disables the module without failing setup;
// invalid generated names do fail it.
func (m *Module) Setup(ctx context.Context, reg *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)

	if err := m.opts.generatorOptions().Validate(); err != nil {
		return fmt.Errorf("icons: %w", err)
	}

	srcDir, err := m.resolver.ResolveDir(m.opts.Location)
	if err != nil {
		logger.Warn("Cannot load icons directory, disabling icon module", "location", m.opts.Location, "error", err)
		m.setState(StateDisabled)
		return nil
	}
	srcDir = resolve.WithTrailingSlash(srcDir)

	dst, err := reg.AddTemplate(registry.Template{
		Filename:    m.opts.Filename,
		Write:       true,
		GetContents: m.contents,
	})
	if err != nil {
		return fmt.Errorf("icons: %w", err)
	}
	if err := reg.Alias(Alias, dst); err != nil {
		return fmt.Errorf("icons: %w", err)
	}
	if err := reg.AddComponent(registry.Component{
		Name:     m.opts.ComponentName,
		Export:   m.opts.ComponentName,
		FilePath: Alias,
	}); err != nil {
		return fmt.Errorf("icons: %w", err)
	}

	m.mu.Lock()
	m.srcDir = srcDir
	m.dst = dst
	m.watchPrefix = watchPrefix(m.resolver.Root(), srcDir)
	m.mu.Unlock()

	if m.opts.Dev {
		reg.Hook(WatchHook, m.watchHook(reg))
	}

	logger.Debug("Icon module ready.", "src", srcDir, "dst", dst, "dev", m.opts.Dev)
	return nil
}

// Enabled reports whether Setup found a usable source directory.
func (m *Module) Enabled() bool {
	return m.State() != StateDisabled
}

// State returns the module's lifecycle state.
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns the counts of the most recent generation.
func (m *Module) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// SourceDir returns the resolved source directory with a trailing separator.
func (m *Module) SourceDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.srcDir
}

// Destination returns the path of the generated file.
func (m *Module) Destination() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dst
}

// WatchPrefix returns the root-relative, slash-separated prefix that
// changed paths must carry to trigger regeneration.
func (m *Module) WatchPrefix() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchPrefix
}

func (m *Module) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// contents runs enumeration, compilation, aggregation and generation.
func (m *Module) contents(ctx context.Context) (string, error) {
	srcDir := m.SourceDir()
	ctx = ctxlog.With(ctx, "module", "icons", "src", srcDir)
	logger := ctxlog.FromContext(ctx)
	m.setState(StateRegenerating)

	paths, err := fsutil.FindSources(srcDir, sourceExt)
	if err != nil {
		m.setState(StateIdleWithWarnings)
		return "", fmt.Errorf("enumerate %s: %w", srcDir, err)
	}

	processor := fragment.NewProcessor(srcDir, m.compiler)
	res := batch.Run(ctx, paths, processor.Process, m.opts.Workers)

	opts := m.opts.generatorOptions()
	kept, collisions := generator.Dedupe(res.Icons, opts)
	for _, c := range collisions {
		logger.Warn("Unable to register icon.", "path", c.Icon.Path, "reason", c.Reason)
	}

	src, err := generator.Generate(kept, opts)
	if err != nil {
		m.setState(StateIdleWithWarnings)
		return "", fmt.Errorf("generate: %w", err)
	}

	stats := Stats{
		Sources:  len(paths),
		Entries:  len(kept),
		Failures: len(res.Failures) + len(collisions),
	}
	m.mu.Lock()
	m.stats = stats
	if stats.Failures > 0 {
		m.state = StateIdleWithWarnings
	} else {
		m.state = StateIdle
	}
	m.mu.Unlock()

	logger.Info("Icon registry generated.", "entries", stats.Entries, "failures", stats.Failures)
	return string(src), nil
}

// watchHook regenerates the registry file when any changed path lies
// under the watch prefix, or is the source directory or one of its
// ancestors. Other paths are ignored.
func (m *Module) watchHook(reg *registry.Registry) registry.HookFunc {
	return func(ctx context.Context, args ...any) error {
		prefix := m.WatchPrefix()
		matched := false
		for _, arg := range args {
			if path, ok := arg.(string); ok && affects(prefix, path) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		ctxlog.FromContext(ctx).Debug("Icon sources changed, regenerating.", "prefix", prefix)
		return reg.UpdateTemplates(ctx, func(t *registry.Template) bool {
			dst, ok := reg.ResolveAlias(Alias)
			return ok && t.Dst == dst
		})
	}
}

// affects reports whether a change at path can alter the sources under
// prefix. Creating or removing an ancestor directory counts.
func affects(prefix, path string) bool {
	if strings.HasPrefix(path, prefix) {
		return true
	}
	return path != "" && strings.HasPrefix(prefix, strings.TrimSuffix(path, "/")+"/")
}

// watchPrefix is srcDir relative to root in slash form with a trailing
// slash. Directories outside root keep their absolute slash form.
func watchPrefix(root, srcDir string) string {
	rel, err := filepath.Rel(root, srcDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = srcDir
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return ""
	}
	return strings.TrimSuffix(rel, "/") + "/"
}
