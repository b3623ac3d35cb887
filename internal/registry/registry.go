package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the number of rendered templates kept in memory.
const DefaultCacheSize = 64

// Module is the interface that generator modules implement to be set up
// against a registry.
type Module interface {
	Setup(ctx context.Context, r *Registry) error
}

// Template produces the contents of one generated file.
type Template struct {
	// Filename is relative to the build directory unless absolute.
	Filename string
	// Write persists rendered contents to Dst.
	Write bool
	// GetContents renders the file. It is called on first read and after
	// every invalidation.
	GetContents func(ctx context.Context) (string, error)

	// Dst is the absolute destination, filled in by AddTemplate.
	Dst string
}

// Component is a generated component made globally available by name.
type Component struct {
	Name     string
	Export   string
	FilePath string
}

// UpdateListener is notified after a template has been rendered.
type UpdateListener func(ctx context.Context, dst, contents string)

// HookFunc handles a named lifecycle hook.
type HookFunc func(ctx context.Context, args ...any) error

// Registry holds the templates, aliases, components and hooks of one
// generation session.
type Registry struct {
	buildDir string

	mu          sync.RWMutex
	templates   map[string]*Template
	generations map[string]uint64
	aliases     map[string]string
	components  map[string]Component
	hooks       map[string][]HookFunc
	listeners   []UpdateListener

	cache *lru.Cache[string, string]
	group singleflight.Group
}

// New creates a Registry whose templates are written under buildDir.
func New(buildDir string) (*Registry, error) {
	abs, err := filepath.Abs(buildDir)
	if err != nil {
		return nil, fmt.Errorf("resolve build dir %q: %w", buildDir, err)
	}
	cache, err := lru.New[string, string](DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		buildDir:    abs,
		templates:   make(map[string]*Template),
		generations: make(map[string]uint64),
		aliases:     make(map[string]string),
		components:  make(map[string]Component),
		hooks:       make(map[string][]HookFunc),
		cache:       cache,
	}, nil
}

// BuildDir returns the absolute build directory.
func (r *Registry) BuildDir() string {
	return r.buildDir
}

// Alias maps a logical import name to a destination path.
func (r *Registry) Alias(name, dst string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.aliases[name]; ok && existing != dst {
		return fmt.Errorf("alias %q already points to %s", name, existing)
	}
	r.aliases[name] = dst
	return nil
}

// ResolveAlias returns the destination registered under name.
func (r *Registry) ResolveAlias(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dst, ok := r.aliases[name]
	return dst, ok
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// AddComponent registers a component. Names must be unique.
func (r *Registry) AddComponent(c Component) error {
	if c.Name == "" {
		return fmt.Errorf("component name must not be empty")
	}
	if c.Export == "" {
		c.Export = c.Name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[c.Name]; exists {
		return fmt.Errorf("component %q already registered", c.Name)
	}
	r.components[c.Name] = c
	return nil
}

// Components returns the registered components sorted by name.
func (r *Registry) Components() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Hook registers fn for the named lifecycle hook.
func (r *Registry) Hook(name string, fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = append(r.hooks[name], fn)
}

// CallHook runs every handler registered for name in registration order and
// returns the first error.
func (r *Registry) CallHook(ctx context.Context, name string, args ...any) error {
	r.mu.RLock()
	handlers := append([]HookFunc(nil), r.hooks[name]...)
	r.mu.RUnlock()

	for _, fn := range handlers {
		if err := fn(ctx, args...); err != nil {
			return fmt.Errorf("hook %s: %w", name, err)
		}
	}
	return nil
}

// OnUpdate registers a listener for rendered templates.
func (r *Registry) OnUpdate(fn UpdateListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Load runs m's setup against r.
func (r *Registry) Load(ctx context.Context, m Module) error {
	return m.Setup(ctx, r)
}

// WriteFile writes contents to path unless the file already holds exactly
// those bytes. It reports whether a write happened.
func WriteFile(path, contents string) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == contents {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(contents), 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}
