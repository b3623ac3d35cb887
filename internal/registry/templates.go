package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/vk/iconreg/internal/ctxlog"
)

// TemplateFilter selects templates for UpdateTemplates.
type TemplateFilter func(t *Template) bool

// AddTemplate registers t and returns its absolute destination.
func (r *Registry) AddTemplate(t Template) (string, error) {
	if t.Filename == "" {
		return "", fmt.Errorf("template filename must not be empty")
	}
	if t.GetContents == nil {
		return "", fmt.Errorf("template %s has no contents function", t.Filename)
	}
	dst := t.Filename
	if !filepath.IsAbs(dst) {
		dst = filepath.Join(r.buildDir, dst)
	}
	t.Dst = dst

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[dst]; exists {
		return "", fmt.Errorf("template %s already registered", dst)
	}
	r.templates[dst] = &t
	return dst, nil
}

// Templates returns the registered templates sorted by destination.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dst < out[j].Dst })
	return out
}

// Contents returns the rendered contents of the template at dst, rendering
// it if nothing is cached.
func (r *Registry) Contents(ctx context.Context, dst string) (string, error) {
	if contents, ok := r.cache.Get(dst); ok {
		return contents, nil
	}
	return r.render(ctx, dst, 0)
}

// UpdateTemplates invalidates every template matched by filter and renders
// it again. Templates are processed in destination order; all of them are
// attempted and their errors joined.
func (r *Registry) UpdateTemplates(ctx context.Context, filter TemplateFilter) error {
	r.mu.Lock()
	var dsts []string
	targets := make(map[string]uint64)
	for dst, t := range r.templates {
		if filter == nil || filter(t) {
			dsts = append(dsts, dst)
			r.generations[dst]++
			targets[dst] = r.generations[dst]
			r.cache.Remove(dst)
		}
	}
	r.mu.Unlock()
	sort.Strings(dsts)

	var errs []error
	for _, dst := range dsts {
		if _, err := r.render(ctx, dst, targets[dst]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteTemplates renders every template with Write set and persists it.
func (r *Registry) WriteTemplates(ctx context.Context) error {
	var errs []error
	for _, t := range r.Templates() {
		if !t.Write {
			continue
		}
		if _, err := r.Contents(ctx, t.Dst); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type rendered struct {
	contents string
	gen      uint64
}

// render runs at most one render per destination at a time. Callers that
// arrive while a render is in flight share its result; if the template was
// invalidated during the render, it is rendered once more before returning.
// minGen is the lowest generation the caller accepts. The shared render
// outlives the cancellation of whichever caller started it.
func (r *Registry) render(ctx context.Context, dst string, minGen uint64) (string, error) {
	shared := context.WithoutCancel(ctx)
	for {
		v, err, _ := r.group.Do(dst, func() (any, error) {
			return r.renderLatest(shared, dst)
		})
		if err != nil {
			return "", err
		}
		res := v.(rendered)
		if res.gen >= minGen {
			return res.contents, nil
		}
	}
}

func (r *Registry) renderLatest(ctx context.Context, dst string) (rendered, error) {
	for {
		r.mu.RLock()
		t, ok := r.templates[dst]
		gen := r.generations[dst]
		r.mu.RUnlock()
		if !ok {
			return rendered{}, fmt.Errorf("no template registered for %s", dst)
		}

		contents, err := r.renderOnce(ctx, t)
		if err != nil {
			return rendered{}, err
		}

		r.mu.Lock()
		current := r.generations[dst]
		if current == gen {
			r.cache.Add(dst, contents)
		}
		r.mu.Unlock()
		if current == gen {
			return rendered{contents: contents, gen: gen}, nil
		}
		ctxlog.FromContext(ctx).Debug("Template invalidated during render, rendering again.", "dst", dst)
	}
}

func (r *Registry) renderOnce(ctx context.Context, t *Template) (string, error) {
	logger := ctxlog.FromContext(ctx)

	contents, err := t.GetContents(ctx)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", t.Dst, err)
	}
	if t.Write {
		written, err := WriteFile(t.Dst, contents)
		if err != nil {
			return "", fmt.Errorf("write %s: %w", t.Dst, err)
		}
		if written {
			logger.Info("Template written.", "dst", t.Dst, "bytes", len(contents))
		} else {
			logger.Debug("Template unchanged.", "dst", t.Dst)
		}
	}

	r.mu.RLock()
	listeners := append([]UpdateListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, t.Dst, contents)
	}
	return contents, nil
}
