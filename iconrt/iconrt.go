// Package iconrt is the runtime half of generated icon registries. The
// generated file declares the key type and the lookup table; a Set built
// from them dispatches keys to render fragments at render time.
package iconrt

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/a-h/templ"
)

// Placeholder is rendered for keys that have no fragment.
const Placeholder = "<svg></svg>"

// Empty renders Placeholder.
var Empty templ.Component = templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, Placeholder)
	return err
})

// Set dispatches icon keys of type K to their render fragments.
type Set[K ~string] struct {
	name        string
	lookup      map[K]templ.Component
	warnMissing bool
	logger      *slog.Logger
}

// New returns a Set named after the generated component. When warnMissing
// is set, every render of an unknown key logs one warning.
func New[K ~string](name string, lookup map[K]templ.Component, warnMissing bool) *Set[K] {
	return &Set[K]{name: name, lookup: lookup, warnMissing: warnMissing}
}

// WithLogger returns a copy of s that logs to logger instead of slog.Default.
func (s *Set[K]) WithLogger(logger *slog.Logger) *Set[K] {
	clone := *s
	clone.logger = logger
	return &clone
}

// Has reports whether key has a fragment.
func (s *Set[K]) Has(key K) bool {
	_, ok := s.lookup[key]
	return ok
}

// Keys returns the known keys in sorted order.
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, len(s.lookup))
	for k := range s.lookup {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Component returns a component rendering the fragment for key. The lookup
// happens at render time so a missing key is reported once per render.
func (s *Set[K]) Component(key K) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rf, ok := s.lookup[key]
		if !ok || rf == nil {
			if s.warnMissing {
				s.log().WarnContext(ctx, "["+s.name+"]: Missing Icon '"+string(key)+"'", "component", s.name, "icon", string(key))
			}
			return Empty.Render(ctx, w)
		}
		return rf.Render(ctx, w)
	})
}

func (s *Set[K]) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
