// Package resolve turns configured, root-relative locations into absolute
// directory paths.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotDirectory is returned when a location resolves to something other
// than a directory.
var ErrNotDirectory = errors.New("not a directory")

// Resolver resolves paths against a project root. The `~/` and `@/`
// prefixes are aliases for the root itself.
type Resolver struct {
	root string
}

// New returns a Resolver anchored at root, which is made absolute.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute project root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins location with the root without touching the file system.
func (r *Resolver) Resolve(location string) string {
	switch {
	case location == "~" || location == "@":
		return r.root
	case strings.HasPrefix(location, "~/"), strings.HasPrefix(location, "@/"):
		return filepath.Join(r.root, location[2:])
	case filepath.IsAbs(location):
		return filepath.Clean(location)
	default:
		return filepath.Join(r.root, location)
	}
}

// ResolveDir resolves location to a directory path. A location that does
// not exist yet resolves without error; anything else that cannot be
// inspected, or that is not a directory, is an error.
func (r *Resolver) ResolveDir(location string) (string, error) {
	path := r.Resolve(location)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", location, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolve %q: %w", location, ErrNotDirectory)
	}
	return path, nil
}

// WithTrailingSlash appends a separator unless path already ends in one.
func WithTrailingSlash(path string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}
	return path + string(filepath.Separator)
}
