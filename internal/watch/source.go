package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event is one change, with Path relative to the watched root in slash form.
type Event struct {
	Path string
	Op   string
}

// Source delivers change events until closed.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// FSSource watches a directory tree with fsnotify. Directories created
// after start are watched as they appear. Dot directories, node_modules,
// vendor and any excluded directory are ignored. Paths under the root are
// reported relative to it; paths under a tree added with AddRoot that lies
// outside the root are reported in absolute slash form.
type FSSource struct {
	root    string
	extra   []string
	exclude []string
	w       *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// NewFSSource starts watching root. Excluded paths may be absolute or
// relative to root.
func NewFSSource(root string, exclude ...string) (*FSSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root %q: %w", root, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	s := &FSSource{
		root:   abs,
		w:      w,
		events: make(chan Event, 64),
		errors: make(chan error, 8),
		done:   make(chan struct{}),
	}
	for _, e := range exclude {
		if !filepath.IsAbs(e) {
			e = filepath.Join(abs, e)
		}
		s.exclude = append(s.exclude, filepath.Clean(e))
	}

	if _, err := s.addTree(abs); err != nil {
		_ = w.Close()
		return nil, err
	}
	go s.loop()
	return s, nil
}

// Events implements Source.
func (s *FSSource) Events() <-chan Event { return s.events }

// Errors implements Source.
func (s *FSSource) Errors() <-chan error { return s.errors }

// Close stops watching. It is safe to call more than once.
func (s *FSSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.w.Close()
	})
	return err
}

// AddRoot watches dir as an additional tree. It is a no-op when dir is
// already covered.
func (s *FSSource) AddRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve watch root %q: %w", dir, err)
	}
	if s.Covers(abs) {
		return nil
	}
	s.mu.Lock()
	s.extra = append(s.extra, abs)
	s.mu.Unlock()
	_, err = s.addTree(abs)
	return err
}

// Covers reports whether changes at path are watched.
func (s *FSSource) Covers(path string) bool {
	_, ok := s.base(filepath.Clean(path))
	return ok
}

// base returns the watched tree that contains path.
func (s *FSSource) base(path string) (string, bool) {
	if within(s.root, path) {
		return s.root, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dir := range s.extra {
		if within(dir, path) {
			return dir, true
		}
	}
	return "", false
}

func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

func (s *FSSource) relative(path string) (string, bool) {
	base, ok := s.base(path)
	if !ok {
		return "", false
	}
	if base != s.root {
		return filepath.ToSlash(path), true
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (s *FSSource) ignored(path string) bool {
	base, ok := s.base(path)
	if !ok {
		return true
	}
	if path == base {
		return false
	}
	for _, e := range s.exclude {
		if within(e, path) {
			return true
		}
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if skippedDirs[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory beneath it. It returns the paths
// found below dir so changes that landed before the watch was in place can
// still be reported.
func (s *FSSource) addTree(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if s.ignored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != dir {
			found = append(found, path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	return found, err
}

func (s *FSSource) loop() {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			s.handle(ev)
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			default:
			}
		}
	}
}

func (s *FSSource) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if s.ignored(path) {
		return
	}
	var nested []string
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			found, err := s.addTree(path)
			if err != nil {
				select {
				case s.errors <- err:
				default:
				}
			}
			nested = found
		}
	}

	s.emit(path, ev.Op.String())
	for _, p := range nested {
		s.emit(p, fsnotify.Create.String())
	}
}

func (s *FSSource) emit(path, op string) {
	rel, ok := s.relative(path)
	if !ok {
		return
	}
	select {
	case s.events <- Event{Path: rel, Op: op}:
	case <-s.done:
	}
}
