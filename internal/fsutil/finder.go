// Package fsutil discovers icon source files on disk.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// FindSources walks root and returns every regular file whose extension
// matches ext, ignoring case, in lexical walk order. Entries whose name
// starts with a dot are skipped along with everything beneath them. A root
// that does not exist yields an empty result.
func FindSources(root, ext string) ([]string, error) {
	if ext == "" {
		panic("fsutil: extension must not be empty")
	}

	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(d.Name()), ext) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
