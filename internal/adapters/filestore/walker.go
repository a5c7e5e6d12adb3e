package filestore

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
)

// Walker walks the client tree.
type Walker struct {
	ignores []string
}

// NewWalker creates a Walker that skips directories with any of the given names.
func NewWalker(ignores []string) *Walker {
	return &Walker{ignores: ignores}
}

// WalkFiles yields the regular files below dir as absolute paths. Ignored
// directories and symlinks are skipped. A missing dir yields nothing.
func (w *Walker) WalkFiles(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return err
				}
				// Entries vanishing mid-walk are picked up by the next update.
				return nil
			}
			if d.IsDir() {
				if path != dir && w.Ignored(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Ignored reports whether a directory name is skipped.
func (w *Walker) Ignored(name string) bool {
	return slices.Contains(w.ignores, name)
}
