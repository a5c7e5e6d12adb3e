// Package watcher turns file system notifications into debounced batches of paths.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const batchBuffer = 16

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	ignores   []string
	logger    ports.Logger
	root      string

	batches  chan []string
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher that skips directories named in ignores and
// batches events that arrive within window of each other.
func NewWatcher(window time.Duration, ignores []string, logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrWatcherFailed, err), "failed to create file watcher")
	}
	w := &Watcher{
		fsWatcher: fsw,
		ignores:   append(slices.Clone(ignores), domain.KilnDirName),
		logger:    logger,
		batches:   make(chan []string, batchBuffer),
		done:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.deliver)
	return w, nil
}

// Start begins watching the given root directory recursively.
func (w *Watcher) Start(ctx context.Context, root string) error {
	w.root = root
	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(errors.Join(domain.ErrWatcherFailed, err), "failed to watch directory"), "path", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.debouncer.Stop()
	if err := w.fsWatcher.Close(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrWatcherFailed, err), "failed to close file watcher")
	}
	return nil
}

// Events returns an iterator of debounced batches of changed absolute paths.
func (w *Watcher) Events() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for {
			select {
			case batch := <-w.batches:
				if !yield(batch) {
					return
				}
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) deliver(paths []string) {
	select {
	case w.batches <- paths:
	case <-w.done:
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.stopOnce.Do(func() { close(w.done) })

	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if w.ignored(event.Name) {
				continue
			}
			w.debouncer.Add(event.Name)

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					for dir := range w.directories(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher: " + err.Error())
		}
	}
}

// directories yields root and every directory below it that is not ignored.
func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && slices.Contains(w.ignores, d.Name()) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ignored reports whether path lies in an ignored directory below the root.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if slices.Contains(w.ignores, seg) {
			return true
		}
	}
	return false
}
