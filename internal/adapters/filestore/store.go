// Package filestore implements the versioned view of the client tree.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// hashConcurrency bounds the files hashed at once during a scan.
const hashConcurrency = 8

// Option configures Open.
type Option func(*options)

type options struct {
	inMemory bool
}

// WithInMemoryIndex keeps the index in memory instead of under .kiln/index.
func WithInMemoryIndex() Option {
	return func(o *options) { o.inMemory = true }
}

// Store implements ports.FileStore. File hashes are kept in a badger index so a
// scan only rehashes files whose size or modification time changed.
type Store struct {
	root   string
	walker *Walker
	idx    *index
	logger ports.Logger
	loads  singleflight.Group

	// mu serializes Scan and Update.
	mu sync.Mutex

	lmu       sync.RWMutex
	listeners []ports.FileListener
}

// Open opens the store of the client root. Directories named in ignore, and .kiln,
// are invisible to it.
func Open(root string, ignore []string, logger ports.Logger, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dir := filepath.Join(root, domain.DefaultIndexPath())
	if !o.inMemory {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to create index directory"), "path", dir)
		}
	}
	idx, err := openIndex(dir, o.inMemory)
	if err != nil {
		return nil, err
	}

	ignores := append(slices.Clone(ignore), domain.KilnDirName)
	return &Store{
		root:   root,
		walker: NewWalker(ignores),
		idx:    idx,
		logger: logger,
	}, nil
}

// Root returns the absolute client root.
func (s *Store) Root() string {
	return s.root
}

// AddListener registers a listener for file changes.
func (s *Store) AddListener(l ports.FileListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Close releases the index.
func (s *Store) Close() error {
	if err := s.idx.close(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to close file index")
	}
	return nil
}

// Load reads a client-relative path.
func (s *Store) Load(_ context.Context, path string) (*domain.FileContent, error) {
	if !filepath.IsLocal(filepath.FromSlash(path)) {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotFound, "path is outside the client root"), "path", path)
	}

	v, err, _ := s.loads.Do(path, func() (any, error) {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrFileNotFound, "file does not exist"), "path", path)
		}
		if err != nil {
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to read file"), "path", path)
		}
		return &domain.FileContent{Path: path, Data: data, Hash: domain.HashBytes(data)}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FileContent), nil
}

// Matching returns the sorted indexed paths matching the set.
func (s *Store) Matching(_ context.Context, globs domain.GlobSet) ([]string, error) {
	found := make(map[string]struct{})
	for _, prefix := range globs.Prefixes() {
		err := s.idx.scan(prefix, func(path string, _ entry) error {
			if globs.Match(path) {
				found[path] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

// Scan walks the client tree and reconciles the index with what is on disk.
func (s *Store) Scan(ctx context.Context) error {
	changes, err := s.scan(ctx)
	if err != nil {
		return err
	}
	s.notify(changes)
	return nil
}

func (s *Store) scan(ctx context.Context) ([]domain.FileChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := newBatch()
	seen := make(map[string]struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hashConcurrency)
	for abs := range s.walker.WalkFiles(s.root) {
		if gctx.Err() != nil {
			break
		}
		rel := s.rel(abs)
		seen[rel] = struct{}{}
		g.Go(func() error {
			return s.refresh(rel, b, true)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := s.idx.scan("", func(path string, e entry) error {
		if _, ok := seen[path]; !ok {
			b.remove(path, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.commit(s.idx)
}

// Update rehashes the paths and notifies listeners of the ones that changed.
// Paths may be client-relative or absolute; a directory stands for everything
// below it. Paths outside the root or in ignored directories are dropped.
func (s *Store) Update(ctx context.Context, paths []string) ([]domain.FileChange, error) {
	changes, err := s.update(ctx, paths)
	if err != nil {
		return nil, err
	}
	s.notify(changes)
	return changes, nil
}

func (s *Store) update(ctx context.Context, paths []string) ([]domain.FileChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := newBatch()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, ok := s.clean(p)
		if !ok {
			continue
		}
		abs := filepath.Join(s.root, filepath.FromSlash(rel))

		info, err := os.Lstat(abs)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := s.removeTree(rel, nil, b); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to stat file"), "path", rel)
		case info.IsDir():
			seen := make(map[string]struct{})
			for f := range s.walker.WalkFiles(abs) {
				child := s.rel(f)
				seen[child] = struct{}{}
				if err := s.refresh(child, b, false); err != nil {
					return nil, err
				}
			}
			if err := s.removeTree(rel, seen, b); err != nil {
				return nil, err
			}
		case info.Mode().IsRegular():
			if err := s.refresh(rel, b, false); err != nil {
				return nil, err
			}
		}
	}
	return b.commit(s.idx)
}

// refresh hashes one file into the batch. With useStat, a file whose size and
// modification time match the index is not rehashed.
func (s *Store) refresh(rel string, b *batch, useStat bool) error {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.logger.Warn("skipping unreadable file " + rel)
		return nil
	}

	old, found, err := s.idx.get(rel)
	if err != nil {
		return err
	}
	if useStat && found && old.sameStat(info.Size(), info.ModTime()) {
		return nil
	}

	h, err := hashFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		s.logger.Warn("skipping unreadable file " + rel)
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to hash file"), "path", rel)
	}

	b.set(rel, entry{Hash: h, Size: info.Size(), ModTime: info.ModTime().UnixNano()}, !found || old.Hash != h)
	return nil
}

// removeTree drops rel and every indexed path below it that is not in keep.
func (s *Store) removeTree(rel string, keep map[string]struct{}, b *batch) error {
	if rel != "" {
		old, found, err := s.idx.get(rel)
		if err != nil {
			return err
		}
		if found {
			b.remove(rel, old)
		}
	}

	prefix := ""
	if rel != "" {
		prefix = rel + "/"
	}
	return s.idx.scan(prefix, func(path string, e entry) error {
		if _, ok := keep[path]; !ok {
			b.remove(path, e)
		}
		return nil
	})
}

// clean turns p into a client-relative slash path. The root itself is "".
func (s *Store) clean(p string) (string, bool) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return "", false
		}
		p = rel
	}
	p = filepath.Clean(filepath.FromSlash(p))
	if p == "." {
		return "", true
	}
	if !filepath.IsLocal(p) {
		return "", false
	}
	for _, seg := range strings.Split(p, string(filepath.Separator)) {
		if s.walker.Ignored(seg) {
			return "", false
		}
	}
	return filepath.ToSlash(p), true
}

func (s *Store) rel(abs string) string {
	rel, _ := filepath.Rel(s.root, abs)
	return filepath.ToSlash(rel)
}

func (s *Store) notify(changes []domain.FileChange) {
	if len(changes) == 0 {
		return
	}
	s.lmu.RLock()
	listeners := slices.Clone(s.listeners)
	s.lmu.RUnlock()

	for _, l := range listeners {
		l.FilesChanged(changes)
	}
}
