package baker_test

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
)

// diskStore is a ports.FileStore reading straight from disk.
type diskStore struct {
	root string

	mu      sync.Mutex
	updated [][]string
}

func (s *diskStore) Root() string { return s.root }

func (s *diskStore) Scan(context.Context) error { return nil }

func (s *diskStore) Load(_ context.Context, path string) (*domain.FileContent, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotFound, path), "path", path)
	}
	if err != nil {
		return nil, err
	}
	return &domain.FileContent{Path: path, Data: data, Hash: domain.HashBytes(data)}, nil
}

func (s *diskStore) Matching(_ context.Context, globs domain.GlobSet) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == domain.KilnDirName {
			return filepath.SkipDir
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if rel = filepath.ToSlash(rel); globs.Match(rel) {
			out = append(out, rel)
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

func (s *diskStore) Update(_ context.Context, paths []string) ([]domain.FileChange, error) {
	s.mu.Lock()
	s.updated = append(s.updated, slices.Clone(paths))
	s.mu.Unlock()

	changes := make([]domain.FileChange, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(p)))
		if err != nil {
			changes = append(changes, domain.FileChange{Path: p, Kind: domain.FileRemoved})
			continue
		}
		changes = append(changes, domain.FileChange{Path: p, Kind: domain.FileModified, Hash: domain.HashBytes(data)})
	}
	return changes, nil
}

func (s *diskStore) AddListener(ports.FileListener) {}

func (s *diskStore) Close() error { return nil }

func (s *diskStore) Updates() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.updated)
}

// memRecords is an in-memory ports.BuildRecordStore.
type memRecords struct {
	mu      sync.Mutex
	records map[string]domain.BuildRecord
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[string]domain.BuildRecord)}
}

func (m *memRecords) Get(product string) (*domain.BuildRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[product]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRecords) Put(r domain.BuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Product] = r
	return nil
}

func (m *memRecords) Delete(product string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, product)
	return nil
}

// recordingLogger keeps every message it gets.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Info(msg string) { l.add("INFO " + msg) }

func (l *recordingLogger) Warn(msg string) { l.add("WARN " + msg) }

func (l *recordingLogger) Error(err error) { l.add("ERROR " + err.Error()) }

func (l *recordingLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.messages, func(m string) bool { return strings.Contains(m, sub) })
}
