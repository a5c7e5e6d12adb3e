package filestore

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// batch collects index updates and the changes they amount to.
type batch struct {
	mu      sync.Mutex
	updates map[string]entry
	changes map[string]domain.FileChange
}

func newBatch() *batch {
	return &batch{
		updates: make(map[string]entry),
		changes: make(map[string]domain.FileChange),
	}
}

func (b *batch) set(path string, e entry, changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates[path] = e
	if changed {
		b.changes[path] = domain.FileChange{Path: path, Kind: domain.FileModified, Hash: e.Hash}
	}
}

func (b *batch) remove(path string, _ entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates[path] = entry{}
	b.changes[path] = domain.FileChange{Path: path, Kind: domain.FileRemoved}
}

// commit writes the updates and returns the changes sorted by path.
func (b *batch) commit(idx *index) ([]domain.FileChange, error) {
	if len(b.updates) > 0 {
		if err := idx.apply(b.updates); err != nil {
			return nil, err
		}
	}
	changes := make([]domain.FileChange, 0, len(b.changes))
	for _, c := range b.changes {
		changes = append(changes, c)
	}
	slices.SortFunc(changes, func(x, y domain.FileChange) int {
		return strings.Compare(x.Path, y.Path)
	})
	return changes, nil
}
