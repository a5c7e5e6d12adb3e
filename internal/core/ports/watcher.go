package ports

import (
	"context"
	"iter"

	"go.trai.ch/kiln/internal/core/domain"
)

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given root directory recursively.
	// It returns an error if the watcher fails to start.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of debounced batches of changed absolute paths.
	// The iterator ends when the watcher stops.
	Events() iter.Seq[[]string]
}

// WatcherOpener creates a watcher honoring the configured ignore list and debounce.
type WatcherOpener func(cfg *domain.Config) (Watcher, error)
