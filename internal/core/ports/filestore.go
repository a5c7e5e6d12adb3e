package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// FileStore is the versioned view of the client tree. It hashes files, answers
// glob queries and tells listeners which paths changed.
//
//go:generate mockgen -source=filestore.go -destination=mocks/mock_filestore.go -package=mocks
type FileStore interface {
	// Root returns the absolute client root.
	Root() string
	// Scan walks the client tree and reconciles the index with what is on disk,
	// notifying listeners of every difference.
	Scan(ctx context.Context) error
	// Load reads a client-relative path. It fails with domain.ErrFileNotFound if absent.
	Load(ctx context.Context, path string) (*domain.FileContent, error)
	// Matching returns the sorted client-relative paths currently matching the set.
	Matching(ctx context.Context, globs domain.GlobSet) ([]string, error)
	// Update rehashes the paths, records their new state and notifies listeners
	// of the ones that changed.
	Update(ctx context.Context, paths []string) ([]domain.FileChange, error)
	// AddListener registers a listener for file changes.
	AddListener(l FileListener)
	// Close releases the index.
	Close() error
}

// FileStoreOpener opens the file store of a configured client root.
type FileStoreOpener func(ctx context.Context, cfg *domain.Config) (FileStore, error)
