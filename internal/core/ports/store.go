package ports

import "go.trai.ch/kiln/internal/core/domain"

// BuildRecordStore defines the interface for storing and retrieving build records.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the record of a product.
	// Returns nil, nil if not found.
	Get(product string) (*domain.BuildRecord, error)

	// Put stores the record.
	Put(record domain.BuildRecord) error

	// Delete drops the record of a product, if any.
	Delete(product string) error
}

// BuildRecordStoreOpener opens the build record store of a client root.
type BuildRecordStoreOpener func(root string) (BuildRecordStore, error)
