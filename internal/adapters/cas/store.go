// Package cas implements build record storage.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildRecordStore using one JSON file per product under
// .kiln/records.
type Store struct {
	dir string
}

// NewStore creates a store for the client root.
func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, domain.DefaultRecordsPath())}
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string {
	return s.dir
}

// Get retrieves the record of a product. It returns nil, nil if there is none.
func (s *Store) Get(product string) (*domain.BuildRecord, error) {
	filename := s.filename(product)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrRecordReadFailed, err), "failed to read build record"), "product", product)
	}

	var record domain.BuildRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrRecordReadFailed, err), "failed to decode build record"), "product", product)
	}
	if record.Product != product {
		return nil, nil
	}
	return &record, nil
}

// Put stores the record, replacing the previous one atomically.
func (s *Store) Put(record domain.BuildRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.Wrap(errors.Join(domain.ErrRecordWriteFailed, err), "failed to encode build record")
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrRecordWriteFailed, err), "failed to create record directory")
	}

	tmp, err := os.CreateTemp(s.dir, ".record-*")
	if err != nil {
		return zerr.Wrap(errors.Join(domain.ErrRecordWriteFailed, err), "failed to create build record")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.filename(record.Product))
	}
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrRecordWriteFailed, err), "failed to write build record"), "product", record.Product)
	}
	return nil
}

// Delete drops the record of a product, if any.
func (s *Store) Delete(product string) error {
	if err := os.Remove(s.filename(product)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrRecordWriteFailed, err), "failed to delete build record"), "product", product)
	}
	return nil
}

func (s *Store) filename(product string) string {
	hash := sha256.Sum256([]byte(product))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}
