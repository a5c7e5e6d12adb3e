package filestore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const keyPrefix = "file/"

// entry is the indexed state of one file. Size and modification time let a scan
// skip rehashing unchanged files.
type entry struct {
	Hash    domain.Hash `json:"hash"`
	Size    int64       `json:"size"`
	ModTime int64       `json:"mtime"`
}

func (e entry) sameStat(size int64, modTime time.Time) bool {
	return e.Size == size && e.ModTime == modTime.UnixNano()
}

// index persists path to entry in badger, keyed by client-relative slash path.
type index struct {
	db *badger.DB
}

func openIndex(dir string, inMemory bool) (*index, error) {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "failed to open file index"), "path", dir)
	}
	return &index{db: db}, nil
}

func (i *index) get(path string) (entry, bool, error) {
	var e entry
	found := false
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return entry{}, false, indexError(err, path)
	}
	return e, found, nil
}

// apply writes and deletes entries in one batch. A zero entry hash deletes.
func (i *index) apply(updates map[string]entry) error {
	wb := i.db.NewWriteBatch()
	defer wb.Cancel()

	for path, e := range updates {
		key := []byte(keyPrefix + path)
		if e.Hash.IsZero() {
			if err := wb.Delete(key); err != nil {
				return indexError(err, path)
			}
			continue
		}
		val, err := json.Marshal(e)
		if err != nil {
			return indexError(err, path)
		}
		if err := wb.Set(key, val); err != nil {
			return indexError(err, path)
		}
	}
	if err := wb.Flush(); err != nil {
		return indexError(err, "")
	}
	return nil
}

// scan calls fn for every indexed path starting with prefix, in key order.
func (i *index) scan(prefix string, fn func(path string, e entry) error) error {
	err := i.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var e entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			if err := fn(string(item.Key()[len(keyPrefix):]), e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return indexError(err, prefix)
	}
	return nil
}

func (i *index) close() error {
	return i.db.Close()
}

func indexError(err error, path string) error {
	return zerr.With(zerr.Wrap(errors.Join(domain.ErrStoreFailed, err), "file index failed"), "path", path)
}
