package filestore

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// hashFile computes the content hash of a file without reading it into memory.
func hashFile(path string) (domain.Hash, error) {
	f, err := os.Open(path) //nolint:gosec // Path is below the client root
	if err != nil {
		return domain.Hash{}, err
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return domain.Hash{}, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return domain.HashDigest(hasher.Sum64()), nil
}
