package baker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// reconciliation is what the finisher did to the client tree.
type reconciliation struct {
	outputs  []string
	obsolete []string
}

// changed returns every client path the reconciliation touched.
func (r reconciliation) changed() []string {
	return append(slices.Clone(r.outputs), r.obsolete...)
}

// finish moves the product's outputs from the working directory into the client tree.
// Files that matched the output globs before but were not produced again are moved to
// the archive. A file that cannot be archived is logged and left in place.
func (b *Baker) finish(
	ctx context.Context,
	product *domain.Product,
	workDir string,
	vertex ports.Vertex,
) (reconciliation, error) {
	outputs, err := matchTree(workDir, product.Outputs)
	if err != nil {
		return reconciliation{}, zerr.With(errors.Join(domain.ErrReconcileFailed, err), "product", product.Name)
	}
	existing, err := b.store.Matching(ctx, product.Outputs)
	if err != nil {
		return reconciliation{}, zerr.With(zerr.Wrap(err, "failed to list existing outputs"), "product", product.Name)
	}

	r := reconciliation{outputs: outputs}
	for _, path := range existing {
		if _, found := slices.BinarySearch(outputs, path); !found {
			r.obsolete = append(r.obsolete, path)
		}
	}
	vertex.Log(domain.LogLevelDebug, fmt.Sprintf(
		"%s produced %d file(s): %d obsolete", product.Name, len(outputs), len(r.obsolete),
	))

	root := b.store.Root()
	if len(r.obsolete) > 0 {
		b.archive(root, r.obsolete)
	}

	for _, path := range outputs {
		dst := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
			return r, zerr.With(errors.Join(domain.ErrReconcileFailed, err), "path", path)
		}
		if err := moveFile(filepath.Join(workDir, filepath.FromSlash(path)), dst); err != nil {
			return r, zerr.With(errors.Join(domain.ErrReconcileFailed, err), "path", path)
		}
	}
	return r, nil
}

func (b *Baker) archive(root string, obsolete []string) {
	archiveDir := filepath.Join(root, domain.DefaultArchivePath())
	for _, path := range obsolete {
		dst := filepath.Join(archiveDir, filepath.FromSlash(path))
		err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm)
		if err == nil {
			err = moveFile(filepath.Join(root, filepath.FromSlash(path)), dst)
		}
		if err != nil {
			b.logger.Warn(zerr.With(errors.Join(domain.ErrArchiveFailed, err), "path", path).Error())
		}
	}
	b.logger.Info(fmt.Sprintf("%d obsolete file(s) can be found under %s", len(obsolete), filepath.ToSlash(domain.DefaultArchivePath())))
}

// moveFile renames src to dst, replacing dst. Across file systems it copies through a
// temporary file next to dst.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return err
	}
	return os.Remove(src)
}
