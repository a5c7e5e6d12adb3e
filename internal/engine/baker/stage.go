package baker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// stageConcurrency bounds the number of inputs copied at once.
const stageConcurrency = 8

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)

// createWorkDir makes a fresh private working directory for one build.
func (b *Baker) createWorkDir(product string) (string, error) {
	dir := filepath.Join(b.workRoot, unsafeNameChars.ReplaceAllString(product, "_")+"-"+uuid.NewString())
	if err := os.Mkdir(dir, domain.PrivateDirPerm); err != nil {
		return "", zerr.With(errors.Join(domain.ErrStageFailed, err), "path", dir)
	}
	return dir, nil
}

// disposeWorkDir renames the working directory out of the way and deletes it in the
// background. Close waits for pending deletions.
func (b *Baker) disposeWorkDir(dir string) {
	obsolete := filepath.Join(b.workRoot, domain.ObsoleteWorkDirPrefix+uuid.NewString())
	if err := os.Rename(dir, obsolete); err != nil {
		obsolete = dir
	}
	b.tasks.Go(func() {
		if err := os.RemoveAll(obsolete); err != nil {
			b.logger.Warn("failed to delete working directory " + obsolete + ": " + err.Error())
		}
	})
}

// loadInputs reads the inputs through the file store and returns their contents in
// order, with the combined hash of their paths and contents.
func (b *Baker) loadInputs(ctx context.Context, inputs []string) ([]*domain.FileContent, domain.Hash, error) {
	contents := make([]*domain.FileContent, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stageConcurrency)
	for i, path := range inputs {
		g.Go(func() error {
			content, err := b.store.Load(gctx, path)
			if err != nil {
				return zerr.With(errors.Join(domain.ErrStageFailed, err), "path", path)
			}
			contents[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.Hash{}, err
	}

	var hashes domain.HashBuilder
	for i, content := range contents {
		hashes.Add(domain.BindHash(inputs[i], content.Hash))
	}
	return contents, hashes.Sum(), nil
}

// stage copies loaded inputs into the working directory, keeping the permissions of
// the client files.
func (b *Baker) stage(ctx context.Context, workDir string, contents []*domain.FileContent) error {
	root := b.store.Root()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stageConcurrency)
	for _, content := range contents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := content.Path
			mode := os.FileMode(domain.FilePerm)
			if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(path))); err == nil {
				mode = info.Mode().Perm()
			}

			dst := filepath.Join(workDir, filepath.FromSlash(path))
			if err := os.MkdirAll(filepath.Dir(dst), domain.PrivateDirPerm); err != nil {
				return zerr.With(errors.Join(domain.ErrStageFailed, err), "path", path)
			}
			if err := os.WriteFile(dst, content.Data, mode); err != nil {
				return zerr.With(errors.Join(domain.ErrStageFailed, err), "path", path)
			}
			return nil
		})
	}
	return g.Wait()
}

// matchTree returns the sorted slash-separated paths of regular files below dir that
// match globs. Only the literal prefixes of the globs are walked.
func matchTree(dir string, globs domain.GlobSet) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, prefix := range globs.Prefixes() {
		start := filepath.Join(dir, filepath.FromSlash(prefix))
		if _, err := os.Lstat(start); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if _, ok := seen[rel]; ok || !globs.Match(rel) {
				return nil
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(out)
	return out, nil
}
