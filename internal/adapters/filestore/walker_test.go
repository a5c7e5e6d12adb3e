package filestore_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/filestore"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.c", "a")
	writeFile(t, root, "src/b.c", "b")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, "src/node_modules/x.js", "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "a.c"), filepath.Join(root, "link.c")))

	w := filestore.NewWalker([]string{".git", "node_modules"})

	var got []string
	for path := range w.WalkFiles(root) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}
	slices.Sort(got)

	assert.Equal(t, []string{"a.c", "src/b.c"}, got)
}

func TestWalker_MissingDir(t *testing.T) {
	w := filestore.NewWalker(nil)

	count := 0
	for range w.WalkFiles(filepath.Join(t.TempDir(), "missing")) {
		count++
	}
	assert.Zero(t, count)
}

func TestWalker_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a", "a")
	writeFile(t, root, "b", "b")
	writeFile(t, root, "c", "c")

	count := 0
	for range filestore.NewWalker(nil).WalkFiles(root) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_Ignored(t *testing.T) {
	w := filestore.NewWalker([]string{".git"})
	assert.True(t, w.Ignored(".git"))
	assert.False(t, w.Ignored("src"))
}
