package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"))
	touch(t, filepath.Join(dir, "nested", "a.hcl"))
	touch(t, filepath.Join(dir, "nested", "notes.txt"))
	touch(t, filepath.Join(dir, ".git", "ignored.hcl"))
	single := filepath.Join(t.TempDir(), "single.hcl")
	touch(t, single)

	files, err := FindFilesByExtension(".hcl", dir, single, filepath.Join(dir, "b.hcl"), filepath.Join(dir, "missing"))
	require.NoError(t, err)

	expected := []string{
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "a.hcl"),
		single,
	}
	assert.ElementsMatch(t, expected, files)
	assert.IsIncreasing(t, files)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = FindFilesByExtension("", t.TempDir())
	})
}
