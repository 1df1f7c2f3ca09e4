package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n1.json")

	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, writeFileAtomic(path, []byte("new"), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	err = writeFileAtomic(filepath.Join(dir, "missing", "n2.json"), []byte("x"), 0644)
	assert.Error(t, err, "parent directory must exist")

	assertNoTempFiles(t, dir)
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n1.json")

	written, err := replaceFile(path, []byte("{}"), 0644)
	require.NoError(t, err)
	assert.True(t, written, "missing file is created")

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	written, err = replaceFile(path, []byte("{}"), 0644)
	require.NoError(t, err)
	assert.False(t, written, "identical bytes are not rewritten")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Before(time.Now().Add(-time.Minute)), "mtime must be untouched")

	written, err = replaceFile(path, []byte(`{"a":1}`), 0644)
	require.NoError(t, err)
	assert.True(t, written)

	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), TempFilePrefix), "temp file left behind: %s", e.Name())
	}
}
