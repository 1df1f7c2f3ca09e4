package fs

import (
	"encoding/json"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/murmur/pkg/core"
)

// touch writes data to root/name with a fixed mtime and returns its info.
func touch(t *testing.T, root, name, data string, mtime time.Time) iofs.FileInfo {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestCacheLookup(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	info := touch(t, root, "n1.json", `{"title":"one"}`, base)

	c := newCache(root, ".murmur", core.KindNotes)
	c.Store("n1.json", info, core.Document{ID: "n1", Metadata: map[string]any{"title": "one"}})

	doc, ok := c.Lookup("n1.json", info)
	require.True(t, ok)
	assert.Equal(t, "n1", doc.ID)
	assert.Equal(t, "one", doc.Metadata["title"])

	t.Run("moved mtime misses", func(t *testing.T) {
		later := touch(t, root, "n1.json", `{"title":"one"}`, base.Add(time.Second))
		_, ok := c.Lookup("n1.json", later)
		assert.False(t, ok)
	})

	t.Run("changed size misses", func(t *testing.T) {
		grown := touch(t, root, "n1.json", `{"title":"one!"}`, base)
		_, ok := c.Lookup("n1.json", grown)
		assert.False(t, ok)
	})

	t.Run("unknown name misses", func(t *testing.T) {
		_, ok := c.Lookup("n2.json", info)
		assert.False(t, ok)
	})
}

func TestCachePersistence(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := touch(t, root, "a.json", `{}`, base)
	b := touch(t, root, "b.json", `{}`, base)

	c := newCache(root, ".murmur", core.KindFolders)
	require.NoError(t, c.Save())
	_, err := os.Stat(c.path)
	assert.ErrorIs(t, err, iofs.ErrNotExist, "a clean cache is not written")

	c.Store("a.json", a, core.Document{ID: "a"})
	c.Store("b.json", b, core.Document{ID: "b"})
	c.Prune(map[string]bool{"a.json": true})
	require.NoError(t, c.Save())

	reloaded := newCache(root, ".murmur", core.KindFolders)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 1, reloaded.Len())
	_, ok := reloaded.Lookup("a.json", a)
	assert.True(t, ok, "pruned survivor is reloaded")
	_, ok = reloaded.Lookup("b.json", b)
	assert.False(t, ok)
}

func TestCacheLoadDiscards(t *testing.T) {
	write := func(t *testing.T, root string, data []byte) *cache {
		t.Helper()
		c := newCache(root, ".murmur", core.KindNotes)
		require.NoError(t, os.MkdirAll(filepath.Dir(c.path), 0755))
		require.NoError(t, os.WriteFile(c.path, data, 0644))
		return c
	}
	entries := map[string]*indexEntry{"n1.json": {ID: "n1"}}

	cases := map[string]func(t *testing.T) []byte{
		"corrupt json": func(t *testing.T) []byte { return []byte("{ nope") },
		"older version": func(t *testing.T) []byte {
			data, err := json.Marshal(indexFile{Version: indexVersion - 1, Kind: core.KindNotes, Entries: entries})
			require.NoError(t, err)
			return data
		},
		"other kind": func(t *testing.T) []byte {
			data, err := json.Marshal(indexFile{Version: indexVersion, Kind: core.KindFolders, Entries: entries})
			require.NoError(t, err)
			return data
		},
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			c := write(t, t.TempDir(), payload(t))
			require.NoError(t, c.Load())
			assert.Zero(t, c.Len())

			require.NoError(t, c.Save(), "a discarded index is rewritten")
			data, err := os.ReadFile(c.path)
			require.NoError(t, err)
			var file indexFile
			require.NoError(t, json.Unmarshal(data, &file))
			assert.Equal(t, indexVersion, file.Version)
			assert.Equal(t, core.KindNotes, file.Kind)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		c := newCache(t.TempDir(), ".murmur", core.KindNotes)
		require.NoError(t, c.Load())
		assert.Zero(t, c.Len())
	})
}
