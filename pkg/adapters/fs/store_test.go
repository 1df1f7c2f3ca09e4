package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/murmur/pkg/adapters/fs"
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/git"
	"github.com/aretw0/murmur/pkg/syncer"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newNote(id, title, body string) core.Note {
	return core.Note{Meta: core.NewMeta(id, created), Title: title, Body: body}
}

func newStore(t *testing.T, root string, cfg fs.Config) *fs.Store[core.Note] {
	t.Helper()
	cfg.Path = root
	if cfg.Kind == "" {
		cfg.Kind = core.KindNotes
	}
	s := fs.NewStore[core.Note](cfg)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStore_WriteAllReadAll(t *testing.T) {
	for _, format := range []string{".json", ".yaml", ".md"} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()
			store := newStore(t, root, fs.Config{Format: format, ContentKey: "body"})

			notes := []core.Note{
				newNote("a", "First", "line one\nline two"),
				newNote("b", "Second", ""),
			}
			require.NoError(t, store.WriteAll(ctx, notes))

			_, err := os.Stat(filepath.Join(root, "notes", "a"+format))
			require.NoError(t, err)

			got, err := store.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, notes, got)
		})
	}
}

func TestStore_MissingDirectoryReadsEmpty(t *testing.T) {
	store := fs.NewStore[core.Note](fs.Config{Path: filepath.Join(t.TempDir(), "nowhere"), Kind: core.KindNotes})

	got, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SkipsUnchangedFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newStore(t, root, fs.Config{})

	notes := []core.Note{newNote("a", "A", ""), newNote("b", "B", "")}
	require.NoError(t, store.WriteAll(ctx, notes))

	path := filepath.Join(root, "notes", "a.json")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	notes[1].Title = "B2"
	require.NoError(t, store.WriteAll(ctx, notes))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged record was rewritten")

	state := store.State().(fs.StoreState)
	assert.Equal(t, 3, state.FilesWritten)
	assert.Equal(t, 1, state.FilesSkipped)
}

func TestStore_WriteAllDoesNotDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, t.TempDir(), fs.Config{})

	require.NoError(t, store.WriteOne(ctx, newNote("keep", "Keep", "")))
	require.NoError(t, store.WriteAll(ctx, []core.Note{newNote("other", "Other", "")}))

	got, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_SkipsUnparsableFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newStore(t, root, fs.Config{})

	require.NoError(t, store.WriteOne(ctx, newNote("good", "Good", "")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "broken.json"), []byte("{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "wrongtype.json"), []byte(`{"title": 42}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "readme.txt"), []byte("ignored"), 0644))

	got, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
	assert.Equal(t, 2, store.State().(fs.StoreState).Unparsable)
}

func TestStore_FileNameIsTheID(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newStore(t, root, fs.Config{})

	content := `{"id": "stale", "title": "Hand written", "created_at": "2024-05-01T12:00:00Z"}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "fresh.json"), []byte(content), 0644))

	got, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestStore_CacheServesUnchangedFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newStore(t, root, fs.Config{SystemDir: ".cache"})

	require.NoError(t, store.WriteOne(ctx, newNote("a", "A", "")))
	_, err := store.ReadAll(ctx)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, ".cache", "notes.index.json"))
	require.NoError(t, err)

	// A fresh store reads through the persisted index.
	again := fs.NewStore[core.Note](fs.Config{Path: root, Kind: core.KindNotes, SystemDir: ".cache"})
	got, err := again.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, 1, again.State().(fs.StoreState).CacheSize)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, t.TempDir(), fs.Config{Format: "md", ContentKey: "body"})

	require.NoError(t, store.WriteOne(ctx, newNote("a", "A", "body text")))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "body text", got.Body)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = store.Get(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, core.ErrInvalidID)
}

func TestStore_RejectsInvalidIDs(t *testing.T) {
	store := newStore(t, t.TempDir(), fs.Config{})

	err := store.WriteOne(context.Background(), newNote("a/b", "nested", ""))
	assert.ErrorIs(t, err, core.ErrInvalidID)

	err = store.WriteAll(context.Background(), []core.Note{newNote("", "blank", "")})
	assert.ErrorIs(t, err, core.ErrMissingID)
}

func TestStore_RejectsUnknownFormat(t *testing.T) {
	store := fs.NewStore[core.Note](fs.Config{Path: t.TempDir(), Kind: core.KindNotes, Format: ".csv"})
	assert.Error(t, store.Initialize(context.Background()))
}

func TestStore_VersionedWritesCommit(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	root := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(root))
	store := newStore(t, root, fs.Config{Versioned: true, AutoInit: true})

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), ".murmur/")

	require.NoError(t, store.WriteAll(ctx, []core.Note{newNote("a", "A", "")}))
	// Unchanged writeback makes no empty commit.
	require.NoError(t, store.WriteAll(ctx, []core.Note{newNote("a", "A", "")}))

	client := git.NewClient(root, "", nil)
	log, err := client.Run(ctx, "log", "--format=%s")
	require.NoError(t, err)
	lines := strings.Split(log, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "sync(notes): adopt 1 records", lines[0])
	assert.Equal(t, "chore: configure .murmur ignore", lines[1])
}

func TestStore_WithoutAutoInitRequiresRepo(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(root))

	store := fs.NewStore[core.Note](fs.Config{Path: root, Kind: core.KindNotes, Versioned: true})
	assert.Error(t, store.Initialize(context.Background()))
}

func TestStore_SyncsThroughDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	local := newStore(t, root, fs.Config{Format: ".md", ContentKey: "body"})
	require.NoError(t, local.WriteOne(ctx, newNote("mine", "Mine", "local body")))

	remote := memory.NewRemoteStore[core.Note]().Seed("alice", newNote("theirs", "Theirs", "remote body"))
	m := syncer.NewManager(core.KindNotes, local, remote)

	out, err := m.Sync(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pushed)
	assert.Equal(t, 1, out.Pulled)

	data, err := os.ReadFile(filepath.Join(root, "notes", "theirs.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n---\nremote body"))

	// Second run converges without writing.
	before := local.State().(fs.StoreState).FilesWritten
	out, err = m.Sync(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, out.Pushed)
	assert.Equal(t, before, local.State().(fs.StoreState).FilesWritten)
}

func TestStore_SettlesOneFilePerID(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "notes")

	markdown := newStore(t, root, fs.Config{Format: ".md", ContentKey: "body"})
	require.NoError(t, markdown.WriteOne(ctx, newNote("x", "Hello", "from markdown")))

	jsonStore := newStore(t, root, fs.Config{Format: ".json", ContentKey: "body"})
	got, err := jsonStore.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "from markdown", got.Body, "body survives a format change")

	got.MarkDeleted(created.Add(time.Hour))
	require.NoError(t, jsonStore.WriteOne(ctx, got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"x.json"}, names)

	all, err := markdown.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsDeleted())
	assert.Empty(t, core.Live(all))
}

func TestStore_CollapsesDuplicateFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newStore(t, root, fs.Config{Format: ".json"})
	dir := filepath.Join(root, "notes")

	older := `{"id": "x", "title": "old", "created_at": "2024-05-01T12:00:00Z"}`
	newer := "---\ntitle: new\ncreated_at: 2024-05-01T12:00:00Z\nupdated_at: 2024-05-02T12:00:00Z\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte(older), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.md"), []byte(newer), 0644))

	all, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Title)

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)

	t.Run("tie keeps the configured format", func(t *testing.T) {
		same := `{"id": "y", "title": "json copy", "created_at": "2024-05-01T12:00:00Z"}`
		mirror := "---\ntitle: md copy\ncreated_at: 2024-05-01T12:00:00Z\n---\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "y.json"), []byte(same), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "y.md"), []byte(mirror), 0644))

		got, err := store.Get(ctx, "y")
		require.NoError(t, err)
		assert.Equal(t, "json copy", got.Title)

		all, err := store.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "json copy", all[1].Title)
	})
}
