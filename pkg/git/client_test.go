package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !IsInstalled() {
		t.Skip("git not installed")
	}
}

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, DefaultLockName))
	assert.NoError(t, err, "lock file not created")

	// A second client cannot take the lock while it is held.
	other := NewClient(tmpDir, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = other.Lock(ctx)
	assert.Error(t, err)

	unlock()

	unlockOther, err := other.Lock(context.Background())
	require.NoError(t, err)
	unlockOther()
}

func TestClient_InitAddCommit(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	require.NoError(t, client.Init(ctx))
	assert.True(t, client.IsRepo(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.json"), []byte("{}"), 0644))

	staged, err := client.HasStaged(ctx)
	require.NoError(t, err)
	assert.False(t, staged, "untracked files are not staged")

	require.NoError(t, client.Add(ctx, "a.json"))
	staged, err = client.HasStaged(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, client.Commit(ctx, Sync("notes", "adopt 1 record", "a.json").String()))

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)

	log, err := client.Run(ctx, "log", "-1", "--format=%B")
	require.NoError(t, err)
	assert.Contains(t, log, "sync(notes): adopt 1 record")
	assert.Contains(t, log, Footer)

	// Deleted files are staged by Remove; unknown paths are ignored.
	require.NoError(t, os.Remove(filepath.Join(tmpDir, "a.json")))
	require.NoError(t, client.Remove(ctx, "a.json", "ghost.json"))
	staged, err = client.HasStaged(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, client.Commit(ctx, Chore("drop a.json").String()))
	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestClient_IsRepoOutsideRepo(t *testing.T) {
	requireGit(t)
	// A temp dir may sit inside a repo on some machines; use a fresh one with
	// GIT_CEILING_DIRECTORIES so git stops at it.
	tmpDir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(tmpDir))

	client := NewClient(tmpDir, "", nil)
	assert.False(t, client.IsRepo(context.Background()))
}
