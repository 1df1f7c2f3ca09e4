package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/core"
)

func folder(id, name string) core.Folder {
	return core.Folder{
		Meta: core.NewMeta(id, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Name: name,
	}
}

func TestLocalStore_UpsertAndRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLocalStore(folder("b", "B"))

	require.NoError(t, store.WriteOne(ctx, folder("a", "A")))
	require.NoError(t, store.WriteOne(ctx, folder("a", "A2")))
	require.NoError(t, store.WriteAll(ctx, []core.Folder{folder("c", "C")}))

	all, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "A2", all[0].Name)
	assert.Equal(t, 3, store.Writes())
}

func TestLocalStore_RejectsMissingID(t *testing.T) {
	store := memory.NewLocalStore[core.Folder]()
	err := store.WriteOne(context.Background(), folder("", "nameless"))
	assert.ErrorIs(t, err, core.ErrMissingID)
}

func TestRemoteStore_ScopesByOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRemoteStore[core.Folder]().
		Seed("alice", folder("a", "Alice's")).
		Seed("bob", folder("b", "Bob's"))

	require.NoError(t, store.WriteOne(ctx, "alice", folder("c", "Alice's too")))

	alice, err := store.ReadAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	bob, err := store.ReadAll(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "b", bob[0].ID)

	_, err = store.ReadAll(ctx, "")
	assert.ErrorIs(t, err, core.ErrNoOwner)
}

func TestStores_HonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewLocalStore[core.Folder]().ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = memory.NewRemoteStore[core.Folder]().ReadAll(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}
