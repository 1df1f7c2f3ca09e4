package fs_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/murmur/pkg/adapters/fs"
	"github.com/aretw0/murmur/pkg/core"
)

// TestConcurrency_WritebacksAndNoise runs two stores over the same root,
// as two processes would, while an outside actor keeps dropping files into
// the kind directory. Every record written must stay readable.
func TestConcurrency_WritebacksAndNoise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	root := t.TempDir()
	a := fs.NewStore[core.Note](fs.Config{Path: root, Kind: core.KindNotes})
	b := fs.NewStore[core.Note](fs.Config{Path: root, Kind: core.KindNotes, Format: ".yaml"})
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, b.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup

	// Outside writes, some of them garbage.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			path := filepath.Join(root, "notes", fmt.Sprintf("noise-%d.json", rand.Intn(5)))
			_ = os.WriteFile(path, []byte(`{"title": `), 0644)
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		}
	}()

	writer := func(store *fs.Store[core.Note], prefix string) {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			batch := []core.Note{
				{Meta: core.NewMeta(fmt.Sprintf("%s-%d", prefix, i%10), time.Now()), Title: prefix},
			}
			// Lock contention between the stores is expected.
			_ = store.WriteAll(context.Background(), batch)
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		}
	}
	wg.Add(2)
	go writer(a, "a")
	go writer(b, "b")

	wg.Wait()

	notes, err := a.ReadAll(context.Background())
	require.NoError(t, err)
	for _, n := range notes {
		assert.NotEmpty(t, n.Title, "record %s was read back empty", n.ID)
	}
	assert.NotEmpty(t, notes)
}
