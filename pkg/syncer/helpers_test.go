package syncer_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/murmur/pkg/core"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// at returns base shifted by n seconds.
func at(n int) time.Time {
	return base.Add(time.Duration(n) * time.Second)
}

// note builds a note whose effective time is at(updated).
// A negative updated leaves UpdatedAt unset so CreatedAt (at(0)) applies.
func note(id, title string, updated int) core.Note {
	n := core.Note{Meta: core.NewMeta(id, at(0)), Title: title}
	if updated >= 0 {
		n.Touch(at(updated))
	}
	return n
}

var errBoom = errors.New("boom")

// faultyRemote fails reads and selected writes.
type faultyRemote[T core.Entity] struct {
	core.RemoteStore[T]

	mu        sync.Mutex
	failRead  bool
	failWrite map[string]bool
	attempts  int
}

func (f *faultyRemote[T]) ReadAll(ctx context.Context, owner string) ([]T, error) {
	if f.failRead {
		return nil, errBoom
	}
	return f.RemoteStore.ReadAll(ctx, owner)
}

func (f *faultyRemote[T]) WriteOne(ctx context.Context, owner string, record T) error {
	f.mu.Lock()
	f.attempts++
	fail := f.failWrite[record.GetMeta().ID]
	f.mu.Unlock()
	if fail {
		return errBoom
	}
	return f.RemoteStore.WriteOne(ctx, owner, record)
}

// faultyLocal fails writebacks.
type faultyLocal[T core.Entity] struct {
	core.LocalStore[T]
	failWriteAll bool
}

func (f *faultyLocal[T]) WriteAll(ctx context.Context, records []T) error {
	if f.failWriteAll {
		return errBoom
	}
	return f.LocalStore.WriteAll(ctx, records)
}

func ids[T core.Entity](records []T) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.GetMeta().ID
	}
	return out
}

// explodingLocal panics on every read.
type explodingLocal[T core.Entity] struct {
	core.LocalStore[T]
}

func (explodingLocal[T]) ReadAll(context.Context) ([]T, error) {
	panic("local store exploded")
}

// explodingRemote panics on every read.
type explodingRemote[T core.Entity] struct {
	core.RemoteStore[T]
}

func (explodingRemote[T]) ReadAll(context.Context, string) ([]T, error) {
	panic("remote store exploded")
}
