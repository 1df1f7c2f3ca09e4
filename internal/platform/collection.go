package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/murmur/pkg/core"
)

// Mutable is the pointer form of an entity, which carries the Meta mutators.
type Mutable[T any] interface {
	*T
	core.Entity
	Touch(now time.Time)
	MarkDeleted(now time.Time)
}

// Collection is the application-facing view of a local store: it hides
// tombstones and stamps timestamps on writes. Sync picks the changes up on
// its next cycle.
type Collection[T core.Entity, P Mutable[T]] struct {
	store core.LocalStore[T]
	now   func() time.Time
}

// NewCollection wraps store. A nil now uses time.Now.
func NewCollection[T core.Entity, P Mutable[T]](store core.LocalStore[T], now func() time.Time) *Collection[T, P] {
	if now == nil {
		now = time.Now
	}
	return &Collection[T, P]{store: store, now: now}
}

// List returns every live record.
func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	all, err := c.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return core.Live(all), nil
}

// Get returns the live record with id, or core.ErrNotFound.
func (c *Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	all, err := c.store.ReadAll(ctx)
	if err != nil {
		return zero, err
	}
	for _, r := range all {
		meta := r.GetMeta()
		if meta.ID == id && !meta.IsDeleted() {
			return r, nil
		}
	}
	return zero, fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

// Save stamps record as modified now and writes it.
func (c *Collection[T, P]) Save(ctx context.Context, record T) (T, error) {
	P(&record).Touch(c.now())
	if err := c.store.WriteOne(ctx, record); err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

// Delete tombstones the record with id. The tombstone is a normal write, so
// the deletion reaches other devices through sync.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	r, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	P(&r).MarkDeleted(c.now())
	return c.store.WriteOne(ctx, r)
}
