// Package memory provides in-process stores. They back tests and embedders
// that keep their data elsewhere and only need the sync engine.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/murmur/pkg/core"
)

// LocalStore is a core.LocalStore held in a map.
type LocalStore[T core.Entity] struct {
	mu      sync.RWMutex
	records map[string]T
	writes  int
}

// NewLocalStore creates a store seeded with records.
func NewLocalStore[T core.Entity](seed ...T) *LocalStore[T] {
	s := &LocalStore[T]{records: make(map[string]T, len(seed))}
	for _, r := range seed {
		s.records[r.GetMeta().ID] = r
	}
	return s
}

// ReadAll implements core.LocalStore.
func (s *LocalStore[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.records), nil
}

// WriteOne implements core.LocalStore.
func (s *LocalStore[T]) WriteOne(ctx context.Context, record T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := record.GetMeta().ID
	if err := core.ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record
	s.writes++
	return nil
}

// WriteAll implements core.LocalStore. Every record in the set is upserted.
func (s *LocalStore[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range records {
		if err := core.ValidateID(r.GetMeta().ID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.GetMeta().ID] = r
	}
	s.writes++
	return nil
}

// Get returns one record by id.
func (s *LocalStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// Writes counts successful WriteOne and WriteAll calls.
func (s *LocalStore[T]) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// RemoteStore is a core.RemoteStore that keeps one map per owner.
type RemoteStore[T core.Entity] struct {
	mu     sync.RWMutex
	owners map[string]map[string]T
	writes int
}

// NewRemoteStore creates an empty remote store.
func NewRemoteStore[T core.Entity]() *RemoteStore[T] {
	return &RemoteStore[T]{owners: make(map[string]map[string]T)}
}

// Seed stores records for owner without counting them as writes.
func (s *RemoteStore[T]) Seed(owner string, records ...T) *RemoteStore[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.put(owner, r)
	}
	return s
}

// ReadAll implements core.RemoteStore.
func (s *RemoteStore[T]) ReadAll(ctx context.Context, owner string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, core.ErrNoOwner
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.owners[owner]), nil
}

// WriteOne implements core.RemoteStore.
func (s *RemoteStore[T]) WriteOne(ctx context.Context, owner string, record T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if owner == "" {
		return core.ErrNoOwner
	}
	if err := core.ValidateID(record.GetMeta().ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(owner, record)
	s.writes++
	return nil
}

// Get returns one record of owner by id.
func (s *RemoteStore[T]) Get(owner, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.owners[owner][id]
	return r, ok
}

// Writes counts successful WriteOne calls.
func (s *RemoteStore[T]) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *RemoteStore[T]) put(owner string, record T) {
	m, ok := s.owners[owner]
	if !ok {
		m = make(map[string]T)
		s.owners[owner] = m
	}
	m[record.GetMeta().ID] = record
}

func sorted[T core.Entity](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b T) int {
		return strings.Compare(a.GetMeta().ID, b.GetMeta().ID)
	})
	return out
}

var _ core.LocalStore[core.Note] = (*LocalStore[core.Note])(nil)
var _ core.RemoteStore[core.Note] = (*RemoteStore[core.Note])(nil)
