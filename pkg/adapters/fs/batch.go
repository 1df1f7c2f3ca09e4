package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/git"
)

// batch collects records and writes them in one pass, followed by at most
// one git commit.
type batch[T core.Entity] struct {
	store  *Store[T]
	staged map[string]core.Document // id -> document
}

func (s *Store[T]) newBatch() *batch[T] {
	return &batch[T]{
		store:  s,
		staged: make(map[string]core.Document),
	}
}

// Stage encodes record and queues it. A later record with the same id
// replaces the earlier one.
func (b *batch[T]) Stage(record T) error {
	id := record.GetMeta().ID
	if err := core.ValidateID(id); err != nil {
		return err
	}
	doc, err := b.store.codecFor(b.store.config.Format).Encode(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}
	b.staged[id] = doc
	return nil
}

// Len returns the number of staged records.
func (b *batch[T]) Len() int {
	return len(b.staged)
}

// Commit writes every staged record whose bytes differ from the file on disk
// and returns how many files were written.
func (b *batch[T]) Commit(ctx context.Context, subject string) (int, error) {
	s := b.store
	serializer := s.serializers[s.config.Format]
	if serializer == nil {
		return 0, fmt.Errorf("unsupported format %q", s.config.Format)
	}

	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	ids := make([]string, 0, len(b.staged))
	for id := range b.staged {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var changed, removed []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return len(changed), err
		}

		doc := b.staged[id]
		data, err := serializer.Serialize(doc)
		if err != nil {
			return len(changed), fmt.Errorf("failed to serialize %s: %w", id, err)
		}

		name := id + s.config.Format
		fullPath := filepath.Join(s.Path, name)

		written, err := replaceFile(fullPath, data, 0644)
		if err != nil {
			return len(changed), fmt.Errorf("failed to write %s: %w", name, err)
		}

		gone, err := b.removeSiblings(id)
		removed = append(removed, gone...)
		if err != nil {
			return len(changed), err
		}

		if !written {
			continue
		}
		changed = append(changed, name)

		if info, err := os.Stat(fullPath); err == nil {
			doc.ID = id
			s.cache.Store(name, info, doc)
		}
	}

	if err := s.cache.Save(); err != nil {
		s.logger.Warn("failed to save cache", "error", err)
	}

	if len(changed) > 0 || len(removed) > 0 {
		s.logger.Debug("records written", "files", len(changed), "unchanged", len(ids)-len(changed), "removed", len(removed))
	}

	if !s.config.Versioned || len(changed)+len(removed) == 0 {
		return len(changed), nil
	}
	return len(changed), b.commitGit(ctx, subject, changed, removed)
}

// removeSiblings deletes files holding id in a format other than the
// configured one, so each id settles to a single file.
func (b *batch[T]) removeSiblings(id string) ([]string, error) {
	s := b.store
	var gone []string
	for _, ext := range s.extensions()[1:] {
		name := id + ext
		err := os.Remove(filepath.Join(s.Path, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return gone, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		gone = append(gone, name)
	}
	return gone, nil
}

func (b *batch[T]) commitGit(ctx context.Context, subject string, changed, removed []string) error {
	s := b.store

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	rel := func(names []string) []string {
		out := make([]string, len(names))
		for i, name := range names {
			out[i] = filepath.ToSlash(filepath.Join(string(s.config.Kind), name))
		}
		return out
	}
	paths := rel(changed)

	if err := s.git.Add(ctx, paths...); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := s.git.Remove(ctx, rel(removed)...); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}

	staged, err := s.git.HasStaged(ctx)
	if err != nil {
		return fmt.Errorf("failed to read git status: %w", err)
	}
	if !staged {
		return nil
	}

	msg := git.Sync(string(s.config.Kind), subject, append(paths, rel(removed)...)...)
	if err := s.git.Commit(ctx, msg.String()); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}
