package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/murmur/pkg/core"
)

// RemoteStore is a core.RemoteStore for one kind backed by DB.
// Records are stored as their JSON form; the remaining columns index them.
type RemoteStore[T core.Entity] struct {
	db     *DB
	kind   core.Kind
	logger *slog.Logger
}

// NewRemoteStore creates the remote store of kind on db.
func NewRemoteStore[T core.Entity](db *DB, kind core.Kind, logger *slog.Logger) *RemoteStore[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RemoteStore[T]{
		db:     db,
		kind:   kind,
		logger: logger.With("kind", string(kind), "store", "remote"),
	}
}

// Kind returns the kind this store holds.
func (s *RemoteStore[T]) Kind() core.Kind {
	return s.kind
}

// ReadAll implements core.RemoteStore. Only rows of owner are returned,
// ordered by id.
func (s *RemoteStore[T]) ReadAll(ctx context.Context, owner string) ([]T, error) {
	if owner == "" {
		return nil, core.ErrNoOwner
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, payload FROM records WHERE kind = ? AND owner_id = ? ORDER BY id`,
		string(s.kind), owner,
	)
	if err != nil {
		return nil, core.Unavailable("remote", "read", s.kind, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, core.Unavailable("remote", "read", s.kind, err)
		}

		var record T
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			s.logger.Warn("skipping undecodable row", "id", id, "error", err)
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Unavailable("remote", "read", s.kind, err)
	}

	return records, nil
}

// WriteOne implements core.RemoteStore. The row is keyed by kind, owner and
// record id, so writing the same record twice leaves one row.
func (s *RemoteStore[T]) WriteOne(ctx context.Context, owner string, record T) error {
	if owner == "" {
		return core.ErrNoOwner
	}

	meta := record.GetMeta()
	if err := core.ValidateID(meta.ID); err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return core.Unavailable("remote", "write", s.kind, fmt.Errorf("failed to encode %s: %w", meta.ID, err))
	}

	var updatedAt any
	deleted := 0
	if meta.IsDeleted() {
		deleted = 1
	}
	if meta.UpdatedAt != nil {
		updatedAt = meta.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO records (kind, owner_id, id, created_at, updated_at, deleted, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, owner_id, id) DO UPDATE SET
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			payload = excluded.payload
	`,
		string(s.kind), owner, meta.ID,
		meta.CreatedAt.UTC().Format(time.RFC3339Nano), updatedAt,
		deleted, string(payload),
	)
	if err != nil {
		return core.Unavailable("remote", "write", s.kind, err)
	}

	s.logger.Debug("record upserted", "id", meta.ID, "owner", owner)
	return nil
}

var (
	_ core.RemoteStore[core.Note]      = (*RemoteStore[core.Note])(nil)
	_ core.RemoteStore[core.Recording] = (*RemoteStore[core.Recording])(nil)
	_ core.RemoteStore[core.Folder]    = (*RemoteStore[core.Folder])(nil)
)
