package core

import (
	"strings"
	"time"
)

// Meta carries the identity and timestamps every synced record shares.
// Concrete record types embed it, which makes them satisfy Entity.
type Meta struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Entity is the capability the sync engine needs from a record.
type Entity interface {
	GetMeta() Meta
}

// NewMeta returns metadata for a record created at now.
func NewMeta(id string, now time.Time) Meta {
	return Meta{ID: id, CreatedAt: now.UTC()}
}

// GetMeta implements Entity.
func (m Meta) GetMeta() Meta {
	return m
}

// EffectiveTime is UpdatedAt when set, CreatedAt otherwise.
func (m Meta) EffectiveTime() time.Time {
	if m.UpdatedAt != nil && !m.UpdatedAt.IsZero() {
		return *m.UpdatedAt
	}
	return m.CreatedAt
}

// IsDeleted reports whether the record carries a tombstone.
func (m Meta) IsDeleted() bool {
	return m.DeletedAt != nil && !m.DeletedAt.IsZero()
}

// Touch marks the record as modified at now.
func (m *Meta) Touch(now time.Time) {
	t := now.UTC()
	m.UpdatedAt = &t
}

// MarkDeleted tombstones the record. The tombstone also bumps UpdatedAt so
// it wins the merge against older copies on other devices.
func (m *Meta) MarkDeleted(now time.Time) {
	t := now.UTC()
	m.DeletedAt = &t
	m.UpdatedAt = &t
}

// EffectiveTime returns the recency marker used by last-writer-wins.
func EffectiveTime(e Entity) time.Time {
	return e.GetMeta().EffectiveTime()
}

// ValidateID checks that id can serve as a merge key and as a file name.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return &InvalidIDError{ID: id}
	}
	return nil
}

// Live filters out tombstoned records.
func Live[T Entity](records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if !r.GetMeta().IsDeleted() {
			out = append(out, r)
		}
	}
	return out
}
