package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrStoreUnavailable matches any failed read or write against a store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMissingID is returned for records without a usable id.
	ErrMissingID = errors.New("record has no id")

	// ErrInvalidID is matched by InvalidIDError.
	ErrInvalidID = errors.New("invalid record id")

	// ErrNotFound is returned when a single record lookup misses.
	ErrNotFound = errors.New("record not found")

	// ErrNoOwner is returned by remote stores called without an owner.
	ErrNoOwner = errors.New("owner id is required")
)

// InvalidIDError reports an id that cannot be used as a key.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid record id %q", e.ID)
}

func (e *InvalidIDError) Is(target error) bool {
	return target == ErrInvalidID
}

// StoreError describes a failed store operation.
// It matches ErrStoreUnavailable via errors.Is.
type StoreError struct {
	Store string // "local" or "remote"
	Op    string
	Kind  Kind
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s %s: %v", e.Store, e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unavailable wraps err as a StoreError. A nil err stays nil.
func Unavailable(store, op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Store: store, Op: op, Kind: kind, Err: err}
}
