package core

import "context"

// LocalStore is the device-local collection of one kind.
// Implementations must be safe for concurrent use alongside other kinds' stores.
type LocalStore[T Entity] interface {
	// ReadAll returns the full current snapshot.
	ReadAll(ctx context.Context) ([]T, error)

	// WriteOne upserts a single record. Writing the same id replaces it.
	WriteOne(ctx context.Context, record T) error

	// WriteAll adopts a reconciled set. It is an idempotent upsert of every
	// record in the set.
	WriteAll(ctx context.Context, records []T) error
}

// RemoteStore is the shared collection of one kind, scoped by owner.
type RemoteStore[T Entity] interface {
	// ReadAll returns every record belonging to owner and nothing else.
	ReadAll(ctx context.Context, owner string) ([]T, error)

	// WriteOne upserts record and attaches owner to it.
	WriteOne(ctx context.Context, owner string, record T) error
}

// Identity supplies the owner the remote store is scoped to.
// Authentication lives outside murmur; this is its only touch point.
type Identity interface {
	// OwnerID returns the signed-in owner, or false when nobody is signed in.
	OwnerID(ctx context.Context) (string, bool)
}

// StaticIdentity is an Identity with a fixed owner. The empty string means
// "not signed in".
type StaticIdentity string

// OwnerID implements Identity.
func (s StaticIdentity) OwnerID(context.Context) (string, bool) {
	return string(s), s != ""
}

// IdentityFunc adapts a function to Identity.
type IdentityFunc func(ctx context.Context) (string, bool)

// OwnerID implements Identity.
func (f IdentityFunc) OwnerID(ctx context.Context) (string, bool) {
	return f(ctx)
}
