// Package murmur is the composition root of the murmur sync engine.
//
// murmur keeps per-device collections of notes, recordings and folders in
// step with a shared remote store scoped to the signed-in owner. Every cycle
// reads both sides of each kind, merges them by last-writer-wins on the
// record timestamps, pushes the local winners and writes the merged set back
// locally. Kinds sync concurrently and fail independently; a failed kind is
// logged and retried on the next cycle.
//
// The default wiring stores each record as a file under <root>/<kind>/ and
// uses an embedded SQLite database as the remote. Both sides are interfaces
// (core.LocalStore, core.RemoteStore), so other backends plug into
// syncer.NewManager directly.
//
// Usage:
//
//	engine, err := murmur.Open(ctx, "./data",
//		murmur.WithOwner("alice"),
//		murmur.WithLogger(logger),
//	)
//	defer engine.Close()
//
//	notes := murmur.NewCollection[murmur.Note](engine.Notes, nil)
//	_, err = notes.Save(ctx, murmur.Note{Meta: murmur.NewMeta(uuid.NewString(), time.Now()), Title: "Hello"})
//
//	outcomes := engine.SyncAll(ctx)
package murmur
