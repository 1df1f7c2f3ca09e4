// Package syncer reconciles record collections between a device-local store
// and an owner-scoped remote store.
//
// A Manager reconciles one kind with last-writer-wins: remote records seed the
// merged view, a local record replaces its remote copy only when its effective
// time (UpdatedAt, else CreatedAt) is strictly newer, and every local winner is
// pushed to the remote before the merged set is written back locally. Ties
// favor the remote copy, which makes a second run with no intervening change a
// no-op.
//
// An Orchestrator runs one Manager per kind concurrently and never fails: each
// kind's failure is contained and reported as an Outcome. A Scheduler drives
// the orchestrator on an interval and on local change notifications.
package syncer
