package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/murmur/pkg/core"
)

// Manager reconciles one kind between one local and one remote store.
// It holds no state between runs; every run recomputes its decisions from
// the two snapshots.
type Manager[T core.Entity] struct {
	kind   core.Kind
	local  core.LocalStore[T]
	remote core.RemoteStore[T]
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a manager for kind.
func NewManager[T core.Entity](kind core.Kind, local core.LocalStore[T], remote core.RemoteStore[T], opts ...Option) *Manager[T] {
	o := applyOptions(opts)
	return &Manager[T]{
		kind:   kind,
		local:  local,
		remote: remote,
		logger: o.logger.With("kind", string(kind)),
		now:    o.now,
	}
}

// Kind returns the kind this manager reconciles.
func (m *Manager[T]) Kind() core.Kind {
	return m.kind
}

// Sync runs one reconciliation for owner.
//
// Both snapshots are fetched concurrently and merged. Every local winner is
// pushed with one WriteOne each; a failed push is logged and counted but
// neither stops the other pushes nor the local writeback. The merged set is
// then written back locally with a single WriteAll.
//
// The returned error is an *Error. A fetch or writeback failure yields
// StatusFailed; push failures alone yield StatusDegraded. The Outcome is
// always populated.
func (m *Manager[T]) Sync(ctx context.Context, owner string) (Outcome, error) {
	out := Outcome{
		Kind:      m.kind,
		RunID:     RunID(ctx),
		Owner:     owner,
		StartedAt: m.now(),
	}
	if out.RunID == "" {
		out.RunID = uuid.NewString()
	}
	logger := m.logger.With("run_id", out.RunID)

	fail := func(phase Phase, err error) (Outcome, error) {
		out.Status = StatusFailed
		out.Err = &Error{Kind: m.kind, Phase: phase, Err: err}
		out.Duration = m.now().Sub(out.StartedAt)
		logger.Error("sync failed", "phase", string(phase), "error", err)
		return out, out.Err
	}

	if owner == "" {
		return fail(PhaseFetch, core.ErrNoOwner)
	}

	logger.Debug("sync started", "owner", owner)

	// 1. Fetch
	var localItems, remoteItems []T
	g, gctx := errgroup.WithContext(ctx)
	g.Go(contained(func() error {
		items, err := m.local.ReadAll(gctx)
		if err != nil {
			return storeErr("local", "read all", m.kind, err)
		}
		localItems = items
		return nil
	}))
	g.Go(contained(func() error {
		items, err := m.remote.ReadAll(gctx, owner)
		if err != nil {
			return storeErr("remote", "read all", m.kind, err)
		}
		remoteItems = items
		return nil
	}))
	if err := g.Wait(); err != nil {
		return fail(PhaseFetch, err)
	}
	out.Local = len(localItems)
	out.Remote = len(remoteItems)

	// 2. Merge
	plan := Merge(localItems, remoteItems)
	out.Merged = len(plan.Merged)
	out.Pulled = plan.Pulled
	out.Skipped = len(plan.Skipped)
	for _, s := range plan.Skipped {
		logger.Warn("skipping malformed record", "side", string(s.Side), "id", s.ID, "error", s.Err)
	}

	// 3. Push
	var pushErrs []error
	for _, record := range plan.Push {
		if err := ctx.Err(); err != nil {
			return fail(PhasePush, err)
		}
		id := record.GetMeta().ID
		if err := m.remote.WriteOne(ctx, owner, record); err != nil {
			out.PushFailed++
			pushErrs = append(pushErrs, storeErr("remote", "write "+id, m.kind, err))
			logger.Warn("push failed", "id", id, "error", err)
			continue
		}
		out.Pushed++
	}

	// 4. Writeback
	if err := m.local.WriteAll(ctx, plan.Merged); err != nil {
		return fail(PhaseWriteback, storeErr("local", "write all", m.kind, err))
	}

	out.Duration = m.now().Sub(out.StartedAt)

	if len(pushErrs) > 0 {
		out.Status = StatusDegraded
		out.Err = &Error{Kind: m.kind, Phase: PhasePush, Err: errors.Join(pushErrs...)}
		logger.Warn("sync completed with push failures",
			"pushed", out.Pushed,
			"push_failed", out.PushFailed,
			"pulled", out.Pulled,
		)
		return out, out.Err
	}

	out.Status = StatusSucceeded
	logger.Info("sync completed",
		"local", out.Local,
		"remote", out.Remote,
		"pushed", out.Pushed,
		"pulled", out.Pulled,
		"duration", out.Duration,
	)
	return out, nil
}

// storeErr wraps err as a store failure unless an adapter already did.
// contained turns a panic in fn into an ErrPanic error. Fetches run on their
// own goroutines, out of reach of the orchestrator's recover.
func contained(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		return fn()
	}
}

func storeErr(store, op string, kind core.Kind, err error) error {
	if errors.Is(err, core.ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return core.Unavailable(store, op, kind, err)
}
