package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/murmur/pkg/core"
)

// KindSyncer reconciles a single kind. *Manager[T] implements it for every T.
type KindSyncer interface {
	Kind() core.Kind
	Sync(ctx context.Context, owner string) (Outcome, error)
}

// Orchestrator runs one KindSyncer per kind under the signed-in owner.
type Orchestrator struct {
	identity core.Identity
	logger   *slog.Logger
	reporter Reporter
	now      func() time.Time

	mu       sync.RWMutex
	syncers  []KindSyncer
	last     map[core.Kind]Outcome
	lastRun  *time.Time
	runs     int64
	idle     int64
	inFlight int
}

// NewOrchestrator creates an orchestrator scoped by identity.
func NewOrchestrator(identity core.Identity, opts ...Option) *Orchestrator {
	o := applyOptions(opts)
	return &Orchestrator{
		identity: identity,
		logger:   o.logger,
		reporter: o.reporter,
		now:      o.now,
		last:     make(map[core.Kind]Outcome),
	}
}

// Register adds syncers. Each kind may be registered once.
func (o *Orchestrator) Register(syncers ...KindSyncer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, s := range syncers {
		for _, existing := range o.syncers {
			if existing.Kind() == s.Kind() {
				return fmt.Errorf("%w: %s", ErrDuplicateKind, s.Kind())
			}
		}
		o.syncers = append(o.syncers, s)
	}
	return nil
}

// Kinds returns the registered kinds in registration order.
func (o *Orchestrator) Kinds() []core.Kind {
	o.mu.RLock()
	defer o.mu.RUnlock()

	kinds := make([]core.Kind, len(o.syncers))
	for i, s := range o.syncers {
		kinds[i] = s.Kind()
	}
	return kinds
}

// SyncAll reconciles every registered kind concurrently and waits for all of
// them. It never fails: each kind's failure, including a panic, is contained
// in that kind's Outcome. Without a signed-in owner it returns nil at once.
//
// Calls may overlap; every write is an upsert over stable ids.
func (o *Orchestrator) SyncAll(ctx context.Context) []Outcome {
	owner, ok := o.owner(ctx)
	if !ok {
		o.mu.Lock()
		o.idle++
		o.mu.Unlock()
		o.logger.Debug("no signed-in owner, skipping sync")
		return nil
	}

	o.mu.Lock()
	syncers := append([]KindSyncer(nil), o.syncers...)
	o.inFlight++
	o.mu.Unlock()

	runID := uuid.NewString()
	ctx = WithRunID(ctx, runID)
	o.logger.Debug("sync run started", "run_id", runID, "kinds", len(syncers))

	outcomes := make([]Outcome, len(syncers))
	var g errgroup.Group
	for i, s := range syncers {
		g.Go(func() error {
			outcomes[i] = o.run(ctx, s, owner, runID)
			return nil
		})
	}
	_ = g.Wait()

	finished := o.now()
	o.mu.Lock()
	o.inFlight--
	o.runs++
	o.lastRun = &finished
	for _, out := range outcomes {
		o.last[out.Kind] = out
	}
	o.mu.Unlock()

	if o.reporter != nil {
		for _, out := range outcomes {
			o.reporter.Report(ctx, out)
		}
	}

	return outcomes
}

// Last returns the latest outcome recorded for kind.
func (o *Orchestrator) Last(kind core.Kind) (Outcome, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out, ok := o.last[kind]
	return out, ok
}

func (o *Orchestrator) owner(ctx context.Context) (string, bool) {
	if o.identity == nil {
		return "", false
	}
	owner, ok := o.identity.OwnerID(ctx)
	return owner, ok && owner != ""
}

// run syncs one kind, converting a panic into a failed outcome.
func (o *Orchestrator) run(ctx context.Context, s KindSyncer, owner, runID string) (out Outcome) {
	kind := s.Kind()
	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			err := &Error{Kind: kind, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
			o.logger.Error("sync panicked", "kind", string(kind), "run_id", runID, "panic", r)
			out = Outcome{
				Kind:      kind,
				RunID:     runID,
				Owner:     owner,
				Status:    StatusFailed,
				StartedAt: started,
				Duration:  o.now().Sub(started),
				Err:       err,
			}
		}
	}()

	out, err := s.Sync(ctx, owner)
	if out.Kind == "" {
		out.Kind = kind
	}
	if out.RunID == "" {
		out.RunID = runID
	}
	if out.Owner == "" {
		out.Owner = owner
	}
	if out.StartedAt.IsZero() {
		out.StartedAt = started
	}
	if err != nil && out.Err == nil {
		out.Err = err
	}
	if out.Status == "" {
		out.Status = StatusSucceeded
		if out.Err != nil {
			out.Status = StatusFailed
		}
	}
	return out
}

var _ KindSyncer = (*Manager[core.Note])(nil)
