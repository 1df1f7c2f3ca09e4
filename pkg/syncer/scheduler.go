package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
)

// AllSyncer is what a Scheduler drives. *Orchestrator implements it.
type AllSyncer interface {
	SyncAll(ctx context.Context) []Outcome
}

// Scheduler is a worker that calls SyncAll on an interval and whenever it is
// triggered. Cycles run one at a time; triggers that arrive while a cycle is
// running collapse into a single follow-up cycle.
type Scheduler struct {
	*worker.BaseWorker
	target     AllSyncer
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
	now        func() time.Time
	trigger    chan struct{}
	cancel     context.CancelFunc

	mu        sync.Mutex
	cycles    int64
	lastCycle *time.Time
}

// NewScheduler creates a scheduler. A zero interval disables ticking; the
// scheduler then runs only on triggers.
func NewScheduler(target AllSyncer, interval time.Duration, opts ...Option) *Scheduler {
	o := applyOptions(opts)
	return &Scheduler{
		BaseWorker: worker.NewBaseWorker("sync-scheduler"),
		target:     target,
		interval:   interval,
		runOnStart: o.runOnStart,
		logger:     o.logger,
		now:        o.now,
		trigger:    make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.SetStatus(worker.StatusRunning)
	return s.StartFunc(runCtx, s.run)
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.StopRequested = true
		s.cancel()
	}

	return s.BaseWorker.Stop(ctx)
}

func (s *Scheduler) State() worker.State {
	return s.ExportState(func(st *worker.State) {
		s.mu.Lock()
		defer s.mu.Unlock()
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"interval":          s.interval.String(),
			"cycles":            fmt.Sprint(s.cycles),
		}
		if s.lastCycle != nil {
			st.Metadata["last_cycle"] = s.lastCycle.Format(time.RFC3339)
		}
	})
}

// Trigger asks for a cycle as soon as possible. It never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Listen triggers a cycle for every event src emits until ctx ends or the
// source closes.
func (s *Scheduler) Listen(ctx context.Context, src lifecycle.Source) error {
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event source: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		events := src.Events()
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				s.logger.Debug("local change, scheduling sync", "event", e.String())
				s.Trigger()
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("event listener failed", "error", err)
	}))
	return nil
}

// Cycles returns how many cycles have completed.
func (s *Scheduler) Cycles() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

func (s *Scheduler) run(ctx context.Context) error {
	if s.runOnStart {
		s.cycle(ctx)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			s.cycle(ctx)
		case <-s.trigger:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	outcomes := s.target.SyncAll(ctx)

	failed := 0
	for _, out := range outcomes {
		if !out.OK() {
			failed++
		}
	}

	now := s.now()
	s.mu.Lock()
	s.cycles++
	s.lastCycle = &now
	s.mu.Unlock()

	s.logger.Debug("sync cycle finished", "kinds", len(outcomes), "not_ok", failed)
}
