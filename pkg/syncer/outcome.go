package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/murmur/pkg/core"
)

// ErrPanic marks an outcome produced by a recovered panic.
var ErrPanic = errors.New("sync panicked")

// ErrDuplicateKind is returned when two syncers register the same kind.
var ErrDuplicateKind = errors.New("kind already registered")

// Phase is the step of a sync run an error happened in.
type Phase string

const (
	PhaseFetch     Phase = "fetch"
	PhasePush      Phase = "push"
	PhaseWriteback Phase = "writeback"
)

// Status summarizes how a run for one kind ended.
type Status string

const (
	// StatusSucceeded means both stores hold the merged set.
	StatusSucceeded Status = "succeeded"
	// StatusDegraded means the local writeback succeeded but some pushes
	// failed. They are retried on the next run.
	StatusDegraded Status = "degraded"
	// StatusFailed means the run stopped before the writeback completed.
	// Neither store was left with a partial merge.
	StatusFailed Status = "failed"
)

// Error is a contained failure of one kind.
type Error struct {
	Kind  core.Kind
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("sync %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("sync %s: %s: %v", e.Kind, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Outcome is the observable result of one sync run for one kind.
type Outcome struct {
	Kind       core.Kind     `json:"kind"`
	RunID      string        `json:"run_id"`
	Owner      string        `json:"owner"`
	Status     Status        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Local      int           `json:"local"`
	Remote     int           `json:"remote"`
	Merged     int           `json:"merged"`
	Pushed     int           `json:"pushed"`
	PushFailed int           `json:"push_failed"`
	Pulled     int           `json:"pulled"`
	Skipped    int           `json:"skipped"`
	Err        error         `json:"-"`
}

// Error returns the failure message, or "" for a clean run.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// OK reports whether the run converged both stores.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}

// Reporter receives the outcome of every run.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, outcome Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, outcome Outcome)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, outcome Outcome) {
	f(ctx, outcome)
}

// Reporters fans an outcome out to several reporters.
type Reporters []Reporter

// Report implements Reporter.
func (rs Reporters) Report(ctx context.Context, outcome Outcome) {
	for _, r := range rs {
		if r != nil {
			r.Report(ctx, outcome)
		}
	}
}

type runIDKey struct{}

// WithRunID tags ctx with the id of the run it belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
