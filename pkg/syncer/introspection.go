package syncer

import (
	"time"

	"github.com/aretw0/introspection"
)

// KindState is the last known result for one kind.
type KindState struct {
	Status     Status    `json:"status"`
	RunID      string    `json:"run_id"`
	At         time.Time `json:"at"`
	Pushed     int       `json:"pushed"`
	PushFailed int       `json:"push_failed"`
	Pulled     int       `json:"pulled"`
	Merged     int       `json:"merged"`
	Error      string    `json:"error,omitempty"`
}

// OrchestratorState exposes internal state for observability.
type OrchestratorState struct {
	Kinds    []string             `json:"kinds"`
	Runs     int64                `json:"runs"`
	Idle     int64                `json:"idle_runs"`
	InFlight int                  `json:"in_flight"`
	LastRun  *time.Time           `json:"last_run,omitempty"`
	Last     map[string]KindState `json:"last,omitempty"`
}

// State implements introspection.Introspectable.
func (o *Orchestrator) State() any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	kinds := make([]string, len(o.syncers))
	for i, s := range o.syncers {
		kinds[i] = string(s.Kind())
	}

	last := make(map[string]KindState, len(o.last))
	for kind, out := range o.last {
		last[string(kind)] = KindState{
			Status:     out.Status,
			RunID:      out.RunID,
			At:         out.StartedAt,
			Pushed:     out.Pushed,
			PushFailed: out.PushFailed,
			Pulled:     out.Pulled,
			Merged:     out.Merged,
			Error:      out.Error(),
		}
	}

	return OrchestratorState{
		Kinds:    kinds,
		Runs:     o.runs,
		Idle:     o.idle,
		InFlight: o.inFlight,
		LastRun:  o.lastRun,
		Last:     last,
	}
}

// ComponentType implements introspection.Component.
func (o *Orchestrator) ComponentType() string {
	return "sync-orchestrator"
}

var _ introspection.Introspectable = (*Orchestrator)(nil)
var _ introspection.Component = (*Orchestrator)(nil)
