// Package lifecycle bridges murmur change events to the lifecycle runtime.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/murmur/pkg/core"
)

// Source forwards local change events into a lifecycle control loop.
type Source struct {
	in     <-chan core.Event
	out    chan lifecycle.Event
	accept func(core.Event) bool
}

var _ lifecycle.Source = (*Source)(nil)

// NewSource wraps events. With kinds given, only events of those kinds pass.
func NewSource(events <-chan core.Event, kinds ...core.Kind) *Source {
	accept := func(core.Event) bool { return true }
	if len(kinds) > 0 {
		accept = func(e core.Event) bool { return slices.Contains(kinds, e.Kind) }
	}
	return &Source{in: events, out: make(chan lifecycle.Event), accept: accept}
}

// Events is closed once the input closes or the start context ends.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case next, ok := <-s.in:
				if !ok {
					return nil
				}
				e = next
			}
			if !s.accept(e) {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
