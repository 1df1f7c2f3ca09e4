package syncer

import (
	"log/slog"
	"time"
)

type options struct {
	logger     *slog.Logger
	reporter   Reporter
	now        func() time.Time
	runOnStart bool
}

// Option configures a Manager, Orchestrator or Scheduler.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReporter sets where the orchestrator sends outcomes.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRunOnStart makes a Scheduler run one cycle as soon as it starts.
func WithRunOnStart(enabled bool) Option {
	return func(o *options) {
		o.runOnStart = enabled
	}
}
