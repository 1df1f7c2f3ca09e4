package platform

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/syncer"
)

// options holds the internal configuration for an Engine.
type options struct {
	logger        *slog.Logger
	identity      core.Identity
	remotePath    string
	format        string
	systemDir     string
	versioning    *bool
	autoInit      bool
	forceTemp     bool
	devSafety     bool
	meterProvider metric.MeterProvider
	reporter      syncer.Reporter
	debounce      time.Duration
	onWatchError  func(error)
}

// Option defines a functional option for configuring an Engine.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		format:    ".json",
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOwner signs the engine in as owner. An empty owner means nobody is
// signed in and sync cycles are skipped.
func WithOwner(owner string) Option {
	return func(o *options) {
		o.identity = core.StaticIdentity(owner)
	}
}

// WithIdentity sets the identity provider queried at the start of every
// cycle. It takes precedence over WithOwner when both are given last.
func WithIdentity(identity core.Identity) Option {
	return func(o *options) {
		o.identity = identity
	}
}

// WithRemotePath sets the path of the shared SQLite database.
// Defaults to <root>/<system dir>/remote.db.
func WithRemotePath(path string) Option {
	return func(o *options) {
		o.remotePath = path
	}
}

// WithFormat sets the extension used for new record files (.json, .yaml, .md).
func WithFormat(ext string) Option {
	return func(o *options) {
		o.format = ext
	}
}

// WithSystemDir sets the hidden directory name (e.g. ".murmur").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithVersioning enables or disables git commits of every writeback.
// When not set, versioning follows whether the root already holds a .git
// directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithAutoInit creates the git repository when versioning is on and the
// root is not a repository yet.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithForceTemp re-roots the data path under the OS temp dir even outside
// go run and go test.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety toggles the temp-dir sandbox applied under `go run` and
// `go test`. It is on by default; turning it off lets a dev build touch the
// real data path.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithMeterProvider records sync outcomes as OpenTelemetry metrics.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

// WithReporter receives every sync outcome.
func WithReporter(r syncer.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithWatchDebounce sets the quiet period of the file watcher.
func WithWatchDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler registers a callback for errors raised inside the
// watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onWatchError = fn
	}
}
