package murmur

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/aretw0/murmur/internal/platform"
	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/syncer"
)

// --- Types ---

// Engine is a wired data root.
type Engine = platform.Engine

// Note is a text note.
type Note = core.Note

// Recording is the metadata of an audio recording.
type Recording = core.Recording

// Folder groups notes and recordings.
type Folder = core.Folder

// Meta carries the id and timestamps of a record.
type Meta = core.Meta

// Outcome is the result of one sync run for one kind.
type Outcome = syncer.Outcome

// Collection is the application-facing view of a local store.
type Collection[T core.Entity, P platform.Mutable[T]] = platform.Collection[T, P]

// NewMeta returns metadata for a record created at now.
func NewMeta(id string, now time.Time) Meta {
	return core.NewMeta(id, now)
}

// NewCollection wraps a local store. A nil now uses time.Now.
func NewCollection[T core.Entity, P platform.Mutable[T]](store core.LocalStore[T], now func() time.Time) *Collection[T, P] {
	return platform.NewCollection[T, P](store, now)
}

// --- Configuration ---

// Option defines a functional option for configuring an Engine.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithOwner signs the engine in as owner.
func WithOwner(owner string) Option {
	return platform.WithOwner(owner)
}

// WithIdentity sets the identity provider queried at the start of every cycle.
func WithIdentity(identity core.Identity) Option {
	return platform.WithIdentity(identity)
}

// WithRemotePath sets the path of the shared SQLite database.
func WithRemotePath(path string) Option {
	return platform.WithRemotePath(path)
}

// WithFormat sets the extension used for new record files.
func WithFormat(ext string) Option {
	return platform.WithFormat(ext)
}

// WithSystemDir sets the hidden directory name (e.g. ".murmur").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithVersioning enables or disables git commits of every writeback.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAutoInit creates the git repository when versioning needs one.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the dev-run sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithMeterProvider records sync outcomes as OpenTelemetry metrics.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return platform.WithMeterProvider(provider)
}

// WithReporter receives every sync outcome.
func WithReporter(r syncer.Reporter) Option {
	return platform.WithReporter(r)
}

// WithWatchDebounce sets the quiet period of the file watcher.
func WithWatchDebounce(d time.Duration) Option {
	return platform.WithWatchDebounce(d)
}

// --- Factory ---

// Open opens (creating if needed) the data root at path.
func Open(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	return platform.Open(ctx, path, opts...)
}

// --- Safety & Utils ---

// ResolveDataPath determines the directory actually used for path.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards from startDir for a data root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
