// Package platform wires the stores, managers and orchestrator of a murmur
// data root into an Engine.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/murmur/internal/telemetry"
	"github.com/aretw0/murmur/pkg/adapters/fs"
	"github.com/aretw0/murmur/pkg/adapters/sqlite"
	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/syncer"
)

// Engine is a fully wired data root: one local store per kind on disk, the
// shared remote database and the orchestrator that syncs them.
type Engine struct {
	Root         string
	Notes        *fs.Store[core.Note]
	Recordings   *fs.Store[core.Recording]
	Folders      *fs.Store[core.Folder]
	Remote       *sqlite.DB
	Orchestrator *syncer.Orchestrator

	versioned bool
	logger    *slog.Logger
	opts      *options
}

// Open resolves the data root at path, initializes its stores and opens the
// remote database.
//
//	engine, err := platform.Open(ctx, "./data", platform.WithOwner("alice"))
func Open(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	root := ResolveDataPath(path, useTemp)
	if IsDevRun() {
		if o.devSafety {
			logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", root)
		} else {
			logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", root)
		}
	}
	if useTemp && root != path {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", root)
	}

	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	versioned := false
	if o.versioning != nil {
		versioned = *o.versioning
	} else if hasFile(root, ".git") {
		versioned = true
		logger.Debug("auto-detected versioning", "reason", ".git present")
	}

	format := o.format
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}

	base := fs.Config{
		Path:      root,
		Format:    format,
		SystemDir: systemDir,
		Versioned: versioned,
		AutoInit:  o.autoInit,
		Logger:    logger,
	}

	e := &Engine{
		Root:       root,
		Notes:      fs.NewStore[core.Note](kindConfig(base, core.KindNotes)),
		Recordings: fs.NewStore[core.Recording](kindConfig(base, core.KindRecordings)),
		Folders:    fs.NewStore[core.Folder](kindConfig(base, core.KindFolders)),
		versioned:  versioned,
		logger:     logger,
		opts:       o,
	}

	for _, initialize := range []func(context.Context) error{
		e.Notes.Initialize,
		e.Recordings.Initialize,
		e.Folders.Initialize,
	} {
		if err := initialize(ctx); err != nil {
			return nil, err
		}
	}

	remotePath := o.remotePath
	if remotePath == "" {
		remotePath = filepath.Join(root, systemDir, sqlite.DefaultFileName)
	}
	db, err := sqlite.Open(ctx, remotePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote: %w", err)
	}
	e.Remote = db

	metrics, err := telemetry.NewSyncMetrics(o.meterProvider)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	e.Orchestrator = syncer.NewOrchestrator(o.identity,
		syncer.WithLogger(logger),
		syncer.WithReporter(syncer.Reporters{o.reporter, metrics}),
	)

	err = e.Orchestrator.Register(
		syncer.NewManager[core.Note](core.KindNotes, e.Notes,
			sqlite.NewRemoteStore[core.Note](db, core.KindNotes, logger), syncer.WithLogger(logger)),
		syncer.NewManager[core.Recording](core.KindRecordings, e.Recordings,
			sqlite.NewRemoteStore[core.Recording](db, core.KindRecordings, logger), syncer.WithLogger(logger)),
		syncer.NewManager[core.Folder](core.KindFolders, e.Folders,
			sqlite.NewRemoteStore[core.Folder](db, core.KindFolders, logger), syncer.WithLogger(logger)),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return e, nil
}

// kindConfig derives the store config of kind. Long text fields become the
// body of Markdown files.
func kindConfig(base fs.Config, kind core.Kind) fs.Config {
	c := base
	c.Kind = kind
	switch kind {
	case core.KindNotes:
		c.ContentKey = "body"
	case core.KindRecordings:
		c.ContentKey = "transcript"
	}
	return c
}

// Versioned reports whether writebacks are committed with git.
func (e *Engine) Versioned() bool {
	return e.versioned
}

// SyncAll runs one cycle for every kind.
func (e *Engine) SyncAll(ctx context.Context) []syncer.Outcome {
	return e.Orchestrator.SyncAll(ctx)
}

// Scheduler returns a worker that syncs every interval and on Trigger.
func (e *Engine) Scheduler(interval time.Duration, opts ...syncer.Option) *syncer.Scheduler {
	return syncer.NewScheduler(e.Orchestrator, interval, append([]syncer.Option{syncer.WithLogger(e.logger)}, opts...)...)
}

// Watcher returns a worker reporting record file changes under the root.
func (e *Engine) Watcher(events chan<- core.Event) *fs.Watcher {
	return fs.NewWatcher(fs.WatcherConfig{
		Path:     e.Root,
		Debounce: e.opts.debounce,
		Logger:   e.logger,
		OnError:  e.opts.onWatchError,
	}, events)
}

// State returns the introspection state of the orchestrator and stores.
func (e *Engine) State() map[string]any {
	return map[string]any{
		"root":         e.Root,
		"versioned":    e.versioned,
		"orchestrator": e.Orchestrator.State(),
		"notes":        e.Notes.State(),
		"recordings":   e.Recordings.State(),
		"folders":      e.Folders.State(),
	}
}

// Close releases the remote database.
func (e *Engine) Close() error {
	if e.Remote == nil {
		return nil
	}
	return e.Remote.Close()
}
