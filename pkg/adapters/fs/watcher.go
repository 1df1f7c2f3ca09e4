package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/murmur/pkg/core"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Path     string      // data root
	Kinds    []core.Kind // kind directories to watch; empty means all kinds
	Debounce time.Duration
	Logger   *slog.Logger
	OnError  func(error)
	Formats  []string // record extensions; empty means the default serializers
}

// Watcher is a worker that reports record file changes as core.Event values.
type Watcher struct {
	*worker.BaseWorker
	config    WatcherConfig
	kinds     map[string]core.Kind
	formats   map[string]bool
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc

	mu     sync.RWMutex
	active bool
}

// NewWatcher creates a watcher that sends to events. The channel is never
// closed by the watcher.
func NewWatcher(config WatcherConfig, events chan<- core.Event) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if len(config.Kinds) == 0 {
		config.Kinds = core.Kinds()
	}

	kinds := make(map[string]core.Kind, len(config.Kinds))
	for _, k := range config.Kinds {
		kinds[string(k)] = k
	}

	formats := make(map[string]bool)
	if len(config.Formats) == 0 {
		for ext := range DefaultSerializers() {
			formats[ext] = true
		}
	}
	for _, ext := range config.Formats {
		formats[ext] = true
	}

	return &Watcher{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		config:     config,
		kinds:      kinds,
		formats:    formats,
		events:     events,
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	for name := range w.kinds {
		dir := filepath.Join(w.config.Path, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.config.Debounce)
	w.setActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *Watcher) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.config.Path,
		}
	})
}

// Active reports whether the watcher loop is running.
func (w *Watcher) Active() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

func (w *Watcher) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = active
}

// toEvent maps a filesystem event to a record event. ok is false for files
// that are not records.
func (w *Watcher) toEvent(event fsnotify.Event) (core.Event, bool) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return core.Event{}, false
	}

	ext := filepath.Ext(base)
	if !w.formats[ext] {
		return core.Event{}, false
	}

	kind, ok := w.kinds[filepath.Base(filepath.Dir(event.Name))]
	if !ok {
		return core.Event{}, false
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	default:
		return core.Event{}, false
	}

	return core.Event{
		Type: eType,
		Kind: kind,
		ID:   strings.TrimSuffix(base, ext),
		At:   time.Now(),
	}, true
}

// send enqueues an event via the debouncer.
func (w *Watcher) send(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) handleError(err error) {
	w.config.Logger.Error("fsnotify error", "error", err)
	if w.config.OnError != nil {
		w.config.OnError(err)
	}
}

func (w *Watcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.setActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// Wait for in-flight deliveries before the caller may close the channel.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

			if e, ok := w.toEvent(event); ok {
				w.send(ctx, e)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleError(wErr)
		}
	}
}
