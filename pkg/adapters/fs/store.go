package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"

	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/git"
	"github.com/aretw0/murmur/pkg/typed"
)

// DefaultSystemDir holds caches and locks under the data root.
const DefaultSystemDir = ".murmur"

// recordGlob matches every record file the default serializers understand.
const recordGlob = "*.{json,yaml,yml,md}"

// Config holds the configuration for a filesystem store.
type Config struct {
	Path        string // data root; records live in <Path>/<Kind>/
	Kind        core.Kind
	Format      string // extension used for new files, e.g. ".json"
	ContentKey  string // record field kept as the Markdown body, e.g. "body"
	SystemDir   string // e.g. ".murmur"
	Versioned   bool   // commit every write with git
	AutoInit    bool   // create the git repository when missing
	Logger      *slog.Logger
	Serializers map[string]Serializer // overrides or additions keyed by extension
}

// Store is a core.LocalStore that keeps one file per record under
// <root>/<kind>/<id><ext>.
type Store[T core.Entity] struct {
	Path string

	config      Config
	codec       typed.Codec[T] // flat formats
	bodyCodec   typed.Codec[T] // formats with a body
	serializers map[string]Serializer
	cache       *cache
	git         *git.Client
	lock        *flock.Flock
	logger      *slog.Logger

	mu           sync.RWMutex
	lastRead     *time.Time
	lastWrite    *time.Time
	filesWritten int
	filesSkipped int
	unparsable   int
}

// NewStore creates a filesystem-backed store for one kind.
func NewStore[T core.Entity](config Config) *Store[T] {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Format == "" {
		config.Format = ".json"
	}
	if !strings.HasPrefix(config.Format, ".") {
		config.Format = "." + config.Format
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	serializers := DefaultSerializers()
	for ext, s := range config.Serializers {
		serializers[ext] = s
	}

	return &Store[T]{
		Path:        filepath.Join(config.Path, string(config.Kind)),
		config:      config,
		codec:       typed.NewCodec[T](""),
		bodyCodec:   typed.NewCodec[T](config.ContentKey),
		serializers: serializers,
		cache:       newCache(config.Path, config.SystemDir, config.Kind),
		git:         git.NewClient(config.Path, filepath.Join(config.SystemDir, "git.lock"), config.Logger),
		lock:        flock.New(filepath.Join(config.Path, config.SystemDir, string(config.Kind)+".lock")),
		logger:      config.Logger.With("kind", string(config.Kind)),
	}
}

// Kind returns the kind stored here.
func (s *Store[T]) Kind() core.Kind {
	return s.config.Kind
}

// Initialize creates the directories and, when versioned, the git repository.
func (s *Store[T]) Initialize(ctx context.Context) error {
	if _, ok := s.serializers[s.config.Format]; !ok {
		return fmt.Errorf("unsupported format %q", s.config.Format)
	}

	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", s.config.Kind, err)
	}
	if err := os.MkdirAll(filepath.Join(s.config.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	if !s.config.Versioned {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	wasNewRepo := false
	if !s.git.IsRepo(ctx) {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.config.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.Chore(fmt.Sprintf("configure %s ignore", s.config.SystemDir))
		if err := s.git.Commit(ctx, msg.String()); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	return nil
}

func (s *Store[T]) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.config.Path, ".gitignore")
	ignoreEntry := s.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// ReadAll implements core.LocalStore.
//
// Files whose mtime matches the cache are not parsed again. Files that
// cannot be parsed or decoded are logged and skipped. A missing directory
// reads as empty.
func (s *Store[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := s.listFiles()
	if err != nil {
		return nil, core.Unavailable("local", "read", s.config.Kind, err)
	}

	if err := s.cache.Load(); err != nil {
		s.logger.Warn("ignoring unreadable cache", "error", err)
	}

	records := make([]T, 0, len(names))
	byID := make(map[string]int, len(names))
	seen := make(map[string]bool, len(names))
	unparsable := 0

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.readDocument(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			unparsable++
			s.logger.Warn("skipping unreadable record file", "file", name, "error", err)
			continue
		}
		seen[name] = true

		record, err := s.codecFor(filepath.Ext(name)).Decode(doc)
		if err != nil {
			unparsable++
			s.logger.Warn("skipping undecodable record file", "file", name, "error", err)
			continue
		}

		id := record.GetMeta().ID
		i, dup := byID[id]
		if !dup {
			byID[id] = len(records)
			records = append(records, record)
			continue
		}
		s.logger.Debug("record stored in several formats", "id", id, "file", name)
		if s.prefer(record, filepath.Ext(name), records[i]) {
			records[i] = record
		}
	}

	s.cache.Prune(seen)
	if err := s.cache.Save(); err != nil {
		s.logger.Warn("failed to save cache", "error", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRead = &now
	s.unparsable = unparsable
	s.mu.Unlock()

	return records, nil
}

// Get returns the record with id.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := core.ValidateID(id); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var (
		best  T
		found bool
	)
	for _, ext := range s.extensions() {
		doc, err := s.parseFile(id + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return zero, core.Unavailable("local", "read "+id, s.config.Kind, err)
		}
		record, err := s.codecFor(ext).Decode(doc)
		if err != nil {
			return zero, err
		}
		if !found || s.prefer(record, ext, best) {
			best, found = record, true
		}
	}
	if !found {
		return zero, fmt.Errorf("%s/%s: %w", s.config.Kind, id, core.ErrNotFound)
	}
	return best, nil
}

// codecFor returns the codec matching files with extension ext. Only
// Markdown keeps a field outside its metadata.
func (s *Store[T]) codecFor(ext string) typed.Codec[T] {
	if ext == ".md" {
		return s.bodyCodec
	}
	return s.codec
}

// prefer reports whether candidate, read from a file with extension ext,
// should replace current when both carry the same id. The newer effective
// time wins; on a tie the configured format wins.
func (s *Store[T]) prefer(candidate T, ext string, current T) bool {
	a, b := core.EffectiveTime(candidate), core.EffectiveTime(current)
	if !a.Equal(b) {
		return a.After(b)
	}
	return ext == s.config.Format
}

// WriteOne implements core.LocalStore.
func (s *Store[T]) WriteOne(ctx context.Context, record T) error {
	b := s.newBatch()
	if err := b.Stage(record); err != nil {
		return err
	}
	subject := "update " + record.GetMeta().ID
	return s.apply(ctx, b, subject)
}

// WriteAll implements core.LocalStore. Every record is upserted; files whose
// content would not change are left untouched. Nothing is deleted.
func (s *Store[T]) WriteAll(ctx context.Context, records []T) error {
	b := s.newBatch()
	for _, r := range records {
		if err := b.Stage(r); err != nil {
			return err
		}
	}
	subject := fmt.Sprintf("adopt %d records", len(records))
	return s.apply(ctx, b, subject)
}

func (s *Store[T]) apply(ctx context.Context, b *batch[T], subject string) error {
	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0755); err != nil {
		return core.Unavailable("local", "lock", s.config.Kind, err)
	}
	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return core.Unavailable("local", "lock", s.config.Kind, err)
	}
	if !locked {
		return core.Unavailable("local", "lock", s.config.Kind, errors.New("lock not acquired"))
	}
	defer func() { _ = s.lock.Unlock() }()

	written, err := b.Commit(ctx, subject)
	if err != nil {
		return core.Unavailable("local", "write", s.config.Kind, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastWrite = &now
	s.filesWritten += written
	s.filesSkipped += b.Len() - written
	s.mu.Unlock()

	return nil
}

// listFiles returns the record file names of this kind, sorted.
func (s *Store[T]) listFiles() ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(s.Path), recordGlob, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	out := names[:0]
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := s.serializers[filepath.Ext(name)]; !ok {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

// readDocument returns the parsed document for name, from cache when fresh.
func (s *Store[T]) readDocument(name string) (core.Document, error) {
	info, err := os.Stat(filepath.Join(s.Path, name))
	if err != nil {
		return core.Document{}, err
	}
	if doc, hit := s.cache.Lookup(name, info); hit {
		return doc, nil
	}

	doc, err := s.parseFile(name)
	if err != nil {
		return core.Document{}, err
	}
	s.cache.Store(name, info, doc)
	return doc, nil
}

// parseFile reads and parses one file. The file name decides the id.
func (s *Store[T]) parseFile(name string) (core.Document, error) {
	ext := filepath.Ext(name)
	serializer, ok := s.serializers[ext]
	if !ok {
		return core.Document{}, fmt.Errorf("no serializer for %s", ext)
	}

	f, err := os.Open(filepath.Join(s.Path, name))
	if err != nil {
		return core.Document{}, err
	}
	defer f.Close()

	doc, err := serializer.Parse(f)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	doc.ID = strings.TrimSuffix(name, ext)
	delete(doc.Metadata, "id")
	return *doc, nil
}

// extensions lists the configured format first, then the others.
func (s *Store[T]) extensions() []string {
	exts := []string{s.config.Format}
	for ext := range s.serializers {
		if ext != s.config.Format {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts[1:])
	return exts
}

var _ core.LocalStore[core.Note] = (*Store[core.Note])(nil)
