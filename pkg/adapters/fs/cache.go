package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/murmur/pkg/core"
)

// indexVersion is bumped whenever the on-disk layout changes. Indexes written
// by another version are discarded on load.
const indexVersion = 2

// stamp identifies one revision of a file on disk.
type stamp struct {
	ModTime time.Time `json:"mtime"`
	Size    int64     `json:"size"`
}

func stampOf(info iofs.FileInfo) stamp {
	return stamp{ModTime: info.ModTime(), Size: info.Size()}
}

func (s stamp) matches(other stamp) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}

// indexEntry is the parsed form of one record file.
type indexEntry struct {
	Stamp    stamp          `json:"stamp"`
	ID       string         `json:"id"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (e *indexEntry) document() core.Document {
	return core.Document{ID: e.ID, Content: e.Content, Metadata: e.Metadata}
}

// indexFile is the persisted form of a cache.
type indexFile struct {
	Version int                    `json:"version"`
	Kind    core.Kind              `json:"kind"`
	Entries map[string]*indexEntry `json:"entries"`
}

// cache remembers parsed documents per file name so a read only parses the
// files whose stamp moved since the last pass.
type cache struct {
	path string
	kind core.Kind

	mu      sync.RWMutex
	entries map[string]*indexEntry
	dirty   bool
}

// newCache returns the cache of kind, stored at <root>/<systemDir>/<kind>.index.json.
func newCache(root, systemDir string, kind core.Kind) *cache {
	return &cache{
		path:    filepath.Join(root, systemDir, string(kind)+".index.json"),
		kind:    kind,
		entries: map[string]*indexEntry{},
	}
}

// Load replaces the in-memory entries with the persisted ones. An index that
// is missing, unreadable as JSON, or written for another version or kind
// starts the cache over without an error.
func (c *cache) Load() error {
	data, err := os.ReadFile(c.path)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case errors.Is(err, iofs.ErrNotExist):
		c.reset(false)
		return nil
	case err != nil:
		c.reset(false)
		return fmt.Errorf("failed to read cache %s: %w", c.path, err)
	}

	var file indexFile
	if json.Unmarshal(data, &file) != nil || file.Version != indexVersion || file.Kind != c.kind {
		c.reset(true)
		return nil
	}

	c.entries = file.Entries
	if c.entries == nil {
		c.entries = map[string]*indexEntry{}
	}
	c.dirty = false
	return nil
}

func (c *cache) reset(dirty bool) {
	c.entries = map[string]*indexEntry{}
	c.dirty = dirty
}

// Save writes the index when something changed since the last Load or Save.
func (c *cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.Marshal(indexFile{Version: indexVersion, Kind: c.kind, Entries: c.entries})
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.path, data, 0644); err != nil {
		return err
	}

	c.dirty = false
	return nil
}

// Lookup returns the cached document of name when info still carries the
// stamp it was parsed at.
func (c *cache) Lookup(name string, info iofs.FileInfo) (core.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[name]
	if !ok || !entry.Stamp.matches(stampOf(info)) {
		return core.Document{}, false
	}
	return entry.document(), true
}

// Store records doc as the parsed form of name at the revision described by info.
func (c *cache) Store(name string, info iofs.FileInfo, doc core.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = &indexEntry{
		Stamp:    stampOf(info),
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	}
	c.dirty = true
}

// Prune forgets every file not present in keep.
func (c *cache) Prune(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.entries {
		if keep[name] {
			continue
		}
		delete(c.entries, name)
		c.dirty = true
	}
}

// Len reports how many files are cached.
func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
