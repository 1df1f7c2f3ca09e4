package fs

import (
	"slices"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/murmur/pkg/core"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path         string     `json:"path"`
	Kind         string     `json:"kind"`
	Format       string     `json:"format"`
	SystemDir    string     `json:"system_dir"`
	Versioned    bool       `json:"versioned"`
	CacheSize    int        `json:"cache_size"`
	Serializers  []string   `json:"serializers"`
	FilesWritten int        `json:"files_written"`
	FilesSkipped int        `json:"files_unchanged"`
	Unparsable   int        `json:"unparsable"`
	LastRead     *time.Time `json:"last_read,omitempty"`
	LastWrite    *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store[T]) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	serializers := make([]string, 0, len(s.serializers))
	for ext := range s.serializers {
		serializers = append(serializers, ext)
	}
	slices.Sort(serializers)

	return StoreState{
		Path:         s.Path,
		Kind:         string(s.config.Kind),
		Format:       s.config.Format,
		SystemDir:    s.config.SystemDir,
		Versioned:    s.config.Versioned,
		CacheSize:    s.cache.Len(),
		Serializers:  serializers,
		FilesWritten: s.filesWritten,
		FilesSkipped: s.filesSkipped,
		Unparsable:   s.unparsable,
		LastRead:     s.lastRead,
		LastWrite:    s.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (s *Store[T]) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store[core.Note])(nil)
var _ introspection.Component = (*Store[core.Note])(nil)
