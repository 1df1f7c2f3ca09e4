package core

import (
	"fmt"
	"time"
)

// Metadata holds the free-form fields of a Document.
type Metadata map[string]any

// Document is the storage-neutral form of a record. File and row adapters
// persist documents; the typed codec maps them to concrete record types.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// EventType classifies a change seen in a local store.
type EventType string

const (
	EventCreate EventType = "created"
	EventModify EventType = "modified"
	EventDelete EventType = "deleted"
)

// Event reports that record Kind/ID changed on disk at At.
type Event struct {
	Type EventType
	Kind Kind
	ID   string
	At   time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s/%s %s", e.Kind, e.ID, e.Type)
}
