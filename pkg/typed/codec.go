// Package typed converts concrete records to the storage-neutral
// core.Document and back.
package typed

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/murmur/pkg/core"
)

// Codec converts between a record type T and core.Document.
//
// Records are encoded through their JSON form, so the json struct tags of T
// decide the metadata keys. When ContentKey is set, that field is lifted out
// of the metadata into Document.Content (e.g. a note body kept as the
// Markdown body of a file).
type Codec[T core.Entity] struct {
	ContentKey string
}

// NewCodec creates a codec that lifts contentKey into the document body.
// An empty contentKey keeps every field in the metadata.
func NewCodec[T core.Entity](contentKey string) Codec[T] {
	return Codec[T]{ContentKey: contentKey}
}

// Encode converts a record to a document.
func (c Codec[T]) Encode(record T) (core.Document, error) {
	dataBytes, err := json.Marshal(record)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var metadata core.Metadata
	if err := json.Unmarshal(dataBytes, &metadata); err != nil {
		return core.Document{}, fmt.Errorf("failed to convert typed data to map: %w", err)
	}

	doc := core.Document{
		ID:       record.GetMeta().ID,
		Metadata: metadata,
	}

	if c.ContentKey != "" {
		if content, ok := metadata[c.ContentKey].(string); ok {
			doc.Content = content
		}
		delete(metadata, c.ContentKey)
	}

	return doc, nil
}

// Decode converts a document to a record.
// The document id fills in a missing "id" key.
func (c Codec[T]) Decode(doc core.Document) (T, error) {
	var record T

	metadata := make(core.Metadata, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	if c.ContentKey != "" && doc.Content != "" {
		metadata[c.ContentKey] = doc.Content
	}
	if id, ok := metadata["id"].(string); !ok || id == "" {
		metadata["id"] = doc.ID
	}

	dataBytes, err := json.Marshal(metadata)
	if err != nil {
		return record, fmt.Errorf("metadata marshal failed: %w", err)
	}
	if err := json.Unmarshal(dataBytes, &record); err != nil {
		return record, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return record, nil
}
