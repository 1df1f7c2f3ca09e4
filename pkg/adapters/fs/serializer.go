package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/murmur/pkg/core"
)

// contentKey is the field that holds Document.Content in flat formats.
const contentKey = "content"

var errUnterminatedFrontmatter = errors.New("frontmatter has no closing delimiter")

// Serializer converts between file bytes and documents of one format.
type Serializer interface {
	// Parse returns the document in r. The ID is left for the caller.
	Parse(r io.Reader) (*core.Document, error)
	// Serialize must be deterministic: the same document yields the same bytes.
	Serialize(doc core.Document) ([]byte, error)
}

// DefaultSerializers maps every supported extension to its serializer.
func DefaultSerializers() map[string]Serializer {
	yml := NewYAMLSerializer()
	return map[string]Serializer{
		".json": NewJSONSerializer(),
		".yaml": yml,
		".yml":  yml,
		".md":   NewMarkdownSerializer(),
	}
}

// FlatSerializer stores a document as one object whose "content" field, when
// present, carries Document.Content.
type FlatSerializer struct {
	format    string
	unmarshal func(data []byte, v *map[string]any) error
	marshal   func(v map[string]any) ([]byte, error)
}

// NewJSONSerializer returns the JSON format. Numbers parse as json.Number so
// large integers survive a round trip.
func NewJSONSerializer() *FlatSerializer {
	return &FlatSerializer{
		format: "json",
		unmarshal: func(data []byte, v *map[string]any) error {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			return dec.Decode(v)
		},
		marshal: func(v map[string]any) ([]byte, error) {
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(data, '\n'), nil
		},
	}
}

// NewYAMLSerializer returns the YAML format.
func NewYAMLSerializer() *FlatSerializer {
	return &FlatSerializer{
		format: "yaml",
		unmarshal: func(data []byte, v *map[string]any) error {
			return yaml.Unmarshal(data, v)
		},
		marshal: encodeYAML[map[string]any],
	}
}

func (s *FlatSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := s.unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", s.format, err)
	}

	doc := &core.Document{Metadata: core.Metadata(fields)}
	if doc.Metadata == nil {
		doc.Metadata = core.Metadata{}
	}
	if body, ok := doc.Metadata[contentKey].(string); ok {
		doc.Content = body
		delete(doc.Metadata, contentKey)
	}
	return doc, nil
}

func (s *FlatSerializer) Serialize(doc core.Document) ([]byte, error) {
	fields := maps.Clone(map[string]any(doc.Metadata))
	if fields == nil {
		fields = map[string]any{}
	}
	if doc.Content != "" {
		fields[contentKey] = doc.Content
	}
	return s.marshal(fields)
}

// MarkdownSerializer writes metadata as YAML frontmatter between "---" fences
// and Content as the body that follows.
type MarkdownSerializer struct{}

// NewMarkdownSerializer returns the Markdown format.
func NewMarkdownSerializer() *MarkdownSerializer {
	return &MarkdownSerializer{}
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return &core.Document{Metadata: core.Metadata{}, Content: string(data)}, nil
	}

	front, body, found := bytes.Cut(data[len("---"):], []byte("\n---"))
	if !found {
		return nil, errUnterminatedFrontmatter
	}

	meta := core.Metadata{}
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if meta == nil {
		meta = core.Metadata{}
	}

	content := strings.TrimPrefix(string(body), "\r")
	return &core.Document{Metadata: meta, Content: strings.TrimPrefix(content, "\n")}, nil
}

func (s *MarkdownSerializer) Serialize(doc core.Document) ([]byte, error) {
	if len(doc.Metadata) == 0 {
		return []byte(doc.Content), nil
	}

	front, err := encodeYAML(doc.Metadata)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(front)+len(doc.Content)+8)
	out = append(out, "---\n"...)
	out = append(out, front...)
	out = append(out, "---\n"...)
	return append(out, doc.Content...), nil
}

func encodeYAML[M ~map[string]any](v M) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
