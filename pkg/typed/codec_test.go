package typed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/typed"
)

func TestCodec_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	updated := created.Add(15 * time.Minute)

	note := core.Note{
		Meta:     core.Meta{ID: "n1", CreatedAt: created, UpdatedAt: &updated},
		Title:    "Groceries",
		Body:     "Milk\nEggs",
		FolderID: "f1",
		Tags:     []string{"home", "todo"},
	}

	codec := typed.NewCodec[core.Note]("body")

	doc, err := codec.Encode(note)
	require.NoError(t, err)
	assert.Equal(t, "n1", doc.ID)
	assert.Equal(t, "Milk\nEggs", doc.Content)
	assert.NotContains(t, doc.Metadata, "body")
	assert.Equal(t, "Groceries", doc.Metadata["title"])

	back, err := codec.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, note.ID, back.ID)
	assert.True(t, note.CreatedAt.Equal(back.CreatedAt))
	require.NotNil(t, back.UpdatedAt)
	assert.True(t, updated.Equal(*back.UpdatedAt))
	assert.Equal(t, note.Body, back.Body)
	assert.Equal(t, note.Tags, back.Tags)
}

func TestCodec_DecodeUsesDocumentID(t *testing.T) {
	codec := typed.NewCodec[core.Folder]("")

	folder, err := codec.Decode(core.Document{
		ID: "f9",
		Metadata: core.Metadata{
			"name":       "Work",
			"created_at": "2024-01-01T00:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "f9", folder.ID)
	assert.Equal(t, "Work", folder.Name)
}

func TestCodec_DecodeRejectsBadTypes(t *testing.T) {
	codec := typed.NewCodec[core.Recording]("")

	_, err := codec.Decode(core.Document{
		ID:       "r1",
		Metadata: core.Metadata{"duration_ms": "long"},
	})
	assert.Error(t, err)
}
