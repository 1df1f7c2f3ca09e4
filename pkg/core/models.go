package core

// Note is a text note.
type Note struct {
	Meta
	Title    string   `json:"title"`
	Body     string   `json:"body,omitempty"`
	FolderID string   `json:"folder_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`
}

// Recording is the metadata of an audio recording. The audio payload itself
// is never synced; AudioURI only points at it.
type Recording struct {
	Meta
	Title      string   `json:"title"`
	DurationMS int64    `json:"duration_ms"`
	AudioURI   string   `json:"audio_uri,omitempty"`
	Transcript string   `json:"transcript,omitempty"`
	FolderID   string   `json:"folder_id,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Folder groups notes and recordings.
type Folder struct {
	Meta
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Color    string `json:"color,omitempty"`
}
