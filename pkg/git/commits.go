package git

import (
	"fmt"
	"strings"
)

// Footer is the trailer that marks commits written by murmur.
const Footer = "Synced-by: murmur"

// maxListedFiles caps the file list rendered into a commit body.
const maxListedFiles = 10

// Message is a conventional commit: "<type>(<scope>): <subject>", an optional
// list of touched files, and the murmur trailer.
type Message struct {
	Type    string // "sync" or "chore"; empty means chore
	Scope   string
	Subject string
	Files   []string
}

// Sync returns the message of a write pass over one record kind.
func Sync(kind, subject string, files ...string) Message {
	return Message{Type: "sync", Scope: kind, Subject: subject, Files: files}
}

// Chore returns a housekeeping message without scope.
func Chore(subject string) Message {
	return Message{Type: "chore", Subject: subject}
}

// String renders the full commit message.
func (m Message) String() string {
	kind := m.Type
	if kind == "" {
		kind = "chore"
	}

	header := kind + ": " + m.Subject
	if m.Scope != "" {
		header = fmt.Sprintf("%s(%s): %s", kind, m.Scope, m.Subject)
	}

	parts := []string{header}
	if body := m.body(); body != "" {
		parts = append(parts, body)
	}
	parts = append(parts, Footer)
	return strings.Join(parts, "\n\n")
}

func (m Message) body() string {
	lines := m.Files
	if len(lines) > maxListedFiles {
		lines = append(lines[:maxListedFiles:maxListedFiles], fmt.Sprintf("... and %d more", len(m.Files)-maxListedFiles))
	}
	return strings.Join(lines, "\n")
}
