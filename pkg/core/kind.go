package core

import "fmt"

// Kind names one independently reconciled category of records.
type Kind string

const (
	KindNotes      Kind = "notes"
	KindRecordings Kind = "recordings"
	KindFolders    Kind = "folders"
)

// Kinds returns every kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindNotes, KindRecordings, KindFolders}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}
