package domain

import (
	"bytes"
	"encoding/json"
)

// UploadFile is one selected file blob. Files are sent in slice order.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// RawDocument is an opaque JSON body returned by the backend.
type RawDocument json.RawMessage

// Pretty renders the document the way the page shows it: two-space indented
// JSON, or the raw text when the body is not valid JSON.
func (d RawDocument) Pretty() string {
	var out bytes.Buffer
	if err := json.Indent(&out, d, "", "  "); err != nil {
		return string(d)
	}
	return out.String()
}

func (d RawDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *RawDocument) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

type FileOperation string

const (
	FileCreated  FileOperation = "created"
	FileModified FileOperation = "modified"
	FileDeleted  FileOperation = "deleted"
)

// FileEvent is a change observed in a watched folder.
type FileEvent struct {
	Path      string
	Operation FileOperation
}
