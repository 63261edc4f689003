package models

import (
	"bytes"
	"encoding/json"
	"path/filepath"
)

// Processing modes understood by the remote side. Other values are forwarded unchanged.
const (
	ModeWholeBody = "wholebody"
	ModePose3D    = "pose3d"
)

// SelectedFile is a local file picked for upload.
type SelectedFile struct {
	Path string // origin handle: where the bytes are read from
	Name string // display and upload file name
}

// NewSelectedFile selects the file at path, displayed under its base name.
func NewSelectedFile(path string) SelectedFile {
	return SelectedFile{Path: path, Name: filepath.Base(path)}
}

// SelectFiles wraps each path with [NewSelectedFile], keeping order.
func SelectFiles(paths ...string) []SelectedFile {
	files := make([]SelectedFile, len(paths))
	for i, p := range paths {
		files[i] = NewSelectedFile(p)
	}
	return files
}

// UploadAck is the acknowledgement returned for one uploaded batch.
//
// The body's shape is owned by the server; Raw always holds it and Message is filled when the body is an object
// carrying a "message" string.
type UploadAck struct {
	Message string          `json:"-"`
	Raw     json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw acknowledgement and extracts its message when present.
func (a *UploadAck) UnmarshalJSON(data []byte) error {
	a.Raw = append(a.Raw[:0], data...)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &body); err == nil {
		a.Message = body.Message
	}
	return nil
}
