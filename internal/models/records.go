package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResourceID identifies a binary payload on the remote side.
//
// The API is not consistent about id types, so both JSON strings and numbers decode into the same value.
// null and missing ids decode to the empty ResourceID.
type ResourceID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ResourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ResourceID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("resource id must be a string or number: %w", err)
	}
	*id = ResourceID(n.String())
	return nil
}

// String returns the id as it appears in resource paths.
func (id ResourceID) String() string { return string(id) }

// Empty reports whether the record holds no resource of this kind.
func (id ResourceID) Empty() bool { return id == "" }

// RemoteFileRecord describes one processed upload. It is read-only on the client.
type RemoteFileRecord struct {
	OriginalName  string     `json:"filename"`
	ProcessedName string     `json:"processed_filename"`
	JSONName      string     `json:"json_filename"`
	UploadedAt    string     `json:"uploaded_at"`
	VideoID       ResourceID `json:"video_id"`
	JSONID        ResourceID `json:"json_id"`
}

// Key returns the id used to identify the record in listings: the video id, else the JSON id.
func (r RemoteFileRecord) Key() string {
	if !r.VideoID.Empty() {
		return r.VideoID.String()
	}
	return r.JSONID.String()
}

// VideoRecord is an entry of the videos-only collection.
type VideoRecord struct {
	VideoID  ResourceID `json:"video_id"`
	Filename string     `json:"filename,omitempty"`
}
