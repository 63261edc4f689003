// Package formatter renders analysis listings as plain text, CSV and JSON.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
)

// Placeholders for missing listing values.
const (
	MissingValue = "N/A"
	MissingTime  = "Unknown"
)

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// RecordsToText renders one card per record, in listing order.
func RecordsToText(records []models.RemoteFileRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No files yet.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Files: %d\n\n", len(records)))
	for i, r := range records {
		buf.WriteString(fmt.Sprintf("%d. [%s]\n", i+1, orDefault(r.Key(), MissingValue)))
		buf.WriteString(fmt.Sprintf("   Original Filename:  %s\n", orDefault(r.OriginalName, MissingValue)))
		buf.WriteString(fmt.Sprintf("   Processed Filename: %s\n", orDefault(r.ProcessedName, MissingValue)))
		buf.WriteString(fmt.Sprintf("   JSON Filename:      %s\n", orDefault(r.JSONName, MissingValue)))
		buf.WriteString(fmt.Sprintf("   Uploaded at:        %s\n", orDefault(r.UploadedAt, MissingTime)))
		buf.WriteString(fmt.Sprintf("   Video ID: %s  JSON ID: %s\n\n",
			orDefault(r.VideoID.String(), MissingValue), orDefault(r.JSONID.String(), MissingValue)))
	}

	return buf.Bytes()
}

// WriteRecords writes [RecordsToText] output to w.
func WriteRecords(w io.Writer, records []models.RemoteFileRecord) error {
	if _, err := w.Write(RecordsToText(records)); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return nil
}

// RecordsToCSV converts records to CSV with columns: Original Filename, Processed Filename, JSON Filename,
// Uploaded At, Video ID, JSON ID
func RecordsToCSV(records []models.RemoteFileRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRecordsCSV streams records to w as CSV.
func WriteRecordsCSV(w io.Writer, records []models.RemoteFileRecord) error {
	writer := csv.NewWriter(w)

	headers := []string{"Original Filename", "Processed Filename", "JSON Filename", "Uploaded At", "Video ID", "JSON ID"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{
			r.OriginalName,
			r.ProcessedName,
			r.JSONName,
			r.UploadedAt,
			r.VideoID.String(),
			r.JSONID.String(),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// WriteCSVExport writes the listing to path, defaulting to files.csv.
func WriteCSVExport(records []models.RemoteFileRecord, path string) (string, error) {
	if path == "" {
		path = "files.csv"
	}

	data, err := RecordsToCSV(records)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// RecordsToJSON encodes the listing as indented JSON using the wire field names.
func RecordsToJSON(records []models.RemoteFileRecord) ([]byte, error) {
	if records == nil {
		records = []models.RemoteFileRecord{}
	}
	return shared.MarshalJSON(records, true)
}

// VideosToText renders the videos-only collection, each entry attributed to username.
func VideosToText(username string, videos []models.VideoRecord) []byte {
	var buf bytes.Buffer

	if len(videos) == 0 {
		buf.WriteString("No videos yet.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Recent Videos: %d\n\n", len(videos)))
	for i, v := range videos {
		line := fmt.Sprintf("%d. [%s] %s", i+1, orDefault(v.VideoID.String(), MissingValue), username)
		if v.Filename != "" {
			line += " - " + v.Filename
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}
