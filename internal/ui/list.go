package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/poseup/internal/formatter"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/tasks"
)

var (
	_ list.Item = videoItem{}
	_ list.Item = recordItem{}
)

// videoItem wraps [tasks.GalleryItem] to implement [list.Item].
type videoItem struct {
	item     tasks.GalleryItem
	username string
}

func (i videoItem) FilterValue() string { return i.item.Video.VideoID.String() }
func (i videoItem) Title() string {
	if i.item.Video.Filename != "" {
		return i.item.Video.Filename
	}
	return "Video " + i.item.Video.VideoID.String()
}
func (i videoItem) Description() string {
	if i.item.Source == nil {
		return fmt.Sprintf("%s • unavailable", i.username)
	}
	return fmt.Sprintf("%s • ready to play", i.username)
}

// recordItem wraps [models.RemoteFileRecord] to implement [list.Item].
type recordItem struct {
	record models.RemoteFileRecord
}

func (i recordItem) FilterValue() string { return i.record.OriginalName }
func (i recordItem) Title() string {
	return orNA(i.record.OriginalName)
}
func (i recordItem) Description() string {
	uploaded := i.record.UploadedAt
	if uploaded == "" {
		uploaded = formatter.MissingTime
	}
	return fmt.Sprintf("%s • %s • %s", orNA(i.record.ProcessedName), orNA(i.record.JSONName), uploaded)
}

func orNA(s string) string {
	if s == "" {
		return formatter.MissingValue
	}
	return s
}

func videoItems(items []tasks.GalleryItem, username string) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = videoItem{item: it, username: username}
	}
	return out
}

func recordItems(records []models.RemoteFileRecord) []list.Item {
	out := make([]list.Item, len(records))
	for i, r := range records {
		out[i] = recordItem{record: r}
	}
	return out
}
