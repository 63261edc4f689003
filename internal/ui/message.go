package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/session"
	"github.com/desertthunder/poseup/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoggedIn MsgKind = iota
	MsgVideosMounted
	MsgRecordsFetched
	MsgProgressUpdate
	MsgUploadComplete
	MsgDownloaded
	MsgDownloadAllComplete
	MsgPlayed
)

type loggedInData struct {
	session session.Session
	err     error
}

type videosMountedData struct {
	items []tasks.GalleryItem
	err   error
}

type recordsFetchedData struct {
	records []models.RemoteFileRecord
	err     error
}

type uploadCompleteData struct {
	outcome *tasks.UploadOutcome
	err     error
}

type downloadedData struct {
	path string
	err  error
}

type playedData struct {
	source *tasks.MediaSource
	err    error
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(sess session.Session, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loggedInData{sess, err}}
}

// videosMountedMsg is the constructor for [MsgVideosMounted]
func videosMountedMsg(items []tasks.GalleryItem, err error) Msg {
	return Msg{kind: MsgVideosMounted, data: videosMountedData{items, err}}
}

// recordsFetchedMsg is the constructor for [MsgRecordsFetched]
func recordsFetchedMsg(records []models.RemoteFileRecord, err error) Msg {
	return Msg{kind: MsgRecordsFetched, data: recordsFetchedData{records, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(outcome *tasks.UploadOutcome, err error) Msg {
	return Msg{kind: MsgUploadComplete, data: uploadCompleteData{outcome, err}}
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(path string, err error) Msg {
	return Msg{kind: MsgDownloaded, data: downloadedData{path, err}}
}

// downloadAllCompleteMsg is the constructor for [MsgDownloadAllComplete]
func downloadAllCompleteMsg(result *tasks.DownloadAllResult) Msg {
	return Msg{kind: MsgDownloadAllComplete, data: result}
}

// playedMsg is the constructor for [MsgPlayed]
func playedMsg(source *tasks.MediaSource, err error) Msg {
	return Msg{kind: MsgPlayed, data: playedData{source, err}}
}
