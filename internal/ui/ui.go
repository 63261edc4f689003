package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/session"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/desertthunder/poseup/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	HomeView
	UploadView
	FilesView
)

func (v ViewState) String() string {
	switch v {
	case LoginView:
		return "Login"
	case HomeView:
		return "Home"
	case UploadView:
		return "Upload"
	case FilesView:
		return "Analysis"
	default:
		return ""
	}
}

// Sessions is the session authority as seen by the TUI. [*session.Manager] implements it.
type Sessions interface {
	Current() session.Session
	Login(ctx context.Context, email, password string) (session.Session, error)
	Logout() error
}

// Lister fetches the remote listings. [*services.Client] implements it.
type Lister interface {
	ListVideos(ctx context.Context) ([]models.VideoRecord, error)
	ListRecords(ctx context.Context) ([]models.RemoteFileRecord, error)
}

// Deps holds the collaborators of the TUI.
type Deps struct {
	Sessions   Sessions
	Lister     Lister
	Uploads    *tasks.UploadController
	Downloader *tasks.Downloader
	Gallery    *tasks.Gallery
	Open       func(target string) error
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	width  int
	height int

	inputs  []textinput.Model
	focus   int
	loading bool

	videoList list.Model
	fileList  list.Model
	records   []models.RemoteFileRecord

	picker  filepicker.Model
	picking bool

	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	uploadDone   chan uploadCompleteData
	uploading    bool

	status    string
	statusErr bool

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. The first view depends on whether a session is present.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	if deps.Open == nil {
		deps.Open = shared.OpenExternal
	}

	m := &Model{
		ctx:       ctx,
		deps:      deps,
		view:      LoginView,
		inputs:    newLoginInputs(),
		videoList: newList("Recent Videos", nil, 0, 0),
		fileList:  newList("Your Files", nil, 0, 0),
		bar:       progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
	if deps.Sessions.Current().Authenticated() {
		m.view = HomeView
	}
	return m
}

func newLoginInputs() []textinput.Model {
	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "Email:    "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return []textinput.Model{email, password}
}

// Active returns the current view.
func (m *Model) Active() ViewState { return m.view }

// Init starts the first view.
func (m *Model) Init() tea.Cmd {
	if m.view == LoginView {
		return textinput.Blink
	}
	return m.enter(HomeView)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.videoList.SetSize(msg.Width-4, msg.Height-8)
		m.fileList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = max(msg.Width-8, 10)
		if m.picking {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-8, 5)})
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m.quit()
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case HomeView:
			return m.handleHomeKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case FilesView:
			return m.handleFilesKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoggedIn:
		data := msg.data.(loggedInData)
		m.loading = false
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.inputs = newLoginInputs()
		m.setStatus(fmt.Sprintf("Welcome back, %s", data.session.Username))
		return m, m.enter(HomeView)

	case MsgVideosMounted:
		data := msg.data.(videosMountedData)
		if errors.Is(data.err, shared.ErrUnmounted) {
			// Superseded by a later mount or teardown.
			return m, nil
		}
		m.loading = false
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		if m.view != HomeView {
			// Left before the sources arrived.
			m.deps.Gallery.Unmount()
			return m, nil
		}
		m.videoList.SetItems(videoItems(data.items, m.deps.Sessions.Current().Username))
		return m, nil

	case MsgRecordsFetched:
		data := msg.data.(recordsFetchedData)
		m.loading = false
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.records = data.records
		m.fileList.SetItems(recordItems(data.records))
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.setStatus(update.Message)
		return m, m.waitForProgress()

	case MsgUploadComplete:
		data := msg.data.(uploadCompleteData)
		m.uploading = false
		m.progressChan = nil
		m.uploadDone = nil
		switch {
		case data.outcome != nil && data.outcome.State == tasks.Failed:
			m.status, m.statusErr = "Error: "+data.outcome.Message, true
		case data.err != nil:
			m.setError(data.err)
		case data.outcome != nil:
			m.setStatus(data.outcome.Message)
		}
		return m, nil

	case MsgDownloaded:
		data := msg.data.(downloadedData)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.setStatus("Saved " + data.path)
		return m, nil

	case MsgDownloadAllComplete:
		result := msg.data.(*tasks.DownloadAllResult)
		summary := fmt.Sprintf("Saved %d of %d %s", len(result.Saved), result.Attempted, result.Kind)
		if len(result.Failures) > 0 {
			m.status, m.statusErr = fmt.Sprintf("%s (%d failed, see log)", summary, len(result.Failures)), true
			return m, nil
		}
		m.setStatus(summary)
		return m, nil

	case MsgPlayed:
		data := msg.data.(playedData)
		if errors.Is(data.err, shared.ErrUnmounted) {
			return m, nil
		}
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.setStatus("Playing " + data.source.VideoID.String())
		return m, nil
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.next), key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		return m, m.inputs[m.focus].Focus()
	case key.Matches(msg, m.keys.enter):
		if m.loading {
			return m, nil
		}
		if m.focus == 0 {
			m.inputs[0].Blur()
			m.focus = 1
			return m, m.inputs[1].Focus()
		}
		m.loading = true
		m.setStatus("Signing in...")
		return m, m.login(m.inputs[0].Value(), m.inputs[1].Value())
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// handleTabKeys switches views and handles keys shared by every protected view.
func (m *Model) handleTabKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		_, cmd := m.quit()
		return cmd, true
	case key.Matches(msg, m.keys.home):
		return m.enter(HomeView), true
	case key.Matches(msg, m.keys.upload):
		return m.enter(UploadView), true
	case key.Matches(msg, m.keys.files):
		return m.enter(FilesView), true
	case key.Matches(msg, m.keys.logout):
		return m.logout(), true
	}
	return nil, false
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.handleTabKeys(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.refresh):
		return m, m.mountVideos()
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.videoList.SelectedItem().(videoItem); ok {
			return m, m.play(it.item)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picking {
		return m.handlePickerKeys(msg)
	}
	if cmd, ok := m.handleTabKeys(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.addFiles):
		m.picking = true
		m.picker = newPicker(m.width, m.height)
		return m, m.picker.Init()
	case key.Matches(msg, m.keys.wholeBody):
		return m, m.startUpload(models.ModeWholeBody)
	case key.Matches(msg, m.keys.pose3D):
		return m, m.startUpload(models.ModePose3D)
	case key.Matches(msg, m.keys.removeAll):
		if err := m.deps.Uploads.RemoveAll(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.status, m.statusErr = "", false
		return m, nil
	}
	return m, nil
}

// handlePickerKeys browses the filesystem. Every chosen file joins the selection; tab closes the picker.
func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.next) {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		file := models.NewSelectedFile(path)
		m.deps.Uploads.Select(file)
		m.setStatus("Added " + file.Name)
	}
	return m, cmd
}

func (m *Model) handleFilesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.handleTabKeys(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchRecords()
	case key.Matches(msg, m.keys.video):
		return m, m.downloadSelected(tasks.KindVideos)
	case key.Matches(msg, m.keys.json):
		return m, m.downloadSelected(tasks.KindJSONs)
	case key.Matches(msg, m.keys.allVideos):
		return m, m.downloadAll(tasks.KindVideos)
	case key.Matches(msg, m.keys.allJSONs):
		return m, m.downloadAll(tasks.KindJSONs)
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case HomeView:
		m.videoList, cmd = m.videoList.Update(msg)
	case UploadView:
		if m.picking {
			m.picker, cmd = m.picker.Update(msg)
		}
	case FilesView:
		m.fileList, cmd = m.fileList.Update(msg)
	}
	return m, cmd
}

// enter switches to v. Leaving Home releases its media sources.
func (m *Model) enter(v ViewState) tea.Cmd {
	if m.view == HomeView && v != HomeView {
		m.deps.Gallery.Unmount()
		m.videoList.SetItems(nil)
	}
	m.picking = false
	m.view = v

	switch v {
	case HomeView:
		return m.mountVideos()
	case FilesView:
		return m.fetchRecords()
	}
	return nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.deps.Gallery.Unmount()
	return m, tea.Quit
}

func (m *Model) logout() tea.Cmd {
	if m.uploading {
		m.setError(shared.ErrUploadInProgress)
		return nil
	}
	m.deps.Gallery.Unmount()
	m.videoList.SetItems(nil)
	m.fileList.SetItems(nil)
	m.records = nil

	if err := m.deps.Sessions.Logout(); err != nil {
		m.setError(err)
		return nil
	}

	m.view = LoginView
	m.inputs = newLoginInputs()
	m.focus = 0
	m.setStatus("Logged out")
	return textinput.Blink
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	m.deps.Logger.Error("tui action failed", "view", m.view, "error", err)

	var validationErr *shared.ValidationError
	var authErr *services.AuthError
	switch {
	case errors.As(err, &validationErr):
		m.status = validationErr.Message
	case errors.As(err, &authErr):
		m.status = authErr.Error()
	case errors.Is(err, shared.ErrAPIRequest):
		m.status = "Error: " + services.DetailOf(err)
	default:
		m.status = "Error: " + err.Error()
	}
	m.statusErr = true
}

func (m *Model) login(email, password string) tea.Cmd {
	sessions := m.deps.Sessions
	ctx := m.ctx
	return func() tea.Msg {
		sess, err := sessions.Login(ctx, email, password)
		return loggedInMsg(sess, err)
	}
}

func (m *Model) mountVideos() tea.Cmd {
	m.loading = true
	lister, gallery, ctx := m.deps.Lister, m.deps.Gallery, m.ctx
	return func() tea.Msg {
		videos, err := lister.ListVideos(ctx)
		if err != nil {
			return videosMountedMsg(nil, err)
		}
		items, err := gallery.Mount(ctx, videos)
		return videosMountedMsg(items, err)
	}
}

func (m *Model) fetchRecords() tea.Cmd {
	m.loading = true
	lister, ctx := m.deps.Lister, m.ctx
	return func() tea.Msg {
		records, err := lister.ListRecords(ctx)
		return recordsFetchedMsg(records, err)
	}
}

func (m *Model) play(item tasks.GalleryItem) tea.Cmd {
	gallery, open, ctx := m.deps.Gallery, m.deps.Open, m.ctx
	return func() tea.Msg {
		src := item.Source
		if src == nil {
			var err error
			if src, err = gallery.Replace(ctx, item.Video.VideoID); err != nil {
				return playedMsg(nil, err)
			}
		}
		if err := open(src.Path); err != nil {
			return playedMsg(nil, err)
		}
		return playedMsg(src, nil)
	}
}

func (m *Model) startUpload(mode string) tea.Cmd {
	if m.uploading {
		m.setError(shared.ErrUploadInProgress)
		return nil
	}
	if len(m.deps.Uploads.Selection()) == 0 {
		return nil
	}

	m.uploading = true
	m.setStatus(tasks.AnalysingMessage)
	m.progressChan = make(chan tasks.ProgressUpdate, m.deps.Uploads.Batches()+2)
	m.uploadDone = make(chan uploadCompleteData, 1)

	uploads, ctx, ch, done := m.deps.Uploads, m.ctx, m.progressChan, m.uploadDone
	go func() {
		out, err := uploads.Upload(ctx, mode, ch)
		done <- uploadCompleteData{out, err}
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch, done := m.progressChan, m.uploadDone
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		update, ok := <-ch
		if !ok {
			res := <-done
			return uploadCompleteMsg(res.outcome, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) selectedRecord() (models.RemoteFileRecord, bool) {
	it, ok := m.fileList.SelectedItem().(recordItem)
	if !ok {
		return models.RemoteFileRecord{}, false
	}
	return it.record, true
}

func (m *Model) downloadSelected(kind tasks.ResourceKind) tea.Cmd {
	record, ok := m.selectedRecord()
	if !ok {
		return nil
	}

	id, name, contentType := kind.Resource(record)
	if id.Empty() {
		m.status, m.statusErr = fmt.Sprintf("No %s for this file", strings.TrimSuffix(string(kind), "s")), true
		return nil
	}

	m.setStatus("Downloading " + orNA(name) + "...")
	d, ctx := m.deps.Downloader, m.ctx
	return func() tea.Msg {
		path, err := d.DownloadResource(ctx, id, name, contentType)
		return downloadedMsg(path, err)
	}
}

func (m *Model) downloadAll(kind tasks.ResourceKind) tea.Cmd {
	records := append([]models.RemoteFileRecord(nil), m.records...)
	m.setStatus(fmt.Sprintf("Downloading all %s...", kind))

	d, ctx := m.deps.Downloader, m.ctx
	return func() tea.Msg {
		return downloadAllCompleteMsg(d.DownloadAll(ctx, records, kind, nil))
	}
}
