package ui

import (
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	next      key.Binding
	home      key.Binding
	upload    key.Binding
	files     key.Binding
	addFiles  key.Binding
	wholeBody key.Binding
	pose3D    key.Binding
	removeAll key.Binding
	video     key.Binding
	json      key.Binding
	allVideos key.Binding
	allJSONs  key.Binding
	refresh   key.Binding
	logout    key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		next:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		home:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
		upload:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "upload")),
		files:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "analysis")),
		addFiles:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add files")),
		wholeBody: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "analyse whole body")),
		pose3D:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "analyse 3D pose")),
		removeAll: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove all files")),
		video:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "download video")),
		json:      key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "download json")),
		allVideos: key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "all videos")),
		allJSONs:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "all jsons")),
		refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.home, k.upload, k.files},
		{k.addFiles, k.wholeBody, k.pose3D, k.removeAll},
		{k.video, k.json, k.allVideos, k.allJSONs},
		{k.refresh, k.logout, k.quit},
	}
}

// newList builds a [list.Model] whose cursor moves only with the arrow keys, leaving letters to the views.
func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.CursorUp = key.NewBinding(key.WithKeys("up"))
	l.KeyMap.CursorDown = key.NewBinding(key.WithKeys("down"))
	l.KeyMap.Quit = key.NewBinding(key.WithDisabled())
	l.KeyMap.ForceQuit = key.NewBinding(key.WithDisabled())
	return l
}

// newPicker builds a [filepicker.Model] rooted at the working directory that selects files only.
func newPicker(width, height int) filepicker.Model {
	fp := filepicker.New()
	fp.CurrentDirectory = "."
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowPermissions = false
	// Size it now; later resizes are forwarded while it is open.
	fp, _ = fp.Update(tea.WindowSizeMsg{Width: width, Height: max(height-8, 5)})
	return fp
}
