package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case HomeView:
		body = m.renderHome()
	case UploadView:
		body = m.renderUpload()
	case FilesView:
		body = m.renderFiles()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderStatus())
}

func (m *Model) renderTabs() string {
	views := []ViewState{HomeView, UploadView, FilesView}
	if m.view == LoginView {
		views = []ViewState{LoginView}
	}

	tabs := make([]string, 0, len(views)+1)
	for i, v := range views {
		label := v.String()
		if v != LoginView {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		if v == m.view {
			tabs = append(tabs, styles.active.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}

	if user := m.deps.Sessions.Current().Username; user != "" && m.view != LoginView {
		tabs = append(tabs, styles.help.Render("signed in as "+user))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n"
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return "\n" + styles.err.Render(m.status)
	}
	return "\n" + styles.ok.Render(m.status)
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Welcome Back"))
	b.WriteString("\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.help.Render("No account? Run 'poseup auth signup'."))
	b.WriteString("\n\n")

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "login"))
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, submit, m.keys.forceQuit}))
	return b.String()
}

func (m *Model) renderHome() string {
	if m.loading && len(m.videoList.Items()) == 0 {
		return "Loading videos..."
	}

	play := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
	helpView := m.help.ShortHelpView([]key.Binding{play, m.keys.refresh, m.keys.upload, m.keys.files, m.keys.logout, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.videoList.View(), helpView)
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upload New Videos"))
	b.WriteString("\n")

	if m.picking {
		b.WriteString(m.picker.View())
		b.WriteString("\n\n")
		done := key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "done"))
		pick := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add file"))
		back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "parent dir"))
		b.WriteString(m.help.ShortHelpView([]key.Binding{pick, back, done, m.keys.forceQuit}))
		return b.String()
	}

	selection := m.deps.Uploads.Selection()
	if len(selection) == 0 {
		b.WriteString(styles.help.Render("No files selected. Press 'a' to browse for videos."))
		b.WriteString("\n")
	}
	for _, f := range selection {
		b.WriteString(fmt.Sprintf("  • %s\n", f.Name))
	}

	if snap := m.deps.Uploads.Snapshot(); snap.Progress > 0 {
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(float64(snap.Progress) / 100))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	keys := []key.Binding{m.keys.addFiles, m.keys.wholeBody, m.keys.pose3D, m.keys.removeAll, m.keys.home, m.keys.files, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderFiles() string {
	if m.loading && len(m.records) == 0 {
		return "Loading files..."
	}

	keys := []key.Binding{m.keys.video, m.keys.json, m.keys.allVideos, m.keys.allJSONs, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.fileList.View(), m.help.ShortHelpView(keys))
}
