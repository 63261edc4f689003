// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The set of views depends on the session:
//   - [LoginView] : shown without a credential; email and password inputs with inline validation and server detail
//   - [HomeView] : recent videos, each backed by a media source; enter plays the selected video
//   - [UploadView] : the selection passed on the command line; w/p start a run, x removes all files
//   - [FilesView] : analysis records; v/j download one resource, V/J download all
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Upload progress flows through a channel from the [tasks.UploadController], providing non-blocking status reporting.
//
// Media sources are released when Home is left, on logout and on quit.
package ui
