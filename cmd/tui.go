package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/desertthunder/poseup/internal/tasks"
	"github.com/desertthunder/poseup/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. Arguments are preselected for upload.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLevel(r.config.Log.Level))
	if err := r.SetLogger(fileLogger); err != nil {
		return err
	}

	if paths := cmd.Args().Slice(); len(paths) > 0 {
		r.uploads.Select(models.SelectFiles(paths...)...)
	}

	gallery := tasks.NewGallery(r.player, r.logger)
	defer gallery.Close()

	// Canceled before Close so in-flight fetches stop early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, ui.Deps{
		Sessions:   r.sessions,
		Lister:     r.client,
		Uploads:    r.uploads,
		Downloader: r.downloader,
		Gallery:    gallery,
		Open:       r.open,
		Logger:     r.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
