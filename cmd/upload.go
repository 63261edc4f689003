package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/desertthunder/poseup/internal/tasks"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// Upload submits the given files in batches and reports progress until the run ends.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one FILE is required", shared.ErrMissingArgument)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, p)
		}
	}

	uploads := r.uploads
	if size := int(cmd.Int("batch-size")); size < 0 {
		return fmt.Errorf("%w: --batch-size must be positive, got %d", shared.ErrInvalidFlag, size)
	} else if size > 0 {
		uploads = tasks.NewUploadController(r.client, size, r.logger)
	}
	uploads.Select(models.SelectFiles(paths...)...)

	mode := cmd.String("mode")
	r.logger.Info("uploading files", "files", len(paths), "mode", mode, "batch_size", uploads.BatchSize())

	bar := newUploadBar(os.Stderr)
	progressCh := make(chan tasks.ProgressUpdate, uploads.Batches()+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			bar.Describe(update.Message)
			_ = bar.Set(update.Percent)
		}
	}()

	out, err := uploads.Upload(ctx, mode, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		_ = bar.Exit()
		if out != nil {
			r.writePlainln("✗ Error: %s", out.Message)
		}
		return err
	}

	_ = bar.Finish()
	return r.writePlain("✓ %s\n", out.Message)
}

// newUploadBar renders cumulative batch progress as a percentage.
func newUploadBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(tasks.AnalysingMessage),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}
