package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/poseup/internal/formatter"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/desertthunder/poseup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// FilesList prints the processed file records, optionally exporting them to CSV.
func (r *Runner) FilesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	records, err := r.client.ListRecords(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched records", "count", len(records))

	if path := cmd.String("csv"); path != "" {
		written, err := formatter.WriteCSVExport(records, path)
		if err != nil {
			return err
		}
		r.logger.Info("exported records", "path", written)
	}

	if cmd.Bool("json") {
		data, err := formatter.RecordsToJSON(records)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return r.writePlain("%s\n", data)
	}

	r.writePlainHeader(fmt.Sprintf("Analysis Files (%d)", len(records)))
	return formatter.WriteRecords(r.output, records)
}

// FilesDownload saves one resource by id.
func (r *Runner) FilesDownload(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	contentType := ""
	if k := cmd.String("kind"); k != "" {
		kind, err := tasks.ParseResourceKind(k)
		if err != nil {
			return err
		}
		_, _, contentType = kind.Resource(models.RemoteFileRecord{})
	}

	id := models.ResourceID(cmd.String("id"))
	path, err := r.downloaderFor(cmd.String("dir")).DownloadResource(ctx, id, cmd.String("name"), contentType)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s\n", path)
}

// FilesDownloadAll saves every resource of one kind. Failures are reported and do not stop the run.
func (r *Runner) FilesDownloadAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	kind, err := tasks.ParseResourceKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	records, err := r.client.ListRecords(ctx)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, len(records)+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.DownloadStarted:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResourceSaved, tasks.ResourceFailed:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result := r.downloaderFor(cmd.String("dir")).DownloadAll(ctx, records, kind, progressCh)
	close(progressCh)
	<-done

	r.writePlainln("Saved %d of %d %s (%d skipped)", len(result.Saved), result.Attempted, result.Kind, result.Skipped)
	if err := result.Err(); err != nil {
		return fmt.Errorf("%w: %d of %d downloads failed: %w", shared.ErrAPIRequest, len(result.Failures), result.Attempted, err)
	}
	return ctx.Err()
}

// downloaderFor returns the configured downloader, or one writing to dir when it is set.
func (r *Runner) downloaderFor(dir string) *tasks.Downloader {
	if dir == "" {
		return r.downloader
	}
	return tasks.NewDownloader(r.client, dir, r.config.Downloads.RateLimit, r.logger)
}
