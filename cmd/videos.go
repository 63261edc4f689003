package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/poseup/internal/formatter"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/urfave/cli/v3"
)

// VideosList prints the videos collection attributed to the logged-in user.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	videos, err := r.client.ListVideos(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if videos == nil {
			videos = []models.VideoRecord{}
		}
		return r.writeJSON(videos, true)
	}

	_, err = r.output.Write(formatter.VideosToText(r.sessions.Current().Username, videos))
	return err
}

// VideosPlay streams a video into a temporary source, opens it and keeps it until interrupted.
func (r *Runner) VideosPlay(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Require(); err != nil {
		return err
	}

	id := models.ResourceID(strings.TrimSpace(cmd.StringArg("id")))
	if id.Empty() {
		return fmt.Errorf("%w: video ID is required", shared.ErrMissingArgument)
	}

	src, err := r.player.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Release(); err != nil {
			r.logger.Warn("failed to release media source", "video", id, "error", err)
		}
	}()

	if err := r.open(src.Path); err != nil {
		return err
	}

	r.writePlain("▶ Playing %s from %s\n", id, src.Path)
	r.writePlain("Press Ctrl+C to stop and remove the local copy\n")

	<-ctx.Done()
	return nil
}
