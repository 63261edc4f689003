package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/shared"
)

// MediaSource is a streamed video materialized as a local file that a player can open.
//
// The creator owns it and must call [MediaSource.Release] on teardown or replacement.
type MediaSource struct {
	VideoID     models.ResourceID
	Path        string
	ContentType string

	once sync.Once
	err  error
}

// Release removes the backing file. Later calls are no-ops.
func (m *MediaSource) Release() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() {
		if err := os.Remove(m.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.err = fmt.Errorf("failed to release media source %s: %w", m.VideoID, err)
		}
	})
	return m.err
}

// Player turns streamed videos into [MediaSource] values.
type Player struct {
	fetcher BinaryFetcher
	dir     string
	logger  *log.Logger
}

// NewPlayer creates a [Player] that stores sources in dir, or the system temp directory when dir is empty.
func NewPlayer(fetcher BinaryFetcher, dir string, logger *log.Logger) *Player {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Player{fetcher: fetcher, dir: dir, logger: logger}
}

// Acquire streams videoID into a new temp file.
func (p *Player) Acquire(ctx context.Context, videoID models.ResourceID) (*MediaSource, error) {
	if videoID.Empty() {
		return nil, fmt.Errorf("%w: video id is empty", shared.ErrMissingArgument)
	}

	blob, err := p.fetcher.FetchBinary(ctx, services.StreamResource(videoID))
	if err != nil {
		return nil, err
	}
	defer blob.Release()

	ext := extensionFor(blob.ContentType)
	if ext == "" {
		ext = ".mp4"
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	path := filepath.Join(p.dir, "poseup-"+shared.GenerateID()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create media source: %w", err)
	}
	if _, err := f.Write(blob.Data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write media source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write media source: %w", err)
	}

	p.logger.Debug("media source acquired", "video", videoID, "path", path)
	return &MediaSource{VideoID: videoID, Path: path, ContentType: blob.ContentType}, nil
}

// GalleryItem pairs a rendered video with its source. Source is nil when acquisition failed.
type GalleryItem struct {
	Video  models.VideoRecord
	Source *MediaSource
}

// Gallery owns one [MediaSource] per rendered video.
type Gallery struct {
	player *Player
	logger *log.Logger

	mountMu sync.Mutex // serializes Mount and Replace
	mu      sync.Mutex
	items   []GalleryItem
	gen     uint64 // bumped by every Unmount
}

// NewGallery creates an empty [Gallery].
func NewGallery(player *Player, logger *log.Logger) *Gallery {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Gallery{player: player, logger: logger}
}

// Mount acquires a source for each video, releasing whatever was mounted before.
//
// A failed acquisition is logged and leaves that item without a source. When [Gallery.Unmount] runs before the
// mount completes, everything acquired so far is released and [shared.ErrUnmounted] is returned.
func (g *Gallery) Mount(ctx context.Context, videos []models.VideoRecord) ([]GalleryItem, error) {
	g.mountMu.Lock()
	defer g.mountMu.Unlock()

	g.Unmount()
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()

	items := make([]GalleryItem, 0, len(videos))
	for _, v := range videos {
		item := GalleryItem{Video: v}
		if ctx.Err() == nil && g.current(gen) {
			src, err := g.player.Acquire(ctx, v.VideoID)
			if err != nil {
				g.logger.Error("failed to load video", "video", v.VideoID, "error", err)
			} else {
				item.Source = src
			}
		}
		items = append(items, item)
	}

	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		releaseItems(g.logger, items)
		g.logger.Debug("mount abandoned after unmount", "videos", len(videos))
		return nil, shared.ErrUnmounted
	}
	g.items = items
	g.mu.Unlock()

	return g.Items(), nil
}

func (g *Gallery) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen == gen
}

// Items returns the mounted items in display order.
func (g *Gallery) Items() []GalleryItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GalleryItem(nil), g.items...)
}

// Replace releases the source of videoID and acquires a fresh one.
func (g *Gallery) Replace(ctx context.Context, videoID models.ResourceID) (*MediaSource, error) {
	g.mountMu.Lock()
	defer g.mountMu.Unlock()

	g.mu.Lock()
	idx := -1
	for i, item := range g.items {
		if item.Video.VideoID == videoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: video %s is not mounted", shared.ErrResourceNotFound, videoID)
	}
	old := g.items[idx].Source
	g.items[idx].Source = nil
	gen := g.gen
	g.mu.Unlock()

	if err := old.Release(); err != nil {
		g.logger.Warn("failed to release media source", "video", videoID, "error", err)
	}

	src, err := g.player.Acquire(ctx, videoID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen == gen {
		for i := range g.items {
			if g.items[i].Video.VideoID == videoID {
				g.items[i].Source = src
				return src, nil
			}
		}
	}

	// Unmounted while acquiring.
	src.Release()
	return nil, fmt.Errorf("%w: video %s", shared.ErrUnmounted, videoID)
}

// Unmount releases every source and empties the gallery. A mount in flight releases its own sources.
func (g *Gallery) Unmount() {
	g.mu.Lock()
	items := g.items
	g.items = nil
	g.gen++
	g.mu.Unlock()

	releaseItems(g.logger, items)
}

// Close unmounts and waits for any Mount or Replace in flight to release what it acquired.
func (g *Gallery) Close() {
	g.Unmount()
	g.mountMu.Lock()
	defer g.mountMu.Unlock()
	g.Unmount()
}

func releaseItems(logger *log.Logger, items []GalleryItem) {
	for _, item := range items {
		if err := item.Source.Release(); err != nil {
			logger.Warn("failed to release media source", "video", item.Video.VideoID, "error", err)
		}
	}
}
