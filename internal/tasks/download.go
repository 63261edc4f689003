package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"
)

// BinaryFetcher fetches a binary resource into memory. [*services.Client] implements it.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, path string) (*services.Blob, error)
}

// ResourceKind selects which resource of a [models.RemoteFileRecord] to download.
type ResourceKind string

const (
	KindVideos ResourceKind = "videos"
	KindJSONs  ResourceKind = "jsons"
)

// ParseResourceKind validates a kind name.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch k := ResourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindVideos, KindJSONs:
		return k, nil
	default:
		return "", fmt.Errorf("%w: kind must be %q or %q, got %q", shared.ErrInvalidArgument, KindVideos, KindJSONs, s)
	}
}

// Resource returns the id, suggested file name and expected content type of r for this kind.
func (k ResourceKind) Resource(r models.RemoteFileRecord) (models.ResourceID, string, string) {
	if k == KindJSONs {
		return r.JSONID, r.JSONName, "application/json"
	}
	return r.VideoID, r.ProcessedName, "video/mp4"
}

// DownloadFailure records one failed attempt of a download-all run.
type DownloadFailure struct {
	ResourceID models.ResourceID
	Name       string
	Err        error
}

// DownloadAllResult summarizes a download-all run.
type DownloadAllResult struct {
	Kind      ResourceKind
	Attempted int
	Skipped   int // records without a resource of this kind
	Saved     []string
	Failures  []DownloadFailure
}

// Downloader saves remote resources into a local directory.
type Downloader struct {
	fetcher BinaryFetcher
	dir     string
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewDownloader creates a [Downloader] writing into dir.
//
// A positive ratePerSecond paces download-all attempts. Zero disables pacing.
func NewDownloader(fetcher BinaryFetcher, dir string, ratePerSecond float64, logger *log.Logger) *Downloader {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	d := &Downloader{fetcher: fetcher, dir: dir, logger: logger}
	if ratePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return d
}

// Dir returns the destination directory.
func (d *Downloader) Dir() string { return d.dir }

// DownloadResource fetches the resource id and saves it under suggestedName, returning the written path.
//
// The name falls back to the id. When it has no extension one is derived from contentType, or from the served
// type when contentType is empty. Existing files are never overwritten: "name (1).ext" and so on are used instead.
func (d *Downloader) DownloadResource(ctx context.Context, id models.ResourceID, suggestedName, contentType string) (string, error) {
	if id.Empty() {
		return "", fmt.Errorf("%w: resource id is empty", shared.ErrMissingArgument)
	}

	blob, err := d.fetcher.FetchBinary(ctx, services.FileResource(id))
	if err != nil {
		return "", err
	}
	defer blob.Release()

	if contentType == "" {
		contentType = blob.ContentType
	}
	name := fileName(suggestedName, id, contentType)

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path, err := writeAtomic(d.dir, name, blob.Data)
	if err != nil {
		return "", err
	}

	d.logger.Debug("resource saved", "resource", id, "path", path, "bytes", len(blob.Data))
	return path, nil
}

// DownloadAll attempts every record holding a resource of kind, one at a time in listing order.
//
// Failures are logged and collected and never stop the run. A cancelled context does.
func (d *Downloader) DownloadAll(ctx context.Context, records []models.RemoteFileRecord, kind ResourceKind, progress chan<- ProgressUpdate) *DownloadAllResult {
	result := &DownloadAllResult{Kind: kind}

	var pending []models.RemoteFileRecord
	for _, r := range records {
		if id, _, _ := kind.Resource(r); id.Empty() {
			result.Skipped++
			continue
		}
		pending = append(pending, r)
	}

	total := len(pending)
	sendProgress(progress, downloadStartedUpdate(total, kind))

	for i, r := range pending {
		if ctx.Err() != nil {
			break
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				break
			}
		}

		id, name, contentType := kind.Resource(r)
		result.Attempted++

		path, err := d.DownloadResource(ctx, id, name, contentType)
		if err != nil {
			d.logger.Warn("download failed", "resource", id, "name", name, "error", err)
			result.Failures = append(result.Failures, DownloadFailure{ResourceID: id, Name: name, Err: err})
			sendProgress(progress, resourceFailedUpdate(i+1, total, name, err))
			continue
		}

		result.Saved = append(result.Saved, path)
		sendProgress(progress, resourceSavedUpdate(i+1, total, path))
	}

	if len(result.Failures) > 0 {
		d.logger.Warn("download-all finished with failures", "kind", kind, "saved", len(result.Saved), "failed", len(result.Failures))
	} else {
		d.logger.Info("download-all finished", "kind", kind, "saved", len(result.Saved))
	}
	sendProgress(progress, downloadFinishedUpdate(result))
	return result
}

// Err joins the collected failures.
func (r *DownloadAllResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("%s: %w", f.Name, f.Err)
	}
	return errors.Join(errs...)
}

var unsafeNameChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// sanitizeName reduces name to a single safe path element. It returns "" when nothing usable is left.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeNameChars.Replace(name)
	name = strings.Trim(name, " .")
	return name
}

// extensionFor returns the file extension registered for contentType, ignoring parameters.
func extensionFor(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	m := mimetype.Lookup(strings.TrimSpace(strings.ToLower(base)))
	if m == nil {
		return ""
	}
	return m.Extension()
}

func fileName(suggested string, id models.ResourceID, contentType string) string {
	name := sanitizeName(suggested)
	if name == "" {
		name = sanitizeName(id.String())
	}
	if name == "" {
		name = "download"
	}
	if filepath.Ext(name) == "" {
		name += extensionFor(contentType)
	}
	return name
}

// availablePath returns dir/name, or the first free "name (n).ext" variant.
func availablePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
	}
}

// writeAtomic writes data to a temp file in dir and renames it to a free path for name.
func writeAtomic(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".poseup-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	path := availablePath(dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return path, nil
}
