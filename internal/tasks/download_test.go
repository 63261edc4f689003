package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/shared"
	tu "github.com/desertthunder/poseup/internal/testing"
	"golang.org/x/oauth2"
)

type mockFetcher struct {
	mu    sync.Mutex
	blobs map[string]*services.Blob
	paths []string
}

func (m *mockFetcher) FetchBinary(ctx context.Context, path string) (*services.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)

	b, ok := m.blobs[path]
	if !ok {
		return nil, &services.TransferError{Op: "GET", Path: path, StatusCode: 404, Detail: "File not found"}
	}
	return &services.Blob{Data: append([]byte(nil), b.Data...), ContentType: b.ContentType}, nil
}

func newDownloader(f BinaryFetcher, dir string) *Downloader {
	return NewDownloader(f, dir, 0, shared.NewLogger(&bytes.Buffer{}))
}

func TestParseResourceKind(t *testing.T) {
	for _, in := range []string{"videos", "JSONS", " videos "} {
		if _, err := ParseResourceKind(in); err != nil {
			t.Errorf("ParseResourceKind(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseResourceKind("images"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"clip.mp4", "clip.mp4"},
		{"../../etc/passwd", "passwd"},
		{`C:\videos\clip.mp4`, "clip.mp4"},
		{"a:b*c?.json", "a_b_c_.json"},
		{"  .hidden. ", "hidden"},
		{"..", ""},
		{"line\nbreak.mp4", "linebreak.mp4"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	t.Run("DownloadResource", func(t *testing.T) {
		t.Run("Saves under suggested name", func(t *testing.T) {
			dir := t.TempDir()
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/1": {Data: []byte("mp4"), ContentType: "video/mp4"},
			}}

			path, err := newDownloader(f, dir).DownloadResource(ctx, "1", "out.mp4", "video/mp4")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if path != filepath.Join(dir, "out.mp4") {
				t.Errorf("unexpected path %s", path)
			}
			if tu.MustReadFile(t, path) != "mp4" {
				t.Error("unexpected content")
			}
		})

		t.Run("Falls back to id and derives extension", func(t *testing.T) {
			dir := t.TempDir()
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/9": {Data: []byte("{}"), ContentType: "application/json"},
			}}

			path, err := newDownloader(f, dir).DownloadResource(ctx, "9", "", "application/json")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(path) != "9.json" {
				t.Errorf("expected 9.json, got %s", filepath.Base(path))
			}
		})

		t.Run("Uses served type when none expected", func(t *testing.T) {
			dir := t.TempDir()
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/3": {Data: []byte("x"), ContentType: "video/mp4; codecs=avc1"},
			}}

			path, err := newDownloader(f, dir).DownloadResource(ctx, "3", "clip", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(path) != "clip.mp4" {
				t.Errorf("expected clip.mp4, got %s", filepath.Base(path))
			}
		})

		t.Run("Never overwrites", func(t *testing.T) {
			dir := t.TempDir()
			tu.MustWriteFile(t, dir, "out.mp4", []byte("old"))
			tu.MustWriteFile(t, dir, "out (1).mp4", []byte("older"))
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/1": {Data: []byte("new"), ContentType: "video/mp4"},
			}}

			path, err := newDownloader(f, dir).DownloadResource(ctx, "1", "out.mp4", "video/mp4")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(path) != "out (2).mp4" {
				t.Errorf("expected out (2).mp4, got %s", filepath.Base(path))
			}
			if tu.MustReadFile(t, filepath.Join(dir, "out.mp4")) != "old" {
				t.Error("existing file was overwritten")
			}
		})

		t.Run("Failure leaves no files", func(t *testing.T) {
			dir := t.TempDir()
			_, err := newDownloader(&mockFetcher{}, dir).DownloadResource(ctx, "404", "gone.mp4", "video/mp4")
			if services.DetailOf(err) != "File not found" {
				t.Errorf("expected server detail, got %v", err)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("expected empty directory, got %d entries", len(entries))
			}
		})

		t.Run("Empty id", func(t *testing.T) {
			_, err := newDownloader(&mockFetcher{}, t.TempDir()).DownloadResource(ctx, "", "x", "")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("DownloadAll", func(t *testing.T) {
		records := []models.RemoteFileRecord{
			{ProcessedName: "one.mp4", JSONName: "one.json", VideoID: "1", JSONID: "11"},
			{ProcessedName: "two.mp4", JSONName: "two.json", VideoID: "2", JSONID: "12"},
			{ProcessedName: "three.mp4", JSONName: "three.json", VideoID: "3"},
		}

		t.Run("Failed item does not stop the run", func(t *testing.T) {
			dir := t.TempDir()
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/1": {Data: []byte("1"), ContentType: "video/mp4"},
				"/files/3": {Data: []byte("3"), ContentType: "video/mp4"},
			}}

			progress := make(chan ProgressUpdate, 16)
			res := newDownloader(f, dir).DownloadAll(ctx, records, KindVideos, progress)

			if res.Attempted != 3 {
				t.Errorf("expected 3 attempts, got %d", res.Attempted)
			}
			if strings.Join(f.paths, ",") != "/files/1,/files/2,/files/3" {
				t.Errorf("expected listing order, got %v", f.paths)
			}
			if len(res.Saved) != 2 || len(res.Failures) != 1 {
				t.Errorf("expected 2 saved and 1 failure, got %+v", res)
			}
			if res.Failures[0].Name != "two.mp4" {
				t.Errorf("unexpected failure %+v", res.Failures[0])
			}
			if res.Err() == nil {
				t.Error("expected joined error")
			}

			updates := collect(progress)
			if last := updates[len(updates)-1]; last.Phase != DownloadFinished {
				t.Errorf("expected finish update last, got %s", last.Phase)
			}
		})

		t.Run("Skips records without the resource", func(t *testing.T) {
			dir := t.TempDir()
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/11": {Data: []byte("{}"), ContentType: "application/json"},
				"/files/12": {Data: []byte("{}"), ContentType: "application/json"},
			}}

			res := newDownloader(f, dir).DownloadAll(ctx, records, KindJSONs, nil)
			if res.Attempted != 2 || res.Skipped != 1 {
				t.Errorf("expected 2 attempts and 1 skip, got %+v", res)
			}
			if res.Err() != nil {
				t.Errorf("unexpected error: %v", res.Err())
			}
			tu.AssertFileExists(t, filepath.Join(dir, "one.json"))
			tu.AssertFileExists(t, filepath.Join(dir, "two.json"))
		})

		t.Run("Cancelled context stops the loop", func(t *testing.T) {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			f := &mockFetcher{}
			res := newDownloader(f, t.TempDir()).DownloadAll(cctx, records, KindVideos, nil)
			if res.Attempted != 0 || len(f.paths) != 0 {
				t.Errorf("expected no attempts, got %+v", res)
			}
		})

		t.Run("Rate limited", func(t *testing.T) {
			f := &mockFetcher{blobs: map[string]*services.Blob{
				"/files/1": {Data: []byte("1")},
				"/files/2": {Data: []byte("2")},
				"/files/3": {Data: []byte("3")},
			}}
			d := NewDownloader(f, t.TempDir(), 1000, shared.NewLogger(&bytes.Buffer{}))
			if d.limiter == nil {
				t.Fatal("expected limiter")
			}

			res := d.DownloadAll(ctx, records, KindVideos, nil)
			if len(res.Saved) != 3 {
				t.Errorf("expected 3 saved, got %d", len(res.Saved))
			}
		})

		t.Run("Against the remote API", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			api.Blobs["1"] = tu.FakeBlob{Data: []byte("video"), ContentType: "video/mp4"}
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: api.Token, TokenType: "Bearer"})
			client := services.NewClient(api.URL(), ts, nil)

			res := newDownloader(client, t.TempDir()).DownloadAll(ctx, records, KindVideos, nil)
			if len(res.Saved) != 1 || len(res.Failures) != 2 {
				t.Errorf("expected 1 saved and 2 failures, got %+v", res)
			}
			if got := len(api.RequestsTo("/files/")); got != 3 {
				t.Errorf("expected exactly one request per record, got %d", got)
			}
		})
	})
}
