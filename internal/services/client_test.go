package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
	tu "github.com/desertthunder/poseup/internal/testing"
	"golang.org/x/oauth2"
)

func staticToken(tok string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Trims trailing slash", func(t *testing.T) {
			c := NewClient("http://example.com/", nil, nil)
			if c.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed base URL, got %s", c.BaseURL())
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			c := NewClient("http://example.com", nil, nil)
			if c.anon != http.DefaultClient {
				t.Error("expected http.DefaultClient for unauthenticated calls")
			}
		})
	})

	t.Run("FetchJSON", func(t *testing.T) {
		t.Run("Attaches bearer credential", func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.Write([]byte(`[{"video_id": 1}]`))
			}))
			defer server.Close()

			c := NewClient(server.URL, staticToken("tok"), nil)
			var out []models.VideoRecord
			if err := c.FetchJSON(ctx, "/videoFiles/", &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotAuth != "Bearer tok" {
				t.Errorf("expected 'Bearer tok', got %q", gotAuth)
			}
			if len(out) != 1 || out[0].VideoID != "1" {
				t.Errorf("unexpected body: %+v", out)
			}
		})

		t.Run("Missing credential is still sent", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), staticToken(""), nil)

			_, err := c.ListRecords(ctx)
			if err == nil {
				t.Fatal("expected remote rejection")
			}

			reqs := api.RequestsTo(FilesPath)
			if len(reqs) != 1 {
				t.Fatalf("expected the call to be attempted once, got %d", len(reqs))
			}

			var te *TransferError
			if !errors.As(err, &te) || te.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401 TransferError, got %v", err)
			}
			if DetailOf(err) != "Not authenticated" {
				t.Errorf("expected server detail, got %q", DetailOf(err))
			}
		})

		t.Run("Malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			}))
			defer server.Close()

			c := NewClient(server.URL, staticToken("tok"), nil)
			var out []models.RemoteFileRecord
			err := c.FetchJSON(ctx, FilesPath, &out)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "malformed response body") {
				t.Errorf("expected malformed body error, got %v", err)
			}
			if DetailOf(err) != UnknownDetail {
				t.Errorf("expected generic detail, got %q", DetailOf(err))
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			c := NewClient("http://example.com", staticToken("tok"), client)

			err := c.FetchJSON(ctx, FilesPath, nil)
			if err == nil {
				t.Fatal("expected error for failed request")
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
			if DetailOf(err) != UnknownDetail {
				t.Errorf("expected generic detail, got %q", DetailOf(err))
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)
			c := NewClient("http://example.com", staticToken("tok"), &http.Client{Transport: rt})

			err := c.FetchJSON(ctx, FilesPath, nil)
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}

			req := rt.LastRequest()
			if req == nil {
				t.Fatal("expected the request to reach the transport")
			}
			if got := req.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("expected bearer token header, got %q", got)
			}
			if req.URL.Path != FilesPath {
				t.Errorf("expected path %s, got %s", FilesPath, req.URL.Path)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			c := NewClient("http://example.com", nil, nil)
			err := c.FetchJSON(ctx, "/test\x00invalid", nil)
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})
	})

	t.Run("FetchBinary", func(t *testing.T) {
		t.Run("Returns bytes and content type", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			api.Blobs["7"] = tu.FakeBlob{Data: []byte("video-bytes"), ContentType: "video/mp4"}
			c := NewClient(api.URL(), staticToken(api.Token), nil)

			blob, err := c.FetchBinary(ctx, FileResource("7"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(blob.Data) != "video-bytes" {
				t.Errorf("unexpected data %q", blob.Data)
			}
			if blob.ContentType != "video/mp4" {
				t.Errorf("expected video/mp4, got %s", blob.ContentType)
			}

			blob.Release()
			if blob.Size() != 0 {
				t.Error("expected released blob to be empty")
			}
		})

		t.Run("Not found carries detail", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), staticToken(api.Token), nil)

			_, err := c.FetchBinary(ctx, StreamResource("missing"))
			if DetailOf(err) != "File not found" {
				t.Errorf("expected 'File not found', got %q (%v)", DetailOf(err), err)
			}
		})
	})

	t.Run("PostMultipart", func(t *testing.T) {
		t.Run("Unreadable file fails before any request", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), staticToken(api.Token), nil)

			parts := []FilePart{{Path: filepath.Join(t.TempDir(), "missing.mp4")}}
			err := c.PostMultipart(ctx, ProcessPath, nil, parts, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected TransferError, got %v", err)
			}
			if len(api.Requests()) != 0 {
				t.Errorf("expected no requests, got %d", len(api.Requests()))
			}
		})

		t.Run("Streams parts with sniffed content type", func(t *testing.T) {
			var gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("failed to parse multipart: %v", err)
				}
				fh := r.MultipartForm.File["upload"][0]
				if fh.Filename != "clip.json" {
					t.Errorf("expected filename clip.json, got %s", fh.Filename)
				}
				if !strings.HasPrefix(fh.Header.Get("Content-Type"), "application/json") {
					t.Errorf("expected sniffed json content type, got %s", fh.Header.Get("Content-Type"))
				}
				f, _ := fh.Open()
				data, _ := io.ReadAll(f)
				gotBody = string(data)
				w.Write([]byte(`{"message": "ok"}`))
			}))
			defer server.Close()

			path := tu.MustWriteFile(t, t.TempDir(), "clip.json", []byte(`{"frames": []}`))
			c := NewClient(server.URL, staticToken("tok"), nil)

			var ack models.UploadAck
			err := c.PostMultipart(ctx, ProcessPath, nil, []FilePart{{Field: "upload", Path: path}}, &ack)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotBody != `{"frames": []}` {
				t.Errorf("unexpected part body %q", gotBody)
			}
			if ack.Message != "ok" {
				t.Errorf("expected ack message ok, got %q", ack.Message)
			}
		})
	})
}

func TestEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("ListRecords", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Records = []models.RemoteFileRecord{
			{OriginalName: "a.mp4", ProcessedName: "a_out.mp4", VideoID: "1", JSONID: "2"},
		}
		c := NewClient(api.URL(), staticToken(api.Token), nil)

		records, err := c.ListRecords(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].ProcessedName != "a_out.mp4" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("ListVideos", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Videos = []models.VideoRecord{{VideoID: "1"}, {VideoID: "2"}}
		c := NewClient(api.URL(), staticToken(api.Token), nil)

		videos, err := c.ListVideos(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 2 {
			t.Errorf("expected 2 videos, got %d", len(videos))
		}
	})

	t.Run("Resource paths", func(t *testing.T) {
		if got := FileResource("a b"); got != "/files/a%20b" {
			t.Errorf("unexpected file path %s", got)
		}
		if got := StreamResource("9"); got != "/stream_video/9" {
			t.Errorf("unexpected stream path %s", got)
		}
	})

	t.Run("ProcessBatch", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		c := NewClient(api.URL(), staticToken(api.Token), nil)
		dir := t.TempDir()
		batch := []models.SelectedFile{
			models.NewSelectedFile(tu.MustWriteFile(t, dir, "a.mp4", []byte("aaaa"))),
			models.NewSelectedFile(tu.MustWriteFile(t, dir, "b.mp4", []byte("bbbb"))),
		}

		ack, err := c.ProcessBatch(ctx, batch, models.ModePose3D)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ack.Message != "Processed" || len(ack.Raw) == 0 {
			t.Errorf("unexpected ack: %+v", ack)
		}

		reqs := api.RequestsTo(ProcessPath)
		if len(reqs) != 1 {
			t.Fatalf("expected 1 upload request, got %d", len(reqs))
		}
		if reqs[0].Mode != models.ModePose3D {
			t.Errorf("expected mode pose3d, got %q", reqs[0].Mode)
		}
		if strings.Join(reqs[0].Files, ",") != "a.mp4,b.mp4" {
			t.Errorf("expected ordered file parts, got %v", reqs[0].Files)
		}
		if reqs[0].Authorization != "Bearer "+api.Token {
			t.Errorf("expected bearer header, got %q", reqs[0].Authorization)
		}
	})

	t.Run("ProcessBatch failure detail", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.UploadFailures[1] = "unsupported format"
		c := NewClient(api.URL(), staticToken(api.Token), nil)
		path := tu.MustWriteFile(t, t.TempDir(), "a.avi", []byte("xx"))

		_, err := c.ProcessBatch(ctx, []models.SelectedFile{models.NewSelectedFile(path)}, models.ModeWholeBody)
		if DetailOf(err) != "unsupported format" {
			t.Errorf("expected 'unsupported format', got %q", DetailOf(err))
		}
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), staticToken("stale"), nil)

			resp, err := c.Login(ctx, api.Email, api.Password)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.AccessToken != api.Token || resp.Username != api.Username {
				t.Errorf("unexpected response: %+v", resp)
			}
			if auth := api.RequestsTo(LoginPath)[0].Authorization; auth != "" {
				t.Errorf("expected no authorization on login, got %q", auth)
			}
		})

		t.Run("Invalid credentials", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), nil, nil)

			_, err := c.Login(ctx, api.Email, "wrong")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if err.Error() != "Login failed: Invalid credentials" {
				t.Errorf("unexpected message %q", err.Error())
			}
		})

		t.Run("Missing token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"username": "ana"}`))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, nil, nil).Login(ctx, "ana@example.com", "secret")
			if err == nil || err.Error() != "Login failed: Unknown error" {
				t.Errorf("expected generic login failure, got %v", err)
			}
		})
	})

	t.Run("Signup", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), nil, nil)

			resp, err := c.Signup(ctx, "bea", "bea@example.com", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Message == "" {
				t.Error("expected server message")
			}
		})

		t.Run("Conflict", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			c := NewClient(api.URL(), nil, nil)

			_, err := c.Signup(ctx, api.Username, "other@example.com", "pw")
			if err == nil || !strings.HasPrefix(err.Error(), "Sign up failed: ") {
				t.Errorf("expected sign up failure, got %v", err)
			}
		})
	})
}
