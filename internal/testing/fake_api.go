package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/gorilla/mux"
)

// RecordedRequest is what [FakeAPI] saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Mode          string
	Files         []string
	ContentTypes  []string
}

// FakeBlob is a binary resource served by [FakeAPI].
type FakeBlob struct {
	Data        []byte
	ContentType string
}

// FakeAPI is an in-process stand-in for the remote analysis API.
//
// Protected routes require "Bearer <Token>". Every request is recorded in arrival order.
type FakeAPI struct {
	Server *httptest.Server

	Email    string
	Password string
	Username string
	Token    string

	Records []models.RemoteFileRecord
	Videos  []models.VideoRecord
	Blobs   map[string]FakeBlob

	// UploadFailures maps a 1-based upload count to the detail returned for it with status 400.
	UploadFailures map[int]string

	mu       sync.Mutex
	requests []RecordedRequest
	uploads  int
}

// NewFakeAPI starts a [FakeAPI] with one known account and closes it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		Email:          "ana@example.com",
		Password:       "secret",
		Username:       "ana",
		Token:          "tok-ana",
		Blobs:          make(map[string]FakeBlob),
		UploadFailures: make(map[int]string),
	}

	r := mux.NewRouter()
	r.Use(f.record)
	r.HandleFunc("/auth/login/", f.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup/", f.signup).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(f.requireToken)
	protected.HandleFunc("/files/", f.listFiles).Methods(http.MethodGet)
	protected.HandleFunc("/videoFiles/", f.listVideos).Methods(http.MethodGet)
	protected.HandleFunc("/files/{id}", f.blob).Methods(http.MethodGet)
	protected.HandleFunc("/stream_video/{id}", f.blob).Methods(http.MethodGet)
	protected.HandleFunc("/process3toDB/", f.process).Methods(http.MethodPost)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake server.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Requests returns a copy of every recorded request.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsTo returns the recorded requests whose path starts with prefix.
func (f *FakeAPI) RequestsTo(prefix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err == nil {
				rec.Mode = r.FormValue("mode")
				for _, fh := range r.MultipartForm.File["file"] {
					rec.Files = append(rec.Files, fh.Filename)
					rec.ContentTypes = append(rec.ContentTypes, fh.Header.Get("Content-Type"))
				}
			}
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}

	if body.Email != f.Email || body.Password != f.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": f.Token, "username": f.Username})
}

func (f *FakeAPI) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}

	if body.Username == f.Username || body.Email == f.Email {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Username or email already registered"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User created successfully"})
}

func (f *FakeAPI) listFiles(w http.ResponseWriter, r *http.Request) {
	records := f.Records
	if records == nil {
		records = []models.RemoteFileRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (f *FakeAPI) listVideos(w http.ResponseWriter, r *http.Request) {
	videos := f.Videos
	if videos == nil {
		videos = []models.VideoRecord{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (f *FakeAPI) blob(w http.ResponseWriter, r *http.Request) {
	b, ok := f.Blobs[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "File not found"})
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(b.Data)
}

func (f *FakeAPI) process(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.uploads++
	n := f.uploads
	detail, fail := f.UploadFailures[n]
	f.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": detail})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Processed", "batch": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
