package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/oauth2"
)

// Client performs the remote API calls and normalizes their failures into [*TransferError].
//
// Calls made through the authenticated client carry the bearer credential from the configured
// [oauth2.TokenSource]. There are no retries and no client-side timeout.
type Client struct {
	baseURL string
	authed  *http.Client
	anon    *http.Client
}

// NewClient creates a [Client] for baseURL.
//
// base supplies the transport and defaults to [http.DefaultClient]. A nil ts attaches an empty credential, which the
// remote side rejects.
func NewClient(baseURL string, ts oauth2.TokenSource, base *http.Client) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	if ts == nil {
		ts = oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Bearer"})
	}

	authed := &http.Client{
		Transport:     &oauth2.Transport{Source: ts, Base: base.Transport},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		authed:  authed,
		anon:    base,
	}
}

// BaseURL returns the resolved API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Blob is an in-memory binary payload and its declared content type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Release drops the buffer. The blob must not be used afterwards.
func (b *Blob) Release() {
	if b != nil {
		b.Data = nil
	}
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// FormField is a plain multipart field.
type FormField struct {
	Name  string
	Value string
}

// FilePart is a multipart file payload read from Path and sent as FileName.
type FilePart struct {
	Field    string
	Path     string
	FileName string
}

// FetchJSON issues an authenticated GET and decodes the body into out.
func (c *Client) FetchJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransferError{Op: http.MethodGet, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	_, body, err := c.send(c.authed, req, path)
	if err != nil {
		return err
	}
	return decodeBody(http.MethodGet, path, body, out)
}

// FetchBinary issues an authenticated GET and buffers the body in memory.
//
// The caller owns the returned [Blob] and must release it.
func (c *Client) FetchBinary(ctx context.Context, path string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransferError{Op: http.MethodGet, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, body, err := c.send(c.authed, req, path)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}
	return &Blob{Data: body, ContentType: contentType}, nil
}

// PostMultipart issues an authenticated multipart POST and decodes the acknowledgement into out.
//
// Every file is opened before the request starts, so an unreadable file fails the call without any network
// traffic. File contents are streamed from disk. Each part's Content-Type is sniffed from its leading bytes.
func (c *Client) PostMultipart(ctx context.Context, path string, fields []FormField, files []FilePart, out any) error {
	opened := make([]openPart, 0, len(files))
	closeAll := func() {
		for _, p := range opened {
			p.file.Close()
		}
	}

	for _, fp := range files {
		part, err := openFilePart(fp)
		if err != nil {
			closeAll()
			return &TransferError{Op: http.MethodPost, Path: path, Err: err}
		}
		opened = append(opened, part)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer closeAll()
		pw.CloseWithError(writeMultipart(mw, fields, opened))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		pr.CloseWithError(err)
		return &TransferError{Op: http.MethodPost, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	_, body, err := c.send(c.authed, req, path)
	if err != nil {
		return err
	}
	return decodeBody(http.MethodPost, path, body, out)
}

// PostJSON issues an unauthenticated JSON POST and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &TransferError{Op: http.MethodPost, Path: path, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &TransferError{Op: http.MethodPost, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	_, body, err := c.send(c.anon, req, path)
	if err != nil {
		return err
	}
	return decodeBody(http.MethodPost, path, body, out)
}

// send performs req and reads the full body. Non-2xx statuses become a [*TransferError] carrying the body's detail.
func (c *Client) send(hc *http.Client, req *http.Request, path string) (*http.Response, []byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, &TransferError{Op: req.Method, Path: path, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &TransferError{
			Op:         req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &TransferError{
			Op:         req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return resp, body, nil
}

// decodeBody unmarshals body into out. An empty body leaves out untouched.
func decodeBody(method, path string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransferError{Op: method, Path: path, Err: fmt.Errorf("malformed response body: %w", err)}
	}
	return nil
}

type openPart struct {
	FilePart
	file        *os.File
	contentType string
}

func openFilePart(fp FilePart) (openPart, error) {
	f, err := os.Open(fp.Path)
	if err != nil {
		return openPart{}, fmt.Errorf("failed to open %s: %w", fp.Path, err)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return openPart{}, fmt.Errorf("failed to read %s: %w", fp.Path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return openPart{}, fmt.Errorf("failed to rewind %s: %w", fp.Path, err)
	}

	if fp.Field == "" {
		fp.Field = "file"
	}
	if fp.FileName == "" {
		fp.FileName = filepath.Base(fp.Path)
	}
	return openPart{FilePart: fp, file: f, contentType: mtype.String()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeMultipart(mw *multipart.Writer, fields []FormField, parts []openPart) error {
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.Field), quoteEscaper.Replace(p.FileName)))
		h.Set("Content-Type", p.contentType)

		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, p.file); err != nil {
			return fmt.Errorf("failed to stream %s: %w", p.Path, err)
		}
	}

	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	return mw.Close()
}
