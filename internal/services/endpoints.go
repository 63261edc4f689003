package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/desertthunder/poseup/internal/models"
)

// Remote API paths.
const (
	LoginPath   = "/auth/login/"
	SignupPath  = "/auth/signup/"
	FilesPath   = "/files/"
	VideosPath  = "/videoFiles/"
	ProcessPath = "/process3toDB/"
)

// FileResource returns the download path for a resource id.
func FileResource(id models.ResourceID) string {
	return "/files/" + url.PathEscape(id.String())
}

// StreamResource returns the streaming path for a video id.
func StreamResource(id models.ResourceID) string {
	return "/stream_video/" + url.PathEscape(id.String())
}

// ListRecords fetches the analysis records of the current user.
func (c *Client) ListRecords(ctx context.Context) ([]models.RemoteFileRecord, error) {
	var records []models.RemoteFileRecord
	if err := c.FetchJSON(ctx, FilesPath, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListVideos fetches the uploaded videos of the current user.
func (c *Client) ListVideos(ctx context.Context) ([]models.VideoRecord, error) {
	var videos []models.VideoRecord
	if err := c.FetchJSON(ctx, VideosPath, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// ProcessBatch submits one batch for analysis in mode.
//
// Each file becomes a "file" part, followed by the "mode" field.
func (c *Client) ProcessBatch(ctx context.Context, batch []models.SelectedFile, mode string) (*models.UploadAck, error) {
	parts := make([]FilePart, len(batch))
	for i, f := range batch {
		parts[i] = FilePart{Field: "file", Path: f.Path, FileName: f.Name}
	}

	var ack models.UploadAck
	fields := []FormField{{Name: "mode", Value: mode}}
	if err := c.PostMultipart(ctx, ProcessPath, fields, parts, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp models.AuthResponse
	if err := c.PostJSON(ctx, LoginPath, payload, &resp); err != nil {
		return nil, authError(OpLogin, err)
	}
	if resp.AccessToken == "" {
		return nil, &AuthError{Op: OpLogin, Err: errors.New("response carried no access token")}
	}
	return &resp, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*models.SignupResponse, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}

	var resp models.SignupResponse
	if err := c.PostJSON(ctx, SignupPath, payload, &resp); err != nil {
		return nil, authError(OpSignup, err)
	}
	return &resp, nil
}

func authError(op string, err error) error {
	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		return &AuthError{Op: op, Detail: transferErr.Detail, Err: err}
	}
	return &AuthError{Op: op, Err: fmt.Errorf("%s request failed: %w", op, err)}
}
