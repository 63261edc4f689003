package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/poseup/internal/shared"
)

// UnknownDetail is the placeholder shown when a failure carries no server detail.
const UnknownDetail = "Unknown error"

// Auth operations reported by [AuthError].
const (
	OpLogin  = "login"
	OpSignup = "signup"
)

// TransferError is the single failure shape of the Transfer Client.
//
// It covers transport failures, non-success statuses, malformed bodies and unreadable local files.
type TransferError struct {
	Op         string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransferError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed", e.Op, e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Detail != "":
		b.WriteString(": " + e.Detail)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *TransferError) Unwrap() error { return e.Err }

// Is matches [shared.ErrAPIRequest].
func (e *TransferError) Is(target error) bool { return target == shared.ErrAPIRequest }

// Message returns the user-facing detail.
func (e *TransferError) Message() string {
	if e.Detail == "" {
		return UnknownDetail
	}
	return e.Detail
}

// AuthError reports a rejected login or sign-up.
type AuthError struct {
	Op     string
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Op == OpSignup {
		return "Sign up failed: " + e.Message()
	}
	return "Login failed: " + e.Message()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches [shared.ErrAuthFailed].
func (e *AuthError) Is(target error) bool { return target == shared.ErrAuthFailed }

// Message returns the server detail or [UnknownDetail].
func (e *AuthError) Message() string {
	if e.Detail == "" {
		return UnknownDetail
	}
	return e.Detail
}

// DetailOf extracts the user-facing detail from err.
//
// Typed client errors yield their server detail. Validation errors yield their message. Anything else yields
// [UnknownDetail].
func DetailOf(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message()
	}

	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		return transferErr.Message()
	}

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	return UnknownDetail
}

// parseDetail reads the detail member of an error body.
//
// Strings are returned as-is. Other JSON values are compact-encoded. Bodies that aren't JSON objects yield "".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	if bytes.Equal(payload.Detail, []byte("null")) {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, payload.Detail); err != nil {
		return ""
	}
	return buf.String()
}
