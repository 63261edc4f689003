package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/repositories"
	"github.com/desertthunder/poseup/internal/shared"
)

type fakeAuth struct {
	loginCalls  int
	signupCalls int
	loginResp   *models.AuthResponse
	signupResp  *models.SignupResponse
	err         error
	gotEmail    string
	gotUsername string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	f.loginCalls++
	f.gotEmail = email
	return f.loginResp, f.err
}

func (f *fakeAuth) Signup(ctx context.Context, username, email, password string) (*models.SignupResponse, error) {
	f.signupCalls++
	f.gotUsername = username
	f.gotEmail = email
	return f.signupResp, f.err
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(repositories.NewSettingsRepository(db))
}

func newTestManager(t *testing.T, auth Authenticator) (*Manager, *Store) {
	t.Helper()
	store := newTestStore(t)
	m, err := NewManager(store, auth, shared.NewLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m, store
}

func TestStore(t *testing.T) {
	t.Run("Load without stored session", func(t *testing.T) {
		store := newTestStore(t)

		sess, err := store.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.Authenticated() {
			t.Errorf("expected empty session, got %+v", sess)
		}
	})

	t.Run("Save then Load", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.Save(Session{Token: "tok", Username: "ana"}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		sess, err := store.Load()
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if sess.Token != "tok" || sess.Username != "ana" {
			t.Errorf("unexpected session: %+v", sess)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := newTestStore(t)
		_ = store.Save(Session{Token: "tok", Username: "ana"})

		if err := store.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		sess, _ := store.Load()
		if sess.Authenticated() || sess.Username != "" {
			t.Errorf("expected cleared session, got %+v", sess)
		}
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("restores persisted session", func(t *testing.T) {
		store := newTestStore(t)
		_ = store.Save(Session{Token: "tok", Username: "ana"})

		m, err := NewManager(store, nil, shared.NewLogger(&bytes.Buffer{}))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if !m.Authenticated() {
			t.Error("expected restored session to be authenticated")
		}
		if m.Current().Username != "ana" {
			t.Errorf("expected username ana, got %s", m.Current().Username)
		}
	})

	t.Run("Login persists credential", func(t *testing.T) {
		auth := &fakeAuth{loginResp: &models.AuthResponse{AccessToken: "tok-1", Username: "ana"}}
		m, store := newTestManager(t, auth)

		sess, err := m.Login(ctx, "  Ana@Example.COM ", "secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.Token != "tok-1" {
			t.Errorf("expected tok-1, got %s", sess.Token)
		}
		if auth.gotEmail != "ana@example.com" {
			t.Errorf("expected normalized email, got %q", auth.gotEmail)
		}

		stored, _ := store.Load()
		if stored.Token != "tok-1" || stored.Username != "ana" {
			t.Errorf("expected persisted session, got %+v", stored)
		}
	})

	t.Run("Login rejects invalid form without network call", func(t *testing.T) {
		auth := &fakeAuth{}
		m, _ := newTestManager(t, auth)

		_, err := m.Login(ctx, "not-an-email", "secret")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		_, err = m.Login(ctx, "ana@example.com", "")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty password, got %v", err)
		}

		if auth.loginCalls != 0 {
			t.Errorf("expected no remote calls, got %d", auth.loginCalls)
		}
	})

	t.Run("failed Login leaves session unchanged", func(t *testing.T) {
		auth := &fakeAuth{err: errors.New("Login failed: Invalid credentials")}
		m, store := newTestManager(t, auth)
		_ = store.Save(Session{Token: "old", Username: "ana"})
		m, _ = NewManager(store, auth, shared.NewLogger(&bytes.Buffer{}))

		if _, err := m.Login(ctx, "ana@example.com", "wrong"); err == nil {
			t.Fatal("expected error")
		}
		if m.Current().Token != "old" {
			t.Errorf("expected previous token to remain, got %s", m.Current().Token)
		}
	})

	t.Run("Login without authenticator", func(t *testing.T) {
		m, _ := newTestManager(t, nil)

		_, err := m.Login(ctx, "ana@example.com", "secret")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Signup returns server message", func(t *testing.T) {
		auth := &fakeAuth{signupResp: &models.SignupResponse{Message: "Welcome aboard"}}
		m, _ := newTestManager(t, auth)

		msg, err := m.Signup(ctx, "  ana ", "ana@example.com", "secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Welcome aboard" {
			t.Errorf("expected server message, got %q", msg)
		}
		if auth.gotUsername != "ana" {
			t.Errorf("expected trimmed username, got %q", auth.gotUsername)
		}
		if m.Authenticated() {
			t.Error("sign up must not log in")
		}
	})

	t.Run("Signup falls back to default message", func(t *testing.T) {
		auth := &fakeAuth{signupResp: &models.SignupResponse{}}
		m, _ := newTestManager(t, auth)

		msg, err := m.Signup(ctx, "ana", "ana@example.com", "secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != DefaultSignupMessage {
			t.Errorf("expected %q, got %q", DefaultSignupMessage, msg)
		}
	})

	t.Run("Signup rejects missing username", func(t *testing.T) {
		auth := &fakeAuth{}
		m, _ := newTestManager(t, auth)

		_, err := m.Signup(ctx, "   ", "ana@example.com", "secret")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if auth.signupCalls != 0 {
			t.Errorf("expected no remote calls, got %d", auth.signupCalls)
		}
	})

	t.Run("Logout clears session", func(t *testing.T) {
		auth := &fakeAuth{loginResp: &models.AuthResponse{AccessToken: "tok", Username: "ana"}}
		m, store := newTestManager(t, auth)
		if _, err := m.Login(ctx, "ana@example.com", "secret"); err != nil {
			t.Fatalf("failed to login: %v", err)
		}

		if err := m.Logout(); err != nil {
			t.Fatalf("failed to logout: %v", err)
		}
		if m.Authenticated() {
			t.Error("expected unauthenticated after logout")
		}
		if err := m.Require(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		stored, _ := store.Load()
		if stored.Authenticated() {
			t.Errorf("expected persisted session to be cleared, got %+v", stored)
		}
	})
}

func TestTokenSource(t *testing.T) {
	t.Run("reads current session per call", func(t *testing.T) {
		auth := &fakeAuth{loginResp: &models.AuthResponse{AccessToken: "tok-1", Username: "ana"}}
		m, _ := newTestManager(t, auth)
		ts := TokenSource{Provider: m}

		tok, err := ts.Token()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "" {
			t.Errorf("expected empty token before login, got %q", tok.AccessToken)
		}

		_, _ = m.Login(context.Background(), "ana@example.com", "secret")
		tok, _ = ts.Token()
		if tok.AccessToken != "tok-1" {
			t.Errorf("expected tok-1, got %q", tok.AccessToken)
		}
		if tok.Type() != "Bearer" {
			t.Errorf("expected Bearer type, got %s", tok.Type())
		}
	})

	t.Run("nil provider", func(t *testing.T) {
		tok, err := TokenSource{}.Token()
		if err != nil || tok.AccessToken != "" {
			t.Errorf("expected empty token, got %v %v", tok, err)
		}
	})
}
