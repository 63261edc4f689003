package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/shared"
)

// DefaultSignupMessage is shown when the server acknowledges a sign-up without a message.
const DefaultSignupMessage = "Sign up successful!"

// Authenticator performs the remote auth calls.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signup(ctx context.Context, username, email, password string) (*models.SignupResponse, error)
}

// Persister is the durable side of the session. [*Store] implements it.
type Persister interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Manager is the single authority over the session lifecycle.
type Manager struct {
	mu      sync.RWMutex
	current Session
	store   Persister
	auth    Authenticator
	logger  *log.Logger
}

// NewManager loads the persisted session from store and returns a Manager for it.
func NewManager(store Persister, auth Authenticator, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	sess, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Manager{current: sess, store: store, auth: auth, logger: logger}, nil
}

// SetAuthenticator wires the remote auth client after construction.
//
// The Transfer Client reads credentials from the Manager, so the two are built in two steps.
func (m *Manager) SetAuthenticator(auth Authenticator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = auth
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Authenticated reports whether protected views and commands are available.
func (m *Manager) Authenticated() bool {
	return m.Current().Authenticated()
}

// Login validates the form, authenticates against the remote API and persists the returned credential.
//
// On any failure the session is left unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	form := models.LoginForm{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}
	if err := shared.ValidateStruct(form); err != nil {
		return Session{}, err
	}

	auth := m.authenticator()
	if auth == nil {
		return Session{}, fmt.Errorf("%w: no authenticator configured", shared.ErrServiceUnavailable)
	}

	resp, err := auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		m.logger.Warn("login failed", "email", form.Email, "error", err)
		return Session{}, err
	}

	sess := Session{Token: resp.AccessToken, Username: resp.Username}
	if err := m.store.Save(sess); err != nil {
		return Session{}, fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Info("logged in", "username", sess.Username)
	return sess, nil
}

// Signup registers a new account and returns the server's message. It does not log in.
func (m *Manager) Signup(ctx context.Context, username, email, password string) (string, error) {
	form := models.SignupForm{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := shared.ValidateStruct(form); err != nil {
		return "", err
	}

	auth := m.authenticator()
	if auth == nil {
		return "", fmt.Errorf("%w: no authenticator configured", shared.ErrServiceUnavailable)
	}

	resp, err := auth.Signup(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		m.logger.Warn("sign up failed", "username", form.Username, "error", err)
		return "", err
	}

	if resp == nil || resp.Message == "" {
		return DefaultSignupMessage, nil
	}
	return resp.Message, nil
}

// Logout destroys the session, both persisted and in memory.
func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	m.logger.Info("logged out")
	return nil
}

// Require returns [shared.ErrNotAuthenticated] when no credential is present.
func (m *Manager) Require() error {
	if !m.Authenticated() {
		return fmt.Errorf("%w: run 'poseup auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (m *Manager) authenticator() Authenticator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auth
}
