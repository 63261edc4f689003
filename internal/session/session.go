// Package session owns the client's authenticated identity.
//
// A [Session] is created on login and destroyed on logout, both through the [Manager], which is the only writer.
// Networked components receive the Manager (as a [Provider]) explicitly and read a snapshot per request through
// [TokenSource].
package session

import (
	"errors"
	"fmt"

	"github.com/desertthunder/poseup/internal/repositories"
)

// Storage keys for the persisted session.
const (
	TokenKey    = "access_token"
	UsernameKey = "username"
)

// Session is the current bearer credential and display identity.
type Session struct {
	Token    string
	Username string
}

// Authenticated reports whether a credential is present.
func (s Session) Authenticated() bool { return s.Token != "" }

// Provider exposes the current session to readers.
type Provider interface {
	Current() Session
}

// Store persists a [Session] across runs in the settings table.
type Store struct {
	repo *repositories.SettingsRepository
}

// NewStore creates a [Store] over the given settings repository.
func NewStore(repo *repositories.SettingsRepository) *Store {
	return &Store{repo: repo}
}

// Load returns the persisted session, or the zero Session when none is stored.
func (s *Store) Load() (Session, error) {
	token, err := s.repo.Get(TokenKey)
	if errors.Is(err, repositories.ErrSettingNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	username, err := s.repo.Get(UsernameKey)
	if err != nil && !errors.Is(err, repositories.ErrSettingNotFound) {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	return Session{Token: token, Username: username}, nil
}

// Save persists sess, replacing any stored session.
func (s *Store) Save(sess Session) error {
	return s.repo.SetMany(map[string]string{
		TokenKey:    sess.Token,
		UsernameKey: sess.Username,
	})
}

// Clear removes the persisted session.
func (s *Store) Clear() error {
	return s.repo.Delete(TokenKey, UsernameKey)
}
