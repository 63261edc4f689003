package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for an access token and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.sessions.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s\n", sess.Username)
}

// AuthSignup creates an account. It does not log in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	message, err := r.sessions.Signup(ctx, cmd.String("username"), cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	r.writePlain("✓ %s\n", message)
	return r.writePlain("Run 'poseup auth login' to continue\n")
}

// AuthLogout discards the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether a session is stored. It makes no network call.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("API: %s\n", r.client.BaseURL())

	sess := r.sessions.Current()
	if !sess.Authenticated() {
		return r.writePlain("Session: ✗ Not logged in\n")
	}
	return r.writePlain("Session: ✓ Logged in as %s\n", sess.Username)
}
