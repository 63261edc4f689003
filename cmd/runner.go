package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/session"
	"github.com/desertthunder/poseup/internal/shared"
	"github.com/desertthunder/poseup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	store      session.Persister
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       func(string) error

	sessions   *session.Manager
	client     *services.Client
	uploads    *tasks.UploadController
	downloader *tasks.Downloader
	player     *tasks.Player
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      session.Persister
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Open       func(string) error
}

// NewRunner creates a new Runner with the provided configuration and restores the stored session.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: session store", shared.ErrMissingConfig)
	}
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Open == nil {
		opts.Open = shared.OpenExternal
	}

	r := &Runner{
		config:     opts.Config,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
	}
	if err := r.wire(); err != nil {
		return nil, err
	}
	return r, nil
}

// wire builds the session manager, the transfer client and the task controllers around r.logger.
func (r *Runner) wire() error {
	sessions, err := session.NewManager(r.store, nil, r.logger)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	client := services.NewClient(r.config.API.BaseURL, session.TokenSource{Provider: sessions}, r.httpClient)
	sessions.SetAuthenticator(client)

	r.sessions = sessions
	r.client = client
	r.uploads = tasks.NewUploadController(client, r.config.Upload.BatchSize, r.logger)
	r.downloader = tasks.NewDownloader(client, r.config.Downloads.Dir, r.config.Downloads.RateLimit, r.logger)
	r.player = tasks.NewPlayer(client, "", r.logger)
	return nil
}

// SetLogger replaces the logger and rebuilds every component that logs through it.
func (r *Runner) SetLogger(l *log.Logger) error {
	r.logger = l
	return r.wire()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, uploadCommand, filesCommand, videosCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
