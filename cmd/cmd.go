// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes the config template and initializes the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("POSEUP_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("POSEUP_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session and API base URL",
				Action: r.AuthStatus,
			},
		},
	}
}

// uploadCommand submits files for analysis
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload videos for pose analysis",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "mode",
				Aliases:  []string{"m"},
				Usage:    "Analysis mode (wholebody or pose3d)",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Aliases: []string{"b"},
				Usage:   "Files per request (defaults to upload.batch_size)",
			},
		},
		Action: r.Upload,
	}
}

// filesCommand handles processed file records
func filesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "files",
		Aliases: []string{"analysis"},
		Usage:   "List and download analysis results",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List processed files",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Export the listing to a CSV file",
					},
				},
				Action: r.FilesList,
			},
			{
				Name:  "download",
				Usage: "Download one video or JSON result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Resource ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "File name to save as (defaults to the ID)",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Resource kind used to pick an extension (videos or jsons)",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Destination directory (defaults to downloads.dir)",
					},
				},
				Action: r.FilesDownload,
			},
			{
				Name:  "download-all",
				Usage: "Download every video or JSON result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "Resource kind (videos or jsons)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Destination directory (defaults to downloads.dir)",
					},
				},
				Action: r.FilesDownloadAll,
			},
		},
	}
}

// videosCommand handles the videos collection
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "videos",
		Usage: "List and play uploaded videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent videos",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosList,
			},
			{
				Name:  "play",
				Usage: "Stream a video and open it in the default player",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.VideosPlay,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive TUI, preselecting FILE... for upload",
		ArgsUsage: "[FILE...]",
		Action:    r.TUI,
	}
}
