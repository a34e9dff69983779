// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is attached to every command that reads config.toml.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for configuration, database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a starter config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the catalog database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for the headers file",
						Value:   "browser.json",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// scanCommand reconciles the catalog against the source library.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Reconcile the local catalog against the YouTube Music library",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Refetch every playlist regardless of staleness",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent fetch workers (max 10)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Snapshot output path ('-' disables the export)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Scan,
	}
}

// dedupeCommand removes duplicate entries within one playlist.
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dedupe",
		Usage: "Remove duplicate tracks within a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report duplicates without removing anything",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Dedupe,
	}
}

// duplicatesCommand reports tracks appearing in more than one playlist.
func duplicatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "duplicates",
		Usage: "List tracks that appear in more than one playlist",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Duplicates,
	}
}

// syncCommand mirrors a playlist onto the other service.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a playlist to Spotify",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "target-title",
				Usage: "Target playlist title (default: source title)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Tracks per add request (max 100)",
			},
			&cli.FloatFlag{
				Name:  "min-confidence",
				Usage: "Minimum match score to accept (0..1)",
			},
			&cli.BoolFlag{
				Name:  "from-target",
				Usage: "Reverse direction: sync from Spotify to YouTube Music",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match and report without writing to the target",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a Markdown report of missing tracks to this path",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sync,
	}
}

// sortCommand creates a sorted copy of a playlist.
func sortCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "Create a copy of a playlist sorted by artist, then title",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sort,
	}
}

// restoreCommand recreates playlists from a library snapshot.
func restoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Recreate playlists from a library snapshot",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Snapshot file to restore from (default: config snapshot path)",
			},
			&cli.StringSliceFlag{
				Name:  "only",
				Usage: "Restore only the named playlists (ID or title, repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Restore,
	}
}

// searchCommand queries the catalog's full-text index.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search cached tracks by title, artist or album",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// artistsCommand browses the catalog by artist.
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Browse the catalog by artist",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List artists with their track counts",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArtistsList,
			},
			{
				Name:  "playlists",
				Usage: "List playlists containing tracks by an artist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArtistPlaylists,
			},
		},
	}
}

// exportCommand renders a cached playlist to a file format.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a cached playlist as CSV, Markdown or JSON",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, markdown or json",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout)",
			},
		},
		Action: r.Export,
	}
}
