// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and directories.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database, run migrations, and create upload directories",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand starts the upload API server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the upload and catalog HTTP API",
		Action: r.Serve,
	}
}

// tracksCommand handles track catalog operations
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"t"},
		Usage:   "Track catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist-id",
						Usage: "Filter by artist ID",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Filter by genre",
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "Case-insensitive title search",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TracksList,
			},
			{
				Name:  "export",
				Usage: "Export an artist's tracks to CSV, Markdown, or text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist-id",
						Usage:    "Artist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path or directory",
					},
				},
				Action: r.TracksExport,
			},
		},
	}
}

// artistsCommand handles artist catalog operations
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"a"},
		Usage:   "Artist catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog artists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Filter by genre",
					},
					&cli.StringFlag{
						Name:  "country",
						Usage: "Filter by country",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ArtistsList,
			},
		},
	}
}

// recommendCommand prints related tracks for a seed track.
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Show related tracks for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "track-id",
			},
		},
		Action: r.Recommend,
	}
}

// sweepCommand runs one maintenance pass.
func sweepCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sweep",
		Usage:  "Remove stale staging directories",
		Action: r.Sweep,
	}
}

// browseCommand returns the top-level TUI command for catalog browsing.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui"},
		Usage:   "Launch interactive catalog browser",
		Action:  r.Browse,
	}
}
