// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes a config file from the embedded template
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a starter configuration file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the mood filtering web service",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// authCommand runs the local OAuth login flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List Spotify playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Principal whose playlists to list (from a prior auth)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// filterCommand runs the mood filtering pipeline
func filterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Filter playlist songs against a mood descriptor",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "descriptor",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Principal whose playlists to filter (from a prior auth)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist name or ID to include (repeatable, default: all)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format: csv, json, txt",
				Value: "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Filter,
	}
}
