package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/speedwagon1299/MoodyGrooves/internal/formatter"
	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the principal's Spotify playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}

	app, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	playlists, err := app.spotify.Playlists(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Playlists: %d\n\n", len(playlists))
	for i, playlist := range playlists {
		r.writePlain("%d. %s (%d tracks)\n", i+1, playlist.Name, playlist.TrackCount)
		if playlist.Description != "" {
			r.writePlain("   %s\n", playlist.Description)
		}
	}

	return nil
}

// Filter runs the full pipeline: select playlists, aggregate their songs,
// classify against the mood descriptor, and print or export the matches.
func (r *Runner) Filter(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}

	descriptor := cmd.StringArg("descriptor")
	if descriptor == "" {
		return fmt.Errorf("%w: a mood descriptor is required", shared.ErrMissingArgument)
	}

	app, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	principal := cmd.String("user")

	playlists, err := app.spotify.Playlists(ctx, principal)
	if err != nil {
		return err
	}

	hrefs, err := selectPlaylists(playlists, cmd.StringSlice("playlist"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := app.engine.Filter(ctx, progress, principal, descriptor, hrefs)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(result, cmd.String("format"), output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Results written to %s\n", path)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	text, err := formatter.ExportToText(result)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

// selectPlaylists resolves the requested playlist names or IDs to track
// hrefs, defaulting to every playlist when none are named.
func selectPlaylists(playlists []models.Playlist, requested []string) ([]string, error) {
	if len(requested) == 0 {
		hrefs := make([]string, 0, len(playlists))
		for _, playlist := range playlists {
			hrefs = append(hrefs, playlist.TracksHref)
		}
		return hrefs, nil
	}

	hrefs := make([]string, 0, len(requested))
	for _, want := range requested {
		found := false
		for _, playlist := range playlists {
			if playlist.ID == want || strings.EqualFold(playlist.Name, want) {
				hrefs = append(hrefs, playlist.TracksHref)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no playlist named %q", shared.ErrInvalidArgument, want)
		}
	}

	return hrefs, nil
}
