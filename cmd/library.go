package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/formatter"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/tasks"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sort creates a sorted copy of a playlist on the source service.
func (r *Runner) Sort(ctx context.Context, cmd *cli.Command) error {
	playlist := cmd.StringArg("playlist")
	if playlist == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	engine, err := r.newEngine(false)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.SortPlaylist(ctx, progressCh, playlist)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainln("%s", ui.OK(fmt.Sprintf("Created %s with %d of %d tracks",
		result.SortedPlaylist.Title, result.Added, result.TrackCount)))
	return nil
}

// Restore recreates playlists from a library snapshot.
func (r *Runner) Restore(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.newEngine(false)
	if err != nil {
		return err
	}

	snapshotPath := cmd.String("snapshot")
	only := cmd.StringSlice("only")

	r.logger.Info("restoring from snapshot", "path", snapshotPath, "only", only)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.RestorePlaylists, tasks.CreatePlaylist:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Restore(ctx, progressCh, snapshotPath, only)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Restore Complete")
	r.writePlain("Snapshot: %s (exported %s)\n", result.SnapshotPath, result.ExportedAt)
	for _, p := range result.Playlists {
		r.writePlain("  %s: %d/%d tracks\n", p.Playlist.Title, p.Added, p.Tracks)
	}
	if len(result.Skipped) > 0 {
		r.writePlain("Skipped: %d playlists\n", len(result.Skipped))
	}
	return nil
}

// Search queries the catalog's full-text index.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	tracks, err := store.SearchTracks(query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		r.writePlain("%s\n", ui.Help(fmt.Sprintf("No cached tracks match %q.", query)))
		return nil
	}

	for i, t := range tracks {
		r.writePlain("%d. %s - %s", i+1, t.DisplayArtist(), t.Title)
		if t.Album != "" {
			r.writePlain(" (%s)", t.Album)
		}
		r.writePlain("\n")
	}
	return nil
}

// ArtistsList lists every cached artist with its track count.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	artists, err := store.AllArtists()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}

	names := make([]string, 0, len(artists))
	for name := range artists {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if artists[names[i]] != artists[names[j]] {
			return artists[names[i]] > artists[names[j]]
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		r.writePlain("%4d  %s\n", artists[name], name)
	}
	return nil
}

// ArtistPlaylists lists the playlists containing tracks by an artist.
func (r *Runner) ArtistPlaylists(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlists, err := store.PlaylistsForArtist(name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		r.writePlain("%s\n", ui.Help(fmt.Sprintf("No cached playlists feature %q.", name)))
		return nil
	}

	for _, p := range playlists {
		r.writePlain("%s (%d tracks)\n", p.Title, p.TrackCount)
	}
	return nil
}

// Export renders a cached playlist as CSV, Markdown or JSON.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	idOrTitle := cmd.StringArg("playlist")
	if idOrTitle == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, tracks, err := cachedListing(store, idOrTitle)
	if err != nil {
		return err
	}

	var data []byte
	switch format := cmd.String("format"); format {
	case "csv":
		data, err = formatter.ExportToCSV(tracks)
	case "markdown", "md":
		data = formatter.ExportToMarkdown(playlist, tracks)
	case "json":
		export := models.PlaylistExport{Playlist: *playlist, Tracks: tracks}
		data, err = shared.MarshalJSON(export, true)
	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, markdown or json)", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteReport(output, data); err != nil {
			return err
		}
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("Exported %s to %s", playlist.Title, output)))
		return nil
	}

	return r.writePlain("%s\n", data)
}

// cachedListing resolves a playlist by ID first, then by exact title.
func cachedListing(store *catalog.Store, idOrTitle string) (*models.Playlist, []models.Track, error) {
	playlist, err := store.Playlist(idOrTitle)
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		playlist, err = store.PlaylistByTitle(idOrTitle)
	}
	if err != nil {
		return nil, nil, err
	}

	tracks, err := store.PlaylistTracks(playlist.ID)
	if err != nil {
		return nil, nil, err
	}

	return playlist, tracks, nil
}
