package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/tasks"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dedupe removes duplicate tracks within one playlist.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	playlist := cmd.StringArg("playlist")
	if playlist == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	engine, err := r.newEngine(false)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	r.logger.Info("deduplicating playlist", "playlist", playlist, "dry_run", dryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTracks, tasks.FindDuplicates:
				r.writePlain("%s\n", update.Message)
			case tasks.RemoveEntries:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := engine.DedupePlaylist(ctx, progressCh, playlist, dryRun)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Dedupe Complete")
	r.writePlain("Playlist: %s (%d entries)\n", result.PlaylistTitle, result.TotalEntries)
	r.writePlain("Duplicates found: %d\n", result.DuplicatesFound)

	if result.DryRun {
		r.writePlain("%s\n", ui.Warn("Dry run: nothing was removed."))
		for i, t := range result.Removed {
			r.writePlain("  %d. %s - %s\n", i+1, t.DisplayArtist(), t.Title)
		}
	} else {
		r.writePlain("Removed: %d\n", len(result.Removed))
	}

	if len(result.Unremovable) > 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("%d entries have no removable slot:", len(result.Unremovable))))
		for _, t := range result.Unremovable {
			r.writePlain("  - %s - %s\n", t.DisplayArtist(), t.Title)
		}
	}

	return nil
}

// Duplicates reports tracks appearing in more than one playlist.
func (r *Runner) Duplicates(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.newEngine(false)
	if err != nil {
		return err
	}

	duplicates, err := engine.GlobalDuplicates()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(duplicates, true)
	}

	if len(duplicates) == 0 {
		r.writePlain("%s\n", ui.OK("No tracks appear in more than one playlist."))
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("%d tracks in multiple playlists", len(duplicates)))
	for _, d := range duplicates {
		r.writePlain("%s - %s (%d playlists)\n", d.Track.DisplayArtist(), d.Track.Title, d.PlaylistCount)
		for _, title := range d.Playlists {
			r.writePlain("  - %s\n", title)
		}
	}

	return nil
}
