package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/formatter"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/tasks"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync mirrors a playlist onto the other service.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	playlist := cmd.StringArg("playlist")
	if playlist == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	reverse := cmd.Bool("from-target")
	engine, err := r.newEngine(reverse)
	if err != nil {
		return err
	}

	opts := tasks.SyncOpts{
		TargetTitle:   cmd.String("target-title"),
		BatchSize:     int(cmd.Int("batch-size")),
		MinConfidence: cmd.Float("min-confidence"),
		// The catalog mirrors the YouTube Music library only; a reversed
		// sync has to list its source from the remote.
		NoCache: reverse,
		DryRun:  cmd.Bool("dry-run"),
	}

	r.logger.Info("starting sync", "playlist", playlist, "reverse", reverse, "dry_run", opts.DryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.MatchTracks:
				r.writePlain("  %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n%s\n", update.Message)
			case tasks.AddEntries:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Sync(ctx, progressCh, playlist, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		if err := formatter.WriteReport(reportPath, formatter.MissingTracksMarkdown(result)); err != nil {
			return err
		}
		r.logger.Info("missing tracks report written", "path", reportPath)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Source: %s (%d tracks)\n", result.SourcePlaylist.Title, result.TotalTracks)
	r.writePlain("Target: %s", result.TargetPlaylist.Title)
	if result.TargetCreated {
		r.writePlain(" (created)")
	}
	r.writePlain("\n")
	r.writePlain("Already present: %d\n", result.AlreadyPresent)
	r.writePlain("Added: %d\n", result.Added)
	r.writePlain("Match rate: %.1f%%\n", result.MatchPercentage)

	if result.DryRun {
		r.writePlain("%s\n", ui.Warn("Dry run: nothing was written to the target."))
	}

	if len(result.Missing) > 0 {
		r.writePlain("\n%s\n", ui.Warn(fmt.Sprintf("%d tracks could not be matched:", len(result.Missing))))
		for i, m := range result.Missing {
			r.writePlain("  %d. %s - %s (%s)\n", i+1, m.Original.DisplayArtist(), m.Original.Title, m.Reason)
		}
	}

	if len(result.Failed) > 0 {
		r.writePlain("\n%s\n", ui.Err(fmt.Sprintf("%d tracks failed to add:", len(result.Failed))))
		for _, id := range result.Failed {
			r.writePlain("  - %s\n", id)
		}
	}

	return nil
}
