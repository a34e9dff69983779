package main

import (
	"context"

	"github.com/desertthunder/musicbridge/internal/formatter"
	"github.com/desertthunder/musicbridge/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Scan reconciles the catalog against the YouTube Music library.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.newEngine(false)
	if err != nil {
		return err
	}

	opts := tasks.ScanOpts{
		Force:        cmd.Bool("force"),
		Workers:      int(cmd.Int("workers")),
		RateLimit:    cmd.Float("rate"),
		SnapshotPath: cmd.String("snapshot"),
	}

	r.logger.Info("starting scan", "force", opts.Force)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ListPlaylists:
				r.writePlain("%s\n", update.Message)
			case tasks.FetchTracks:
				r.writePlain("  %s\n", update.Message)
			case tasks.Cleanup, tasks.ExportSnapshot:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Scan(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Scan Complete")
	r.writePlain("%s", formatter.ScanSummaryText(result))
	return nil
}
