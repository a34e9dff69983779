package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a starter configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Config written to %s", path)))
	r.writePlain("%s\n", ui.Help("Fill in your Spotify credentials and proxy URL, then run 'setup database'."))
	return nil
}

// SetupDatabase opens the catalog database, applies pending migrations, and
// heals any duplicate playlist entries left behind by earlier versions so
// the uniqueness index can install.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}

	removed, err := store.RemoveDuplicateEntries()
	if err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}
	if removed > 0 {
		r.logger.Info("removed duplicate cached playlist entries", "count", removed)
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("Removed %d duplicate cached entries", removed)))
	}

	r.logger.Info("database initialized", "path", r.config.Database.Path)
	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Database ready at %s", r.config.Database.Path)))
	return nil
}

// SetupYouTube converts a browser "Copy as cURL" command into the headers
// file the YouTube Music proxy authenticates with.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	output := cmd.String("output")

	var headers *shared.CurlHeaders
	var err error

	switch {
	case curlFile != "":
		headers, err = shared.ParseCurlFile(curlFile)
	case curlCmd != "":
		headers, err = shared.ParseCurlCommand(curlCmd)
	default:
		return fmt.Errorf("%w: either --curl or --curl-file is required", shared.ErrMissingArgument)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	payload := map[string]string{"headers_raw": headers.ToHeadersRaw()}
	if err := shared.WriteJSONFile(output, payload, true); err != nil {
		return err
	}

	r.logger.Info("youtube auth configured", "headers", len(headers.Headers), "output", output)
	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Headers written to %s (%d headers)", output, len(headers.Headers))))
	return nil
}
