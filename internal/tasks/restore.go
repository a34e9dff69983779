package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

// RestoredPrefix marks playlists produced by Restore. Restored playlists
// never overwrite live ones.
const RestoredPrefix = "[Restored] "

// RestoreResult summarizes a snapshot restore.
type RestoreResult struct {
	SnapshotPath string                    `json:"snapshot_path"`
	ExportedAt   string                    `json:"exported_at"`
	Playlists    []RestoredPlaylist        `json:"playlists"`
	Skipped      []models.PlaylistSnapshot `json:"skipped,omitempty"`
}

// RestoredPlaylist records one playlist recreated from a snapshot.
type RestoredPlaylist struct {
	Playlist *models.Playlist `json:"playlist"`
	Tracks   int              `json:"tracks"`
	Added    int              `json:"added"`
	Failed   []string         `json:"failed,omitempty"`
}

// LoadSnapshot reads a library snapshot from disk.
func LoadSnapshot(path string) (*models.LibrarySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.LibrarySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// Restore recreates playlists from a library snapshot on the source service.
//
// Each restored playlist is created fresh under the "[Restored] " prefix so
// a restore can never clobber a live playlist. When only is non-empty, just
// the snapshot playlists whose ID or title matches are restored; the rest
// are reported as skipped.
func (e *Engine) Restore(ctx context.Context, progress chan<- ProgressUpdate, snapshotPath string, only []string) (*RestoreResult, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}

	if snapshotPath == "" {
		snapshotPath = e.config.Export.SnapshotPath
	}
	if snapshotPath == "" {
		return nil, fmt.Errorf("%w: snapshot path", shared.ErrMissingArgument)
	}

	snapshot, err := LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Playlists) == 0 {
		return nil, fmt.Errorf("%w: snapshot contains no playlists", shared.ErrInvalidInput)
	}

	selected := make(map[string]struct{}, len(only))
	for _, s := range only {
		selected[s] = struct{}{}
	}

	result := &RestoreResult{
		SnapshotPath: snapshotPath,
		ExportedAt:   snapshot.ExportedAt,
	}

	limiter := e.newRateLimiter(0)

	for i, ps := range snapshot.Playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if len(selected) > 0 {
			_, byID := selected[ps.ID]
			_, byTitle := selected[ps.Title]
			if !byID && !byTitle {
				result.Skipped = append(result.Skipped, ps)
				continue
			}
		}

		e.sendProgress(progress, restorePlaylistUpdate(i+1, len(snapshot.Playlists), ps.Title))

		title := RestoredPrefix + ps.Title
		description := fmt.Sprintf("Restored from snapshot taken %s", snapshot.ExportedAt)

		created, err := e.source.CreatePlaylist(ctx, title, description)
		if err != nil {
			return result, fmt.Errorf("%w: failed to create %q: %v", shared.ErrAPIRequest, title, err)
		}
		e.sendProgress(progress, createPlaylistUpdate(created))

		added, failed, err := e.addInBatches(ctx, progress, e.source, created.ID, ps.TrackIDs, 0, limiter)
		result.Playlists = append(result.Playlists, RestoredPlaylist{
			Playlist: created,
			Tracks:   len(ps.TrackIDs),
			Added:    added,
			Failed:   failed,
		})
		if err != nil {
			return result, err
		}
	}

	return result, nil
}
