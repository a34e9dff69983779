package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	"golang.org/x/time/rate"
)

// ScanOpts contains configuration for a library scan.
type ScanOpts struct {
	Force        bool    // Refetch every playlist regardless of staleness
	Workers      int     // Concurrent fetch workers (default: 5)
	RateLimit    float64 // Requests per second (default: 5)
	SnapshotPath string  // Where to write the library snapshot ("" uses config, "-" disables)
}

// ScanResult summarizes a completed library scan.
type ScanResult struct {
	PlaylistsTotal   int            `json:"playlists_total"`
	PlaylistsScanned int            `json:"playlists_scanned"`
	PlaylistsSkipped int            `json:"playlists_skipped"`
	PlaylistsRemoved int            `json:"playlists_removed"`
	PlaylistsFailed  int            `json:"playlists_failed"`
	TracksAdded      int            `json:"tracks_added"`
	TracksRemoved    int            `json:"tracks_removed"`
	ArtistsRemoved   int            `json:"artists_removed"`
	NewTracks        []models.Track `json:"new_tracks,omitempty"`
	SnapshotPath     string         `json:"snapshot_path,omitempty"`
	Errors           []ScanError    `json:"errors,omitempty"`
}

// ScanError records a playlist whose fetch or apply failed. The rest of the
// scan proceeds; one bad playlist never rolls back another's work.
type ScanError struct {
	PlaylistID string `json:"playlist_id"`
	Title      string `json:"title"`
	Err        string `json:"error"`
}

type scanJob struct {
	step     int
	playlist models.Playlist
}

type scanOutcome struct {
	playlist models.Playlist
	created  []models.Track
	err      error
}

// Scan reconciles the catalog against the source service.
//
// Remote playlists missing locally are created, local playlists missing
// remotely are deleted, and each remaining playlist's track listing is
// refetched unless its cached entry count already matches the remote-reported
// count. Fetches run on a bounded worker pool with a shared rate limiter;
// each playlist's listing commits in its own transaction, so cancellation
// loses at most the playlists still in flight.
//
// If the remote reports zero playlists the scan aborts with
// [shared.ErrNoPlaylistsFound] before touching the catalog. An expired
// session lists as an empty library, and mirroring that would delete
// everything.
func (e *Engine) Scan(ctx context.Context, progress chan<- ProgressUpdate, opts ScanOpts) (*ScanResult, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}
	if err := e.requireStore(); err != nil {
		return nil, err
	}

	if opts.Workers <= 0 {
		opts.Workers = e.config.Scan.Workers
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = e.config.Scan.RateLimit
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(progress, listPlaylistsUpdate(e.source.Name()))

	remote, err := e.source.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}

	remote = e.filterIgnored(remote)
	if len(remote) == 0 {
		return nil, fmt.Errorf("%w: refusing to reconcile against an empty library", shared.ErrNoPlaylistsFound)
	}

	result := &ScanResult{PlaylistsTotal: len(remote)}

	removed, err := e.removeStalePlaylists(remote)
	if err != nil {
		return nil, err
	}
	result.PlaylistsRemoved = removed

	for _, p := range remote {
		if err := e.store.UpsertPlaylist(p.ID, p.Title, p.Description, p.TrackCount); err != nil {
			return nil, err
		}
	}

	counts, err := e.store.TrackCounts()
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan scanJob, len(remote))
	outcomes := make(chan scanOutcome, len(remote))

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.scanWorker(ctx, &wg, limiter, jobs, outcomes)
	}

	queued := 0
	for i, p := range remote {
		if !opts.Force && counts[p.ID] == p.TrackCount {
			result.PlaylistsSkipped++
			e.sendProgress(progress, skipPlaylistUpdate(i+1, len(remote), &p))
			continue
		}

		e.sendProgress(progress, fetchTracksUpdate(i+1, len(remote), &p))
		jobs <- scanJob{step: i + 1, playlist: p}
		queued++
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		if outcome.err != nil {
			result.PlaylistsFailed++
			result.Errors = append(result.Errors, ScanError{
				PlaylistID: outcome.playlist.ID,
				Title:      outcome.playlist.Title,
				Err:        outcome.err.Error(),
			})
			e.logger.Warn("playlist scan failed", "playlist", outcome.playlist.Title, "error", outcome.err)
			continue
		}

		result.PlaylistsScanned++
		result.TracksAdded += len(outcome.created)
		result.NewTracks = append(result.NewTracks, outcome.created...)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	tracksRemoved, artistsRemoved, err := e.store.CleanupOrphans()
	if err != nil {
		return result, err
	}
	result.TracksRemoved = tracksRemoved
	result.ArtistsRemoved = artistsRemoved
	e.sendProgress(progress, cleanupUpdate(tracksRemoved, artistsRemoved))

	if path := e.snapshotPath(opts.SnapshotPath); path != "" {
		if err := e.exportSnapshot(path); err != nil {
			e.logger.Warn("snapshot export failed", "path", path, "error", err)
		} else {
			result.SnapshotPath = path
			e.sendProgress(progress, exportSnapshotUpdate(path))
		}
	}

	return result, nil
}

func (e *Engine) scanWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, jobs <-chan scanJob, outcomes chan<- scanOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			outcomes <- scanOutcome{playlist: job.playlist, err: ctx.Err()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			outcomes <- scanOutcome{playlist: job.playlist, err: err}
			continue
		}

		tracks, err := e.source.ListTracks(ctx, job.playlist.ID)
		if err != nil {
			outcomes <- scanOutcome{playlist: job.playlist, err: fmt.Errorf("failed to fetch tracks: %w", err)}
			continue
		}

		created, err := e.store.ApplyPlaylistTracks(job.playlist.ID, tracks)
		if err != nil {
			outcomes <- scanOutcome{playlist: job.playlist, err: err}
			continue
		}

		outcomes <- scanOutcome{playlist: job.playlist, created: created}
	}
}

// filterIgnored drops system playlists (liked songs, watch later) and any
// configured exclusions from the remote listing.
func (e *Engine) filterIgnored(playlists []models.Playlist) []models.Playlist {
	kept := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if slices.Contains(e.config.Scan.IgnoredPlaylistIDs, p.ID) {
			continue
		}
		if slices.Contains(e.config.Scan.IgnoredPlaylists, p.Title) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// removeStalePlaylists deletes cached playlists no longer present remotely.
func (e *Engine) removeStalePlaylists(remote []models.Playlist) (int, error) {
	local, err := e.store.Playlists()
	if err != nil {
		return 0, err
	}

	remoteIDs := make(map[string]struct{}, len(remote))
	for _, p := range remote {
		remoteIDs[p.ID] = struct{}{}
	}

	removed := 0
	for _, p := range local {
		if _, ok := remoteIDs[p.ID]; ok {
			continue
		}

		e.logger.Info("playlist no longer on remote, removing from catalog", "playlist", p.Title, "id", p.ID)
		if err := e.store.DeletePlaylist(p.ID); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

func (e *Engine) snapshotPath(override string) string {
	if override == "-" {
		return ""
	}
	if override != "" {
		return override
	}
	return e.config.Export.SnapshotPath
}

func (e *Engine) exportSnapshot(path string) error {
	snapshot, err := e.store.Snapshot()
	if err != nil {
		return err
	}
	return shared.WriteJSONFile(path, snapshot, true)
}
