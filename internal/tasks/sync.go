package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/matcher"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

// defaultMinConfidence is the score below which a search hit is reported as
// missing instead of being added to the target playlist.
const defaultMinConfidence = 0.5

// SyncOpts contains configuration for a cross-service playlist sync.
type SyncOpts struct {
	TargetTitle   string  // Title of the target playlist (default: source title)
	BatchSize     int     // Tracks per add request (default: config, capped at 100)
	RateLimit     float64 // Search requests per second (default: config)
	MinConfidence float64 // Minimum match score to accept (default: 0.5)
	NoCache       bool    // Resolve and list from the remote instead of the catalog
	DryRun        bool    // Match and report without writing to the target
}

// TrackMatch records the outcome of matching one source track on the target.
type TrackMatch struct {
	Original   models.Track  `json:"original"`
	Matched    *models.Track `json:"matched,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// SyncResult summarizes a cross-service playlist sync.
type SyncResult struct {
	SourcePlaylist  *models.Playlist `json:"source_playlist"`
	TargetPlaylist  *models.Playlist `json:"target_playlist"`
	TargetCreated   bool             `json:"target_created"`
	TotalTracks     int              `json:"total_tracks"`
	AlreadyPresent  int              `json:"already_present"`
	Matched         []TrackMatch     `json:"matched,omitempty"`
	Missing         []TrackMatch     `json:"missing,omitempty"`
	Added           int              `json:"added"`
	Failed          []string         `json:"failed,omitempty"`
	MatchPercentage float64          `json:"match_percentage"`
	DryRun          bool             `json:"dry_run"`
}

// Sync mirrors a source playlist onto the target service.
//
// The sync is incremental: tracks already present on the target (matched by
// ID or by artist+title signature) are left alone, and only the remainder is
// searched for and added. Running the same sync twice adds nothing the
// second time.
//
// Search hits are scored; a hit below MinConfidence counts as missing rather
// than being silently accepted. Additions go out in batches, and a rejected
// batch is retried track by track so one bad entry cannot sink the rest.
// Tracks that could not be matched or added are reported in Missing and
// Failed for the caller to surface.
func (e *Engine) Sync(ctx context.Context, progress chan<- ProgressUpdate, idOrTitle string, opts SyncOpts) (*SyncResult, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}
	if err := e.requireTarget(); err != nil {
		return nil, err
	}

	if opts.MinConfidence <= 0 {
		opts.MinConfidence = defaultMinConfidence
	}

	sourcePlaylist, sourceTracks, err := e.sourceListing(ctx, idOrTitle, opts.NoCache)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		SourcePlaylist: sourcePlaylist,
		TotalTracks:    len(sourceTracks),
		DryRun:         opts.DryRun,
	}

	targetTitle := opts.TargetTitle
	if targetTitle == "" {
		targetTitle = sourcePlaylist.Title
	}

	targetPlaylist, created, err := e.findOrCreateTarget(ctx, progress, targetTitle, sourcePlaylist, opts.DryRun)
	if err != nil {
		return nil, err
	}
	result.TargetPlaylist = targetPlaylist
	result.TargetCreated = created

	existingIDs := make(map[string]struct{})
	existingSignatures := make(map[string]struct{})
	if targetPlaylist.ID != "" {
		targetTracks, err := e.target.ListTracks(ctx, targetPlaylist.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list target tracks: %v", shared.ErrAPIRequest, err)
		}
		for _, t := range targetTracks {
			existingIDs[t.ID] = struct{}{}
			existingSignatures[matcher.Normalize(matcher.Signature(t.Artists, t.Title))] = struct{}{}
		}
	}

	limiter := e.newRateLimiter(opts.RateLimit)
	var toAdd []string

	for i, track := range sourceTracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		signature := matcher.Normalize(matcher.Signature(track.Artists, track.Title))
		if _, ok := existingSignatures[signature]; ok {
			result.AlreadyPresent++
			continue
		}

		e.sendProgress(progress, matchTrackUpdate(i+1, len(sourceTracks), &track))

		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		match, err := e.target.SearchTrack(ctx, track.Title, track.PrimaryArtist())
		if err != nil {
			result.Missing = append(result.Missing, TrackMatch{Original: track, Reason: "no match found"})
			continue
		}

		confidence := matcher.Confidence(track.PrimaryArtist(), track.Title, match.PrimaryArtist(), match.Title)
		if confidence < opts.MinConfidence {
			result.Missing = append(result.Missing, TrackMatch{
				Original:   track,
				Matched:    match,
				Confidence: confidence,
				Reason:     "low confidence match",
			})
			continue
		}

		result.Matched = append(result.Matched, TrackMatch{Original: track, Matched: match, Confidence: confidence})

		if _, ok := existingIDs[match.ID]; ok {
			result.AlreadyPresent++
			continue
		}
		existingIDs[match.ID] = struct{}{}
		toAdd = append(toAdd, match.ID)
	}

	if result.TotalTracks > 0 {
		matchable := result.AlreadyPresent + len(result.Matched)
		result.MatchPercentage = float64(matchable) / float64(result.TotalTracks) * 100
	}

	if opts.DryRun || len(toAdd) == 0 {
		return result, nil
	}

	added, failed, err := e.addInBatches(ctx, progress, e.target, targetPlaylist.ID, toAdd, opts.BatchSize, limiter)
	result.Added = added
	result.Failed = failed
	if err != nil {
		return result, err
	}

	return result, nil
}

// sourceListing resolves the playlist and its tracks, preferring the catalog
// and falling back to the remote when the cache has nothing to offer.
func (e *Engine) sourceListing(ctx context.Context, idOrTitle string, noCache bool) (*models.Playlist, []models.Track, error) {
	if !noCache && e.store != nil {
		if playlist, err := e.resolvePlaylist(idOrTitle); err == nil {
			tracks, err := e.store.PlaylistTracks(playlist.ID)
			if err == nil && len(tracks) > 0 {
				return playlist, tracks, nil
			}
		}
	}

	playlist, err := resolveRemotePlaylist(ctx, e.source, idOrTitle)
	if err != nil {
		return nil, nil, err
	}

	tracks, err := e.source.ListTracks(ctx, playlist.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to list source tracks: %v", shared.ErrAPIRequest, err)
	}

	return playlist, tracks, nil
}

// findOrCreateTarget reuses an existing target playlist with the given title
// or creates a new private one. Under dry run a placeholder stands in for
// the playlist that would have been created.
func (e *Engine) findOrCreateTarget(ctx context.Context, progress chan<- ProgressUpdate, title string, source *models.Playlist, dryRun bool) (*models.Playlist, bool, error) {
	playlists, err := e.target.ListPlaylists(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to list target playlists: %v", shared.ErrAPIRequest, err)
	}

	for _, p := range playlists {
		if p.Title == title {
			return &p, false, nil
		}
	}

	if dryRun {
		return &models.Playlist{Title: title}, true, nil
	}

	description := fmt.Sprintf("Synced from %s: %s", e.source.Name(), source.Title)
	created, err := e.target.CreatePlaylist(ctx, title, description)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to create target playlist: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, createPlaylistUpdate(created))
	return created, true, nil
}
