package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/matcher"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

// DedupeResult summarizes duplicate removal for a single playlist.
type DedupeResult struct {
	PlaylistID      string         `json:"playlist_id"`
	PlaylistTitle   string         `json:"playlist_title"`
	TotalEntries    int            `json:"total_entries"`
	DuplicatesFound int            `json:"duplicates_found"`
	Removed         []models.Track `json:"removed,omitempty"`
	Unremovable     []models.Track `json:"unremovable,omitempty"`
	DryRun          bool           `json:"dry_run"`
}

// DedupePlaylist removes duplicate occurrences of tracks within one playlist,
// on the remote service and in the catalog.
//
// The playlist is refetched from the remote first; duplicate detection on a
// stale cache would remove entries that no longer exist. An entry is a
// duplicate when its track ID was already seen, or failing that, when its
// artist+title signature was. The first occurrence always survives. Removal
// addresses slot identifiers, so only the later occurrences are touched; an
// occurrence without a slot identifier is reported but left in place.
//
// With dryRun set the result lists what would be removed and nothing is
// modified anywhere.
func (e *Engine) DedupePlaylist(ctx context.Context, progress chan<- ProgressUpdate, idOrTitle string, dryRun bool) (*DedupeResult, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}
	if err := e.requireStore(); err != nil {
		return nil, err
	}

	playlist, err := e.resolvePlaylist(idOrTitle)
	if err != nil {
		playlist, err = resolveRemotePlaylist(ctx, e.source, idOrTitle)
		if err != nil {
			return nil, err
		}
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 1, playlist))

	tracks, err := e.source.ListTracks(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch tracks: %v", shared.ErrAPIRequest, err)
	}

	result := &DedupeResult{
		PlaylistID:    playlist.ID,
		PlaylistTitle: playlist.Title,
		TotalEntries:  len(tracks),
		DryRun:        dryRun,
	}

	duplicates := findDuplicates(tracks)
	result.DuplicatesFound = len(duplicates)
	e.sendProgress(progress, findDuplicatesUpdate(playlist.Title, len(duplicates)))

	if len(duplicates) == 0 {
		return result, nil
	}

	var removable []models.Track
	for _, t := range duplicates {
		if t.SlotID == "" {
			result.Unremovable = append(result.Unremovable, t)
			continue
		}
		removable = append(removable, t)
	}

	if dryRun {
		result.Removed = removable
		return result, nil
	}

	// Nothing removable means every duplicate lacked a slot identifier;
	// the remote must not see an empty removal request.
	if len(removable) == 0 {
		return result, nil
	}

	for i, t := range removable {
		e.sendProgress(progress, removeEntriesUpdate(i+1, len(removable), &t))
	}

	if err := e.source.RemoveTracks(ctx, playlist.ID, removable); err != nil {
		return result, fmt.Errorf("%w: failed to remove duplicates: %v", shared.ErrAPIRequest, err)
	}
	result.Removed = removable

	slotIDs := make([]string, len(removable))
	for i, t := range removable {
		slotIDs[i] = t.SlotID
	}
	if err := e.store.DeleteEntriesBySlot(playlist.ID, slotIDs); err != nil {
		return result, err
	}

	return result, nil
}

// findDuplicates returns the later occurrences of duplicated tracks, in
// playlist order. Identity is the track ID when available, with a lowercase
// artist+title signature as the fallback for entries whose IDs differ across
// re-uploads of the same recording.
func findDuplicates(tracks []models.Track) []models.Track {
	seenIDs := make(map[string]struct{}, len(tracks))
	seenSignatures := make(map[string]struct{}, len(tracks))

	var duplicates []models.Track
	for _, t := range tracks {
		signature := matcher.Signature(t.Artists, t.Title)

		_, idSeen := seenIDs[t.ID]
		_, sigSeen := seenSignatures[signature]

		if (t.ID != "" && idSeen) || sigSeen {
			duplicates = append(duplicates, t)
			continue
		}

		if t.ID != "" {
			seenIDs[t.ID] = struct{}{}
		}
		seenSignatures[signature] = struct{}{}
	}

	return duplicates
}

// GlobalDuplicates reports tracks that appear in more than one playlist
// across the whole catalog. Read-only; cross-playlist duplication is often
// intentional, so acting on it is left to the user.
func (e *Engine) GlobalDuplicates() ([]catalog.DuplicateTrack, error) {
	if err := e.requireStore(); err != nil {
		return nil, err
	}
	return e.store.GlobalDuplicates()
}
