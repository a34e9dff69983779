package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

// SortedPrefix marks playlists produced by SortPlaylist. The original
// playlist is never reordered in place; a prefixed copy is created instead.
const SortedPrefix = "[Sorted] "

// SortResult summarizes a playlist sort.
type SortResult struct {
	SourcePlaylist *models.Playlist `json:"source_playlist"`
	SortedPlaylist *models.Playlist `json:"sorted_playlist"`
	TrackCount     int              `json:"track_count"`
	Added          int              `json:"added"`
	Failed         []string         `json:"failed,omitempty"`
}

// SortPlaylist creates a copy of a playlist with tracks ordered by primary
// artist, then title. The copy is named with the "[Sorted] " prefix; the
// original playlist is left untouched.
func (e *Engine) SortPlaylist(ctx context.Context, progress chan<- ProgressUpdate, idOrTitle string) (*SortResult, error) {
	if err := e.requireSource(); err != nil {
		return nil, err
	}

	playlist, err := resolveRemotePlaylist(ctx, e.source, idOrTitle)
	if err != nil {
		return nil, err
	}

	tracks, err := e.source.ListTracks(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch tracks: %v", shared.ErrAPIRequest, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %q has no tracks to sort", shared.ErrInvalidInput, playlist.Title)
	}

	e.sendProgress(progress, sortEntriesUpdate(playlist.Title, len(tracks)))

	sorted := make([]models.Track, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai := strings.ToLower(sorted[i].PrimaryArtist())
		aj := strings.ToLower(sorted[j].PrimaryArtist())
		if ai != aj {
			return ai < aj
		}
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})

	title := SortedPrefix + playlist.Title
	description := fmt.Sprintf("Sorted copy of %s", playlist.Title)

	created, err := e.source.CreatePlaylist(ctx, title, description)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create sorted playlist: %v", shared.ErrAPIRequest, err)
	}
	e.sendProgress(progress, createPlaylistUpdate(created))

	trackIDs := make([]string, 0, len(sorted))
	for _, t := range sorted {
		if t.ID != "" {
			trackIDs = append(trackIDs, t.ID)
		}
	}

	added, failed, err := e.addInBatches(ctx, progress, e.source, created.ID, trackIDs, 0, e.newRateLimiter(0))
	result := &SortResult{
		SourcePlaylist: playlist,
		SortedPlaylist: created,
		TrackCount:     len(tracks),
		Added:          added,
		Failed:         failed,
	}
	if err != nil {
		return result, err
	}

	return result, nil
}
