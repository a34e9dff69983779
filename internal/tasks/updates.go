package tasks

import (
	"fmt"

	"github.com/desertthunder/musicbridge/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ListPlaylists Phase = iota
	FetchTracks
	Cleanup
	ExportSnapshot
	FindDuplicates
	RemoveEntries
	MatchTracks
	AddEntries
	CreatePlaylist
	SortEntries
	RestorePlaylists
)

func (p Phase) String() string {
	switch p {
	case ListPlaylists:
		return "list_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case Cleanup:
		return "cleanup"
	case ExportSnapshot:
		return "export_snapshot"
	case FindDuplicates:
		return "find_duplicates"
	case RemoveEntries:
		return "remove_entries"
	case MatchTracks:
		return "match_tracks"
	case AddEntries:
		return "add_entries"
	case CreatePlaylist:
		return "create_playlist"
	case SortEntries:
		return "sort_entries"
	case RestorePlaylists:
		return "restore_playlists"
	default:
		return ""
	}
}

func listPlaylistsUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlists from %s...", name),
	}
}

func fetchTracksUpdate(step, total int, playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d tracks)", step, total, playlist.Title, playlist.TrackCount),
		Data:    playlist,
	}
}

func skipPlaylistUpdate(step, total int, playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s unchanged, skipping", step, total, playlist.Title),
		Data:    playlist,
	}
}

func cleanupUpdate(tracks, artists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Cleanup,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d orphaned tracks, %d orphaned artists", tracks, artists),
	}
}

func exportSnapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Library snapshot written to %s", path),
	}
}

func findDuplicatesUpdate(playlist string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindDuplicates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d duplicate entries in %s", found, playlist),
	}
}

func removeEntriesUpdate(step, total int, track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing: %s - %s", step, total, track.DisplayArtist(), track.Title),
	}
}

func matchTrackUpdate(step, total int, track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.DisplayArtist(), track.Title),
	}
}

func addBatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding tracks... (%d/%d)", step, total),
	}
}

func createPlaylistUpdate(playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", playlist.Title, playlist.ID),
		Data:    playlist,
	}
}

func sortEntriesUpdate(playlist string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SortEntries,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sorting %d tracks from %s", total, playlist),
	}
}

func restorePlaylistUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RestorePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Restoring: %s", step, total, title),
	}
}
