package models

import "strings"

// Track represents a music track from any service.
//
// ID is the remote-assigned identifier (videoId on YouTube Music, track ID on
// Spotify). SlotID is the identifier of this specific occurrence inside a
// playlist; the same track can occupy many slots, and removal operations
// address slots, not tracks.
type Track struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Explicit bool     `json:"explicit,omitempty"`
	SlotID   string   `json:"slot_id,omitempty"`
}

// DisplayArtist returns the comma-joined artist string used for display and
// backward-compatible queries. Derived from Artists; never stored separately.
func (t Track) DisplayArtist() string {
	if len(t.Artists) == 0 {
		return "Unknown"
	}
	return strings.Join(t.Artists, ", ")
}

// PrimaryArtist returns the first listed artist, or "Unknown" when the
// service reported none.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return "Unknown"
	}
	return t.Artists[0]
}

// Playlist represents a music playlist from any service.
//
// TrackCount is the remote-reported count, used by the scan engine as a
// cheap staleness signal.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// PlaylistExport represents a playlist with its complete track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// PlaylistSnapshot is one playlist's entry in a library snapshot: metadata
// plus track IDs in insertion order.
type PlaylistSnapshot struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	TrackIDs    []string `json:"track_ids"`
}

// LibrarySnapshot is the full playlist → ordered-track-ID export persisted
// after each scan. Re-importing a snapshot reproduces the same playlist and
// track associations, so the format must stay stable across versions.
type LibrarySnapshot struct {
	ExportedAt string             `json:"exported_at"`
	Playlists  []PlaylistSnapshot `json:"playlists"`
}
