package services

import (
	"context"

	"github.com/desertthunder/musicbridge/internal/models"
)

// Service defines the interface for music service providers (YouTube Music,
// Spotify) that the scan and sync engines operate against.
//
// Implementations translate provider-specific JSON into models.Playlist and
// models.Track; callers never see provider payloads.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify", "YouTube Music")
	Name() string

	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// ListPlaylists retrieves all playlists for the authenticated user.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// ListTracks retrieves a playlist's complete track listing in playlist
	// order. Slot identifiers are populated where the provider supplies them.
	ListTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// SearchTrack searches for a track by title and artist.
	// Returns the best match or an error if no match is found.
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)

	// AddTracks appends tracks to a playlist by ID. Callers batch; a single
	// call must not exceed the provider's per-request limit.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveTracks removes specific playlist entries. Providers that address
	// entries by slot use Track.SlotID; others use Track.ID.
	RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error

	// CreatePlaylist creates a new private playlist and returns it.
	CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error)

	// DeletePlaylist permanently deletes a playlist.
	DeletePlaylist(ctx context.Context, playlistID string) error
}

// maxAddBatch is the per-request track limit shared by both providers'
// add endpoints.
const maxAddBatch = 100
