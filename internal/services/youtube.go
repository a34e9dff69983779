// YouTube Music API [Service] implementation
//
// Communicates with a ytmusicapi proxy server. The proxy wraps the Python
// ytmusicapi library; the auth_file path is forwarded on every request via
// the X-Auth-File header.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	Album      *youtubeAlbum   `json:"album"`
	Duration   string          `json:"duration"`
	IsExplicit bool            `json:"isExplicit"`
	SetVideoID string          `json:"setVideoId,omitempty"` // For playlist removal operations
}

// YouTubePlaylist represents a playlist from YouTube Music.
type YouTubePlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Privacy     string         `json:"privacy"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YouTubeTrack `json:"tracks,omitempty"`
}

// YouTubeService implements the Service interface for YouTube Music via proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file in credentials", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := y.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListPlaylists retrieves all playlists for the authenticated user.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var ytPlaylists []struct {
		PlaylistID  string `json:"playlistId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Count       int    `json:"count"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &ytPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(ytPlaylists))
	for i, ytp := range ytPlaylists {
		playlists[i] = models.Playlist{
			ID:          ytp.PlaylistID,
			Title:       ytp.Title,
			Description: ytp.Description,
			TrackCount:  ytp.Count,
		}
	}

	return playlists, nil
}

// ListTracks retrieves a playlist's tracks in playlist order.
//
// Calls GET /api/playlists/{id} on the proxy. Each entry carries the
// setVideoId that removal operations address.
func (y *YouTubeService) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var ytPlaylist YouTubePlaylist

	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, len(ytPlaylist.Tracks))
	for i, ytt := range ytPlaylist.Tracks {
		tracks[i] = convertYouTubeTrack(ytt)
	}

	return tracks, nil
}

func convertYouTubeTrack(ytt YouTubeTrack) models.Track {
	track := models.Track{
		ID:       ytt.VideoID,
		Title:    ytt.Title,
		Duration: ytt.Duration,
		Explicit: ytt.IsExplicit,
		SlotID:   ytt.SetVideoID,
	}

	for _, artist := range ytt.Artists {
		if artist.Name != "" {
			track.Artists = append(track.Artists, artist.Name)
		}
	}

	if ytt.Album != nil {
		track.Album = ytt.Album.Name
	}

	return track
}

// SearchTrack searches for a track by title and artist, returning the best match.
//
// Calls GET /api/search?q={title} {artist}&filter=songs on the proxy.
func (y *YouTubeService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	query := fmt.Sprintf("%s %s", title, artist)
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results for %q by %q", shared.ErrTrackNotFound, title, artist)
	}

	track := convertYouTubeTrack(results[0])
	return &track, nil
}

// AddTracks appends tracks to a playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > maxAddBatch {
		return fmt.Errorf("%w: at most %d tracks per request", shared.ErrInvalidArgument, maxAddBatch)
	}

	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: trackIDs}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return y.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// RemoveTracks removes specific playlist entries by their setVideoId.
//
// Calls POST /api/playlists/{id}/items/remove on the proxy. Entries without
// a slot identifier cannot be removed and are skipped.
func (y *YouTubeService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	type removal struct {
		VideoID    string `json:"videoId"`
		SetVideoID string `json:"setVideoId"`
	}

	var items []removal
	for _, t := range tracks {
		if t.SlotID == "" {
			continue
		}
		items = append(items, removal{VideoID: t.ID, SetVideoID: t.SlotID})
	}
	if len(items) == 0 {
		return nil
	}

	body := struct {
		Tracks []removal `json:"tracks"`
	}{Tracks: items}

	endpoint := fmt.Sprintf("/api/playlists/%s/items/remove", url.PathEscape(playlistID))
	return y.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// CreatePlaylist creates a new private playlist.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	body := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         title,
		Description:   description,
		PrivacyStatus: "PRIVATE",
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", body, &createResp); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          createResp.PlaylistID,
		Title:       title,
		Description: description,
	}, nil
}

// DeletePlaylist permanently deletes a playlist.
//
// Calls DELETE /api/playlists/{id} on the proxy.
func (y *YouTubeService) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	return y.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}
