// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/musicbridge/internal/matcher"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

type spotifyTracksRef struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Tracks      spotifyTracksRef `json:"tracks"`
	URI         string           `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents a paginated page of playlist tracks.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
	userID     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Token returns the current OAuth2 token, or nil before authentication.
// Callers persist it so later runs can skip the browser flow.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" (optionally with a "refresh_token") or an "auth_code" in
// credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

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

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify status 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}

	s.userID = user.ID
	return s.userID, nil
}

// ListPlaylists retrieves all playlists for the authenticated user,
// following pagination.
func (s *SpotifyService) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlists = append(playlists, models.Playlist{
				ID:          sp.ID,
				Title:       sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
			})
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return playlists, nil
}

// ListTracks retrieves a playlist's tracks in playlist order, following
// pagination.
func (s *SpotifyService) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)

		var page SpotifyPaginatedItems
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, convertSpotifyTrack(item.Track))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return tracks, nil
}

func convertSpotifyTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:       st.ID,
		Title:    st.Name,
		Album:    st.Album.Name,
		Explicit: st.Explicit,
	}

	if st.DurationMS > 0 {
		track.Duration = fmt.Sprintf("%d:%02d", st.DurationMS/60000, (st.DurationMS/1000)%60)
	}

	for _, artist := range st.Artists {
		if artist.Name != "" {
			track.Artists = append(track.Artists, artist.Name)
		}
	}

	return track
}

// SearchTrack searches for a track and returns the highest-confidence match.
//
// The title is cleaned of parenthetical qualifiers before querying; a
// qualifier like "(Official Video)" rarely survives onto the Spotify side.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	query := fmt.Sprintf("track:%s artist:%s", matcher.CleanTitle(title), artist)
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=5", url.QueryEscape(query))

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no results for %q by %q", shared.ErrTrackNotFound, title, artist)
	}

	best := convertSpotifyTrack(response.Tracks.Items[0])
	bestScore := matcher.Confidence(artist, title, best.PrimaryArtist(), best.Title)

	for _, item := range response.Tracks.Items[1:] {
		candidate := convertSpotifyTrack(item)
		if score := matcher.Confidence(artist, title, candidate.PrimaryArtist(), candidate.Title); score > bestScore {
			best, bestScore = candidate, score
		}
	}

	return &best, nil
}

// AddTracks appends tracks to a playlist.
//
// Calls POST /playlists/{id}/tracks with track URIs.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > maxAddBatch {
		return fmt.Errorf("%w: at most %d tracks per request", shared.ErrInvalidArgument, maxAddBatch)
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	body := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// RemoveTracks removes all occurrences of the given tracks from a playlist.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	type uriRef struct {
		URI string `json:"uri"`
	}

	refs := make([]uriRef, len(tracks))
	for i, t := range tracks {
		refs[i] = uriRef{URI: "spotify:track:" + t.ID}
	}

	body := struct {
		Tracks []uriRef `json:"tracks"`
	}{Tracks: refs}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// CreatePlaylist creates a new private playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{Name: title, Description: description}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Title:       created.Name,
		Description: created.Description,
	}, nil
}

// DeletePlaylist unfollows a playlist, which is how Spotify models deletion.
func (s *SpotifyService) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}
