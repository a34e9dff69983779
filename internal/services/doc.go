// Package services defines the [Service] interface for music streaming
// providers and implements it for YouTube Music and Spotify.
//
// # Service Interface
//
// All providers implement a common abstraction, so the scan and sync engines
// work uniformly against either side of a transfer.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with a proxy server wrapping ytmusicapi.
// The proxy handles YouTube Music authentication complexities; the auth_file
// path is sent via the X-Auth-File header on each request.
//
// Playlist entries carry a setVideoId identifying the specific occurrence of
// a track inside a playlist. Removal operations address these slots, which
// is what makes targeted duplicate removal possible when the same track
// appears twice.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh via [oauth2.Config.Client]. Write operations require the
// playlist-modify scopes requested at authorization time.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrTrackNotFound] : search produced no candidates
//
// # API Mappings
//
// Both services convert provider-specific JSON into models.Playlist and
// models.Track; nothing provider-shaped escapes this package. Cross-service
// track matching is heuristic, scored by the matcher package.
package services
