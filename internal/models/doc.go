// Package models defines the domain entities shared by the catalog, the
// service adapters, and the sync engines.
//
// Types mirror the shapes returned by the remote services:
//   - [Playlist] : playlist metadata with the remote-reported track count
//   - [Track] : song metadata with multi-artist support and the playlist
//     slot identifier needed for removal operations
//   - [PlaylistExport] : a playlist with its complete track listing
//   - [LibrarySnapshot] : the durable playlist → ordered-track-ID export
//     used as the restore source
//
// Track identity is the remote-assigned ID. The comma-joined artist display
// string is derived on read via [Track.DisplayArtist]; the normalized
// artist list is the single source of truth.
package models
