// Package catalog implements the SQLite-backed mirror of the remote music
// library: tracks, normalized artists, playlists and their associations,
// plus an FTS5 index over track metadata.
//
// The catalog is the single owner of local library state. All mutating
// calls are transactional; [Store.ApplyPlaylistTracks] commits one playlist's
// listing atomically so a failed playlist never rolls back another's work.
//
// Track rows are immutable in identity (the remote-assigned ID never
// changes) and insert-if-absent in content: rescans never destructively
// update descriptive fields. Tracks are deleted only by orphan cleanup,
// playlists only when they disappear from the remote listing.
//
// The uniqueness invariant on (playlist, track) associations is installed
// lazily: historical rows may contain duplicates until
// [Store.RemoveDuplicateEntries] has run once, so index creation before
// that point is best-effort and failures are absorbed.
//
// The FTS5 index requires building with the sqlite_fts5 driver tag
// (go build -tags sqlite_fts5). Without it [Store.SearchTracks] serves
// substring matches instead of ranked full-text results.
package catalog
