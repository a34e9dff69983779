package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
)

// artistSep joins artist names inside GROUP_CONCAT. A unit separator keeps
// names containing commas intact.
const artistSep = "\x1f"

// Playlists returns all cached playlists ordered by title.
func (s *Store) Playlists() ([]models.Playlist, error) {
	rows, err := s.db.Query(`SELECT id, title, description, track_count FROM playlists ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	return playlists, rows.Err()
}

// Playlist returns a single cached playlist by ID.
func (s *Store) Playlist(id string) (*models.Playlist, error) {
	var p models.Playlist
	err := s.db.QueryRow(`SELECT id, title, description, track_count FROM playlists WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.TrackCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist %s: %w", id, shared.ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist %s: %w", id, err)
	}
	return &p, nil
}

// PlaylistByTitle returns the first cached playlist with an exact title match.
func (s *Store) PlaylistByTitle(title string) (*models.Playlist, error) {
	var p models.Playlist
	err := s.db.QueryRow(`SELECT id, title, description, track_count FROM playlists WHERE title = ? ORDER BY id LIMIT 1`, title).
		Scan(&p.ID, &p.Title, &p.Description, &p.TrackCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist %q: %w", title, shared.ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist %q: %w", title, err)
	}
	return &p, nil
}

// PlaylistTracks returns a playlist's tracks in insertion order, with
// artists assembled from the normalized tables.
func (s *Store) PlaylistTracks(playlistID string) ([]models.Track, error) {
	rows, err := s.db.Query(`
		SELECT t.video_id, t.title, t.album, t.duration, t.is_explicit, pt.set_video_id,
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ?)
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), '')
		FROM playlist_tracks pt
		JOIN tracks t ON t.video_id = pt.video_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.id`,
		artistSep, playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// PlaylistTrackIDs returns the ordered track IDs for a playlist. Cheaper
// than PlaylistTracks for membership diffing.
func (s *Store) PlaylistTrackIDs(playlistID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT video_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY id`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist track ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan track id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// TrackCounts returns the cached entry count per playlist, keyed by
// playlist ID. Playlists with no entries map to zero.
func (s *Store) TrackCounts() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT p.id, COUNT(pt.id)
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON pt.playlist_id = p.id
		GROUP BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query track counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan track count: %w", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

// Track returns a single cached track by ID.
func (s *Store) Track(id string) (*models.Track, error) {
	row := s.db.QueryRow(`
		SELECT t.video_id, t.title, t.album, t.duration, t.is_explicit, '',
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ?)
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), '')
		FROM tracks t WHERE t.video_id = ?`,
		artistSep, id,
	)

	t, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track %s: %w", id, shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track %s: %w", id, err)
	}
	return t, nil
}

// SearchTracks finds tracks matching the query across title, artist and
// album. With an FTS5-enabled driver results come back in relevance order;
// otherwise a substring scan in title order stands in.
func (s *Store) SearchTracks(query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 50
	}

	if !s.fts {
		return s.searchTracksLike(query, limit)
	}

	rows, err := s.db.Query(`
		SELECT t.video_id, t.title, t.album, t.duration, t.is_explicit, '',
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ?)
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), '')
		FROM tracks_fts f
		JOIN tracks t ON t.video_id = f.video_id
		WHERE tracks_fts MATCH ?
		ORDER BY bm25(tracks_fts)
		LIMIT ?`,
		artistSep, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// searchTracksLike is the search path for driver builds without the fts5
// module.
func (s *Store) searchTracksLike(query string, limit int) ([]models.Track, error) {
	pattern := "%" + query + "%"

	rows, err := s.db.Query(`
		SELECT t.video_id, t.title, t.album, t.duration, t.is_explicit, '',
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ?)
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), '')
		FROM tracks t
		WHERE t.title LIKE ? OR t.album LIKE ? OR EXISTS (
			SELECT 1 FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
			WHERE ta.track_id = t.video_id AND a.name LIKE ?
		)
		ORDER BY t.title
		LIMIT ?`,
		artistSep, pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// AllArtists returns every artist name in the catalog with the number of
// tracks attributed to it, ordered by track count descending then name.
func (s *Store) AllArtists() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT a.name, COUNT(ta.track_id)
		FROM artists a
		LEFT JOIN track_artists ta ON ta.artist_id = a.id
		GROUP BY a.id
		ORDER BY COUNT(ta.track_id) DESC, a.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	artists := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists[name] = count
	}

	return artists, rows.Err()
}

// PlaylistsForArtist returns the playlists containing at least one track by
// the named artist, matched case-insensitively.
func (s *Store) PlaylistsForArtist(name string) ([]models.Playlist, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT p.id, p.title, p.description, p.track_count
		FROM playlists p
		JOIN playlist_tracks pt ON pt.playlist_id = p.id
		JOIN track_artists ta ON ta.track_id = pt.video_id
		JOIN artists a ON a.id = ta.artist_id
		WHERE a.name = ? COLLATE NOCASE
		ORDER BY p.title`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for artist %q: %w", name, err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	return playlists, rows.Err()
}

// Snapshot captures the complete playlist structure of the catalog for
// later restoration. Track IDs are recorded in playlist order.
func (s *Store) Snapshot() (*models.LibrarySnapshot, error) {
	playlists, err := s.Playlists()
	if err != nil {
		return nil, err
	}

	snapshot := &models.LibrarySnapshot{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, p := range playlists {
		ids, err := s.PlaylistTrackIDs(p.ID)
		if err != nil {
			return nil, err
		}

		snapshot.Playlists = append(snapshot.Playlists, models.PlaylistSnapshot{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			TrackIDs:    ids,
		})
	}

	return snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*models.Track, error) {
	var t models.Track
	var slotID sql.NullString
	var artists string

	if err := row.Scan(&t.ID, &t.Title, &t.Album, &t.Duration, &t.Explicit, &slotID, &artists); err != nil {
		return nil, err
	}

	t.SlotID = slotID.String
	if artists != "" {
		t.Artists = strings.Split(artists, artistSep)
	}

	return &t, nil
}

func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}
