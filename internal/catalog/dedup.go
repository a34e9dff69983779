package catalog

import (
	"fmt"
	"strings"

	"github.com/desertthunder/musicbridge/internal/models"
)

// DuplicateTrack describes a track that appears in more than one playlist.
type DuplicateTrack struct {
	Track         models.Track `json:"track"`
	PlaylistCount int          `json:"playlist_count"`
	Playlists     []string     `json:"playlists"`
}

// GlobalDuplicates reports tracks present in two or more playlists, ordered
// by how widely they are duplicated. Purely informational; nothing is
// modified.
func (s *Store) GlobalDuplicates() ([]DuplicateTrack, error) {
	rows, err := s.db.Query(`
		SELECT t.video_id, t.title, t.album, t.duration, t.is_explicit,
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ?)
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), ''),
			COUNT(DISTINCT pt.playlist_id),
			GROUP_CONCAT(DISTINCT p.title)
		FROM tracks t
		JOIN playlist_tracks pt ON pt.video_id = t.video_id
		JOIN playlists p ON p.id = pt.playlist_id
		GROUP BY t.video_id
		HAVING COUNT(DISTINCT pt.playlist_id) > 1
		ORDER BY COUNT(DISTINCT pt.playlist_id) DESC, t.title`,
		artistSep,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query global duplicates: %w", err)
	}
	defer rows.Close()

	var dups []DuplicateTrack
	for rows.Next() {
		var d DuplicateTrack
		var artists, playlists string

		err := rows.Scan(&d.Track.ID, &d.Track.Title, &d.Track.Album, &d.Track.Duration,
			&d.Track.Explicit, &artists, &d.PlaylistCount, &playlists)
		if err != nil {
			return nil, fmt.Errorf("failed to scan duplicate: %w", err)
		}

		if artists != "" {
			d.Track.Artists = strings.Split(artists, artistSep)
		}
		d.Playlists = strings.Split(playlists, ",")

		dups = append(dups, d)
	}

	return dups, rows.Err()
}

// RemoveDuplicateEntries deletes redundant (playlist, track) rows, keeping
// the earliest-inserted row of each pair, then installs the unique index
// that prevents recurrence. Returns the number of rows removed.
func (s *Store) RemoveDuplicateEntries() (int, error) {
	res, err := s.db.Exec(`
		DELETE FROM playlist_tracks
		WHERE id NOT IN (
			SELECT MIN(id) FROM playlist_tracks GROUP BY playlist_id, video_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to remove duplicate entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if !s.tryUniqueEntryIndex() {
		return int(n), fmt.Errorf("failed to install unique playlist entry index")
	}

	return int(n), nil
}

// DeleteEntriesBySlot removes playlist entries by their slot identifiers,
// mirroring a remote removal in the local cache.
func (s *Store) DeleteEntriesBySlot(playlistID string, slotIDs []string) error {
	if len(slotIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(slotIDs)-1) + "?"
	args := make([]any, 0, len(slotIDs)+1)
	args = append(args, playlistID)
	for _, id := range slotIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(`DELETE FROM playlist_tracks WHERE playlist_id = ? AND set_video_id IN (%s)`, placeholders)
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete playlist entries: %w", err)
	}

	return nil
}
