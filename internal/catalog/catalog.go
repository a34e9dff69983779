package catalog

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/models"
)

// Store provides access to the catalog database.
//
// The underlying connection is the only shared mutable resource in the
// application; concurrent scan workers funnel their results through it and
// commit per playlist.
type Store struct {
	db  *sql.DB
	fts bool
}

// New creates a Store over an open database with migrations applied.
//
// Installs the (playlist, track) uniqueness index best-effort: creation
// fails harmlessly while historical duplicate rows exist, and
// [Store.RemoveDuplicateEntries] is the designated remediation path.
//
// The full-text search index requires a driver built with the sqlite_fts5
// tag. When the module is unavailable the store falls back to substring
// search and skips index maintenance.
func New(db *sql.DB) *Store {
	s := &Store{db: db}
	s.fts = s.tryFullTextIndex()
	s.tryUniqueEntryIndex()
	return s
}

// DB exposes the underlying connection for callers that manage their own
// transactions (tests, migrations).
func (s *Store) DB() *sql.DB {
	return s.db
}

// tryFullTextIndex creates the tracks_fts table if the driver carries FTS5,
// backfilling entries for any tracks indexed by an earlier non-FTS build.
func (s *Store) tryFullTextIndex() bool {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS tracks_fts USING fts5(video_id UNINDEXED, title, artist, album)`)
	if err != nil {
		return false
	}

	_, err = s.db.Exec(`
		INSERT INTO tracks_fts (video_id, title, artist, album)
		SELECT t.video_id, t.title,
			COALESCE((
				SELECT GROUP_CONCAT(a.name, ', ')
				FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
				WHERE ta.track_id = t.video_id
			), ''),
			t.album
		FROM tracks t
		WHERE t.video_id NOT IN (SELECT video_id FROM tracks_fts)`)
	return err == nil
}

// tryUniqueEntryIndex attempts to install the uniqueness invariant on
// playlist entries. Errors are absorbed; see RemoveDuplicateEntries.
func (s *Store) tryUniqueEntryIndex() bool {
	_, err := s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_playlist_tracks_unique ON playlist_tracks(playlist_id, video_id)`)
	return err == nil
}

// UpsertPlaylist inserts or refreshes playlist metadata. Title, description
// and the remote-reported track count are always overwritten.
func (s *Store) UpsertPlaylist(id, title, description string, trackCount int) error {
	query := `
		INSERT INTO playlists (id, title, description, track_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			track_count = excluded.track_count
	`
	if _, err := s.db.Exec(query, id, title, description, trackCount); err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", id, err)
	}
	return nil
}

// UpsertTrack inserts a track and its playlist association in a single
// transaction. Returns true if the track was not previously known.
func (s *Store) UpsertTrack(track models.Track, playlistID string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	isNew, err := s.upsertTrackTx(tx, track)
	if err != nil {
		return false, err
	}

	if err := linkTrackTx(tx, playlistID, track); err != nil {
		return false, err
	}

	return isNew, tx.Commit()
}

// ApplyPlaylistTracks upserts a playlist's complete track listing in one
// transaction, amortizing commit cost across the batch. Returns the tracks
// that were newly created in the catalog, in listing order.
//
// Tracks without a remote ID (local uploads) are skipped.
func (s *Store) ApplyPlaylistTracks(playlistID string, tracks []models.Track) ([]models.Track, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var created []models.Track
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}

		isNew, err := s.upsertTrackTx(tx, track)
		if err != nil {
			return nil, err
		}

		if err := linkTrackTx(tx, playlistID, track); err != nil {
			return nil, err
		}

		if isNew {
			created = append(created, track)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit playlist %s: %w", playlistID, err)
	}

	return created, nil
}

// upsertTrackTx inserts a track row if absent, along with its normalized
// artists and its FTS index entry. Existing rows are left untouched so
// rescans stay idempotent.
func (s *Store) upsertTrackTx(tx *sql.Tx, track models.Track) (bool, error) {
	res, err := tx.Exec(`
		INSERT OR IGNORE INTO tracks (video_id, title, album, duration, is_explicit)
		VALUES (?, ?, ?, ?, ?)`,
		track.ID, track.Title, track.Album, track.Duration, track.Explicit,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert track %s: %w", track.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	for _, name := range track.Artists {
		if name == "" {
			continue
		}
		if err := linkArtistTx(tx, track.ID, name); err != nil {
			return false, err
		}
	}

	// Index entry lives and dies with the track row, in the same transaction.
	if s.fts {
		_, err = tx.Exec(`INSERT INTO tracks_fts (video_id, title, artist, album) VALUES (?, ?, ?, ?)`,
			track.ID, track.Title, track.DisplayArtist(), track.Album,
		)
		if err != nil {
			return false, fmt.Errorf("failed to index track %s: %w", track.ID, err)
		}
	}

	return true, nil
}

func linkArtistTx(tx *sql.Tx, trackID, name string) error {
	if _, err := tx.Exec(`INSERT OR IGNORE INTO artists (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to insert artist %s: %w", name, err)
	}

	var artistID int64
	if err := tx.QueryRow(`SELECT id FROM artists WHERE name = ?`, name).Scan(&artistID); err != nil {
		return fmt.Errorf("failed to look up artist %s: %w", name, err)
	}

	if _, err := tx.Exec(`INSERT OR IGNORE INTO track_artists (track_id, artist_id) VALUES (?, ?)`, trackID, artistID); err != nil {
		return fmt.Errorf("failed to link artist %s: %w", name, err)
	}

	return nil
}

// linkTrackTx associates a track with a playlist. Re-insertion of an
// existing (playlist, track) pair replaces the slot identifier on the
// earliest row instead of creating a duplicate association.
func linkTrackTx(tx *sql.Tx, playlistID string, track models.Track) error {
	var entryID int64
	err := tx.QueryRow(`
		SELECT id FROM playlist_tracks
		WHERE playlist_id = ? AND video_id = ?
		ORDER BY id LIMIT 1`,
		playlistID, track.ID,
	).Scan(&entryID)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO playlist_tracks (playlist_id, video_id, set_video_id)
			VALUES (?, ?, ?)`,
			playlistID, track.ID, track.SlotID,
		)
		if err != nil {
			return fmt.Errorf("failed to link track %s to playlist %s: %w", track.ID, playlistID, err)
		}
	case err != nil:
		return fmt.Errorf("failed to query playlist entry: %w", err)
	default:
		_, err = tx.Exec(`UPDATE playlist_tracks SET set_video_id = ? WHERE id = ?`, track.SlotID, entryID)
		if err != nil {
			return fmt.Errorf("failed to refresh playlist entry: %w", err)
		}
	}

	return nil
}

// DeletePlaylist removes a playlist and its associations. Track rows are
// left behind for orphan cleanup.
func (s *Store) DeletePlaylist(id string) error {
	if _, err := s.db.Exec(`DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	return nil
}

// CleanupOrphans deletes tracks with no remaining playlist association, then
// artists with no remaining track. Track orphans go first: artist
// orphanhood is only well-defined once they are gone.
//
// Running it twice in a row removes nothing the second time.
func (s *Store) CleanupOrphans() (tracksRemoved, artistsRemoved int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM tracks
		WHERE video_id NOT IN (SELECT DISTINCT video_id FROM playlist_tracks)`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete orphan tracks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	tracksRemoved = int(n)

	if s.fts {
		if _, err := tx.Exec(`
			DELETE FROM tracks_fts
			WHERE video_id NOT IN (SELECT video_id FROM tracks)`); err != nil {
			return 0, 0, fmt.Errorf("failed to prune track index: %w", err)
		}
	}

	res, err = tx.Exec(`
		DELETE FROM artists
		WHERE id NOT IN (SELECT DISTINCT artist_id FROM track_artists)`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete orphan artists: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	artistsRemoved = int(n)

	return tracksRemoved, artistsRemoved, tx.Commit()
}
