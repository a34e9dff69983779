package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/services"
	"github.com/desertthunder/musicbridge/internal/shared"
	tu "github.com/desertthunder/musicbridge/internal/testing"
	"golang.org/x/time/rate"
)

// setupTestStore creates a catalog store over an in-memory SQLite database.
func setupTestStore(t *testing.T) *catalog.Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return catalog.New(db)
}

// newTestEngine wires an Engine with a fresh in-memory catalog and a
// discarded logger.
func newTestEngine(t *testing.T, source, target services.Service) (*Engine, *catalog.Store) {
	t.Helper()

	store := setupTestStore(t)
	config := shared.DefaultConfig()
	// Tests should not wait on the production request rates.
	config.Scan.RateLimit = 10000
	config.Sync.RateLimit = 10000
	logger := shared.NewLogger(io.Discard)

	return NewEngine(source, target, store, config, logger), store
}

func track(id, title string, artists ...string) models.Track {
	return models.Track{
		ID:      id,
		Title:   title,
		Artists: artists,
		SlotID:  "slot-" + id,
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func TestFindDuplicates(t *testing.T) {
	t.Run("repeated id", func(t *testing.T) {
		tracks := []models.Track{
			{ID: "a", Title: "One", Artists: []string{"X"}, SlotID: "s1"},
			{ID: "b", Title: "Two", Artists: []string{"Y"}, SlotID: "s2"},
			{ID: "a", Title: "One", Artists: []string{"X"}, SlotID: "s3"},
		}

		dups := findDuplicates(tracks)
		if len(dups) != 1 {
			t.Fatalf("expected 1 duplicate, got %d", len(dups))
		}
		if dups[0].SlotID != "s3" {
			t.Errorf("expected later occurrence s3, got %s", dups[0].SlotID)
		}
	})

	t.Run("same recording under different id", func(t *testing.T) {
		tracks := []models.Track{
			{ID: "a", Title: "Same Song", Artists: []string{"Artist"}, SlotID: "s1"},
			{ID: "b", Title: "same song", Artists: []string{"artist"}, SlotID: "s2"},
		}

		dups := findDuplicates(tracks)
		if len(dups) != 1 {
			t.Fatalf("expected signature fallback to catch re-upload, got %d", len(dups))
		}
		if dups[0].ID != "b" {
			t.Errorf("expected first occurrence to win, got duplicate %s", dups[0].ID)
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		tracks := []models.Track{
			{ID: "a", Title: "One", Artists: []string{"X"}},
			{ID: "b", Title: "Two", Artists: []string{"X"}},
		}

		if dups := findDuplicates(tracks); len(dups) != 0 {
			t.Errorf("expected no duplicates, got %v", dups)
		}
	})
}

func TestAddInBatchesPacing(t *testing.T) {
	svc := &tu.MockService{}
	e, _ := newTestEngine(t, svc, nil)

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}

	limiter := rate.NewLimiter(rate.Limit(100), 1)
	start := time.Now()
	added, failed, err := e.addInBatches(context.Background(), nil, svc, "PL1", ids, 100, limiter)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("batch add failed: %v", err)
	}
	if added != 250 || len(failed) != 0 {
		t.Fatalf("expected 250 added and none failed, got %d added, %d failed", added, len(failed))
	}
	if svc.AddTracksCalls != 3 {
		t.Errorf("expected 3 batch requests, got %d", svc.AddTracksCalls)
	}

	// Three waits on a 100/s limiter with burst 1 cannot finish faster
	// than the two inter-request intervals.
	if elapsed < 20*time.Millisecond {
		t.Errorf("expected batch requests to be paced, finished in %v", elapsed)
	}
}

func TestProgressNeverBlocks(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil)

	// Unbuffered channel with no reader; sends must be dropped, not block.
	progress := make(chan ProgressUpdate)
	for range 10 {
		e.sendProgress(progress, ProgressUpdate{Phase: FetchTracks, Message: "tick"})
	}

	e.sendProgress(nil, ProgressUpdate{Phase: FetchTracks})
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		ListPlaylists:    "list_playlists",
		FetchTracks:      "fetch_tracks",
		Cleanup:          "cleanup",
		ExportSnapshot:   "export_snapshot",
		FindDuplicates:   "find_duplicates",
		RemoveEntries:    "remove_entries",
		MatchTracks:      "match_tracks",
		AddEntries:       "add_entries",
		CreatePlaylist:   "create_playlist",
		SortEntries:      "sort_entries",
		RestorePlaylists: "restore_playlists",
	}

	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}

	if got := Phase(99).String(); got != "" {
		t.Errorf("unknown phase should stringify empty, got %q", got)
	}
}
