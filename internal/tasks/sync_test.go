package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	tu "github.com/desertthunder/musicbridge/internal/testing"
)

// echoTarget returns a target mock whose search finds an exact counterpart
// for every track, with target-side IDs prefixed "sp-".
func echoTarget() *tu.MockService {
	return &tu.MockService{
		ServiceName: "Spotify",
		ListPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
			return nil, nil
		},
		SearchTrackFunc: func(ctx context.Context, title, artist string) (*models.Track, error) {
			return &models.Track{
				ID:      "sp-" + strings.ToLower(strings.ReplaceAll(title, " ", "-")),
				Title:   title,
				Artists: []string{artist},
			}, nil
		},
		CreatePlaylistFunc: func(ctx context.Context, title, description string) (*models.Playlist, error) {
			return &models.Playlist{ID: "sp-playlist", Title: title, Description: description}, nil
		},
	}
}

func seedSyncSource(t *testing.T, e *Engine, tracks []models.Track) {
	t.Helper()

	store := e.store
	if err := store.UpsertPlaylist("PL1", "Mix", "", len(tracks)); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	if _, err := store.ApplyPlaylistTracks("PL1", tracks); err != nil {
		t.Fatalf("failed to seed tracks: %v", err)
	}
}

func TestSync(t *testing.T) {
	sourceTracks := []models.Track{
		track("v1", "First Song", "Artist A"),
		track("v2", "Second Song", "Artist B"),
		track("v3", "Third Song", "Artist C"),
	}

	t.Run("creates target and adds matches", func(t *testing.T) {
		target := echoTarget()
		var addedIDs []string
		target.AddTracksFunc = func(ctx context.Context, playlistID string, trackIDs []string) error {
			addedIDs = append(addedIDs, trackIDs...)
			return nil
		}

		e, _ := newTestEngine(t, &tu.MockService{}, target)
		seedSyncSource(t, e, sourceTracks)

		result, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if !result.TargetCreated {
			t.Error("expected target playlist to be created")
		}
		if result.TargetPlaylist.Title != "Mix" {
			t.Errorf("expected target title Mix, got %q", result.TargetPlaylist.Title)
		}
		if len(result.Matched) != 3 {
			t.Errorf("expected 3 matches, got %d", len(result.Matched))
		}
		if result.Added != 3 || len(addedIDs) != 3 {
			t.Errorf("expected 3 additions, got %d (%v)", result.Added, addedIDs)
		}
		if result.MatchPercentage != 100 {
			t.Errorf("expected 100%% match, got %.1f", result.MatchPercentage)
		}
	})

	t.Run("is idempotent against a populated target", func(t *testing.T) {
		target := echoTarget()
		target.ListPlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{{ID: "sp-playlist", Title: "Mix", TrackCount: 3}}, nil
		}
		target.ListTracksFunc = func(ctx context.Context, playlistID string) ([]models.Track, error) {
			return []models.Track{
				{ID: "sp-first-song", Title: "First Song", Artists: []string{"Artist A"}},
				{ID: "sp-second-song", Title: "Second Song", Artists: []string{"Artist B"}},
				{ID: "sp-third-song", Title: "Third Song", Artists: []string{"Artist C"}},
			}, nil
		}

		e, _ := newTestEngine(t, &tu.MockService{}, target)
		seedSyncSource(t, e, sourceTracks)

		result, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if result.TargetCreated {
			t.Error("expected existing target to be reused")
		}
		if result.AlreadyPresent != 3 {
			t.Errorf("expected all 3 present, got %d", result.AlreadyPresent)
		}
		if result.Added != 0 || target.AddTracksCalls != 0 {
			t.Errorf("expected no writes on repeat sync, added=%d calls=%d", result.Added, target.AddTracksCalls)
		}
		if target.SearchTrackCalls != 0 {
			t.Errorf("expected no searches for present tracks, got %d", target.SearchTrackCalls)
		}
	})

	t.Run("reports unmatched and low confidence tracks", func(t *testing.T) {
		target := echoTarget()
		target.SearchTrackFunc = func(ctx context.Context, title, artist string) (*models.Track, error) {
			switch title {
			case "First Song":
				return &models.Track{ID: "sp1", Title: title, Artists: []string{artist}}, nil
			case "Second Song":
				return nil, errors.New("no results")
			default:
				return &models.Track{ID: "sp3", Title: "Unrelated Noise", Artists: []string{"Wrong Artist"}}, nil
			}
		}

		e, _ := newTestEngine(t, &tu.MockService{}, target)
		seedSyncSource(t, e, sourceTracks)

		result, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if len(result.Matched) != 1 {
			t.Errorf("expected 1 match, got %d", len(result.Matched))
		}
		if len(result.Missing) != 2 {
			t.Fatalf("expected 2 missing, got %d", len(result.Missing))
		}

		reasons := map[string]string{}
		for _, m := range result.Missing {
			reasons[m.Original.Title] = m.Reason
		}
		if reasons["Second Song"] != "no match found" {
			t.Errorf("unexpected reason for unmatched track: %q", reasons["Second Song"])
		}
		if reasons["Third Song"] != "low confidence match" {
			t.Errorf("unexpected reason for low-confidence track: %q", reasons["Third Song"])
		}
	})

	t.Run("falls back to individual adds when a batch fails", func(t *testing.T) {
		tracks := make([]models.Track, 120)
		for i := range tracks {
			tracks[i] = track(fmt.Sprintf("v%03d", i), fmt.Sprintf("Song %03d", i), "Artist")
		}

		target := echoTarget()
		var individual int
		target.AddTracksFunc = func(ctx context.Context, playlistID string, trackIDs []string) error {
			if len(trackIDs) > 1 {
				for _, id := range trackIDs {
					if id == "sp-song-057" {
						return errors.New("batch rejected")
					}
				}
				return nil
			}
			individual++
			if trackIDs[0] == "sp-song-057" {
				return errors.New("track unavailable")
			}
			return nil
		}

		e, _ := newTestEngine(t, &tu.MockService{}, target)
		seedSyncSource(t, e, tracks)

		result, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		// Batch of 100 contains the bad track and is retried one by one;
		// the second batch of 20 goes through whole.
		if individual != 100 {
			t.Errorf("expected 100 individual retries, got %d", individual)
		}
		if result.Added != 119 {
			t.Errorf("expected 119 added, got %d", result.Added)
		}
		if len(result.Failed) != 1 || result.Failed[0] != "sp-song-057" {
			t.Errorf("expected the bad track reported, got %v", result.Failed)
		}
	})

	t.Run("dry run searches but never writes", func(t *testing.T) {
		target := echoTarget()
		e, _ := newTestEngine(t, &tu.MockService{}, target)
		seedSyncSource(t, e, sourceTracks)

		result, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{DryRun: true})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if len(result.Matched) != 3 {
			t.Errorf("expected matches under dry run, got %d", len(result.Matched))
		}
		if target.AddTracksCalls != 0 || target.CreatePlaylistCalls != 0 {
			t.Errorf("dry run must not write: adds=%d creates=%d", target.AddTracksCalls, target.CreatePlaylistCalls)
		}
	})

	t.Run("falls back to remote when catalog is cold", func(t *testing.T) {
		source := &tu.MockService{
			ListPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{{ID: "PL9", Title: "Fresh", TrackCount: 1}}, nil
			},
			ListTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return []models.Track{track("v9", "Brand New", "Artist Z")}, nil
			},
		}
		target := echoTarget()

		e, _ := newTestEngine(t, source, target)

		result, err := e.Sync(context.Background(), nil, "Fresh", SyncOpts{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if source.ListTracksCalls != 1 {
			t.Errorf("expected remote listing fallback, got %d calls", source.ListTracksCalls)
		}
		if result.Added != 1 {
			t.Errorf("expected 1 added, got %d", result.Added)
		}
	})

	t.Run("requires target service", func(t *testing.T) {
		e, _ := newTestEngine(t, &tu.MockService{}, nil)
		_, err := e.Sync(context.Background(), nil, "Mix", SyncOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
