package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	tu "github.com/desertthunder/musicbridge/internal/testing"
	"github.com/urfave/cli/v3"
)

func setupTestStore(t *testing.T) *catalog.Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return catalog.New(db)
}

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Scan.RateLimit = 10000
	config.Sync.RateLimit = 10000
	return config
}

// newTestApp wires a runner over mocks and returns the app plus its output buffer.
func newTestApp(t *testing.T, youtube, spotify *tu.MockService, store *catalog.Store) (*cli.Command, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Config: testConfig(),
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
		Store:  store,
	}
	if youtube != nil {
		opts.YouTube = youtube
	}
	if spotify != nil {
		opts.Spotify = spotify
	}

	runner := NewRunner(opts)
	app := &cli.Command{Name: "musicbridge", Commands: runner.register()}
	return app, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			youtube := &tu.MockService{}
			spotify := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				YouTube: youtube,
				Spotify: spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.youtube != youtube {
				t.Error("expected youtube to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "scan", "dedupe", "duplicates", "sync", "sort", "restore", "search", "artists", "export"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestSetupConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	app, output := newTestApp(t, nil, nil, nil)

	err := app.Run(context.Background(), []string{"musicbridge", "setup", "config", "--output", path})
	if err != nil {
		t.Fatalf("setup config failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
	if !strings.Contains(output.String(), "Config written") {
		t.Errorf("expected confirmation, got %q", output.String())
	}

	t.Run("refuses to overwrite", func(t *testing.T) {
		err := app.Run(context.Background(), []string{"musicbridge", "setup", "config", "--output", path})
		if err == nil {
			t.Error("expected error for existing config file")
		}
	})
}

func TestSetupDatabaseCommand(t *testing.T) {
	store := setupTestStore(t)
	db := store.DB()

	// A catalog written by an earlier version: duplicate playlist entries
	// and no uniqueness index.
	if _, err := db.Exec(`DROP INDEX IF EXISTS idx_playlist_tracks_unique`); err != nil {
		t.Fatalf("failed to drop index: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO playlists (id, title, description, track_count) VALUES ('PL1', 'Mix', '', 2)`); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO tracks (video_id, title) VALUES ('v1', 'One')`); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	for _, slot := range []string{"s1", "s2"} {
		if _, err := db.Exec(`INSERT INTO playlist_tracks (playlist_id, video_id, set_video_id) VALUES ('PL1', 'v1', ?)`, slot); err != nil {
			t.Fatalf("failed to seed entry: %v", err)
		}
	}

	app, output := newTestApp(t, nil, nil, store)

	err := app.Run(context.Background(), []string{"musicbridge", "setup", "database"})
	if err != nil {
		t.Fatalf("setup database failed: %v", err)
	}

	var entries int
	if err := db.QueryRow(`SELECT COUNT(*) FROM playlist_tracks`).Scan(&entries); err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if entries != 1 {
		t.Errorf("expected duplicate cache entries to be healed, got %d rows", entries)
	}

	var indexes int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_playlist_tracks_unique'`).Scan(&indexes); err != nil {
		t.Fatalf("failed to query indexes: %v", err)
	}
	if indexes != 1 {
		t.Error("expected unique playlist entry index to be installed")
	}

	if !strings.Contains(output.String(), "Removed 1 duplicate") {
		t.Errorf("expected removal report, got %q", output.String())
	}
	if !strings.Contains(output.String(), "Database ready") {
		t.Errorf("expected ready confirmation, got %q", output.String())
	}
}

func TestSearchCommand(t *testing.T) {
	store := setupTestStore(t)
	if err := store.UpsertPlaylist("PL1", "Mix", "", 1); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	tracks := []models.Track{
		{ID: "v1", Title: "Golden Hour", Artists: []string{"Kacey"}, Album: "LP"},
		{ID: "v2", Title: "Blue Monday", Artists: []string{"New Order"}},
	}
	if _, err := store.ApplyPlaylistTracks("PL1", tracks); err != nil {
		t.Fatalf("failed to seed tracks: %v", err)
	}

	app, output := newTestApp(t, nil, nil, store)

	err := app.Run(context.Background(), []string{"musicbridge", "search", "golden"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if !strings.Contains(output.String(), "Golden Hour") {
		t.Errorf("expected matching track in output, got %q", output.String())
	}
	if strings.Contains(output.String(), "Blue Monday") {
		t.Errorf("expected non-matching track to be absent, got %q", output.String())
	}
}

func TestArtistsCommands(t *testing.T) {
	store := setupTestStore(t)
	if err := store.UpsertPlaylist("PL1", "Mix", "", 2); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	tracks := []models.Track{
		{ID: "v1", Title: "One", Artists: []string{"Bowie"}},
		{ID: "v2", Title: "Two", Artists: []string{"Bowie"}},
		{ID: "v3", Title: "Three", Artists: []string{"Eno"}},
	}
	if _, err := store.ApplyPlaylistTracks("PL1", tracks); err != nil {
		t.Fatalf("failed to seed tracks: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		app, output := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "artists", "list"})
		if err != nil {
			t.Fatalf("artists list failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 artists, got %d lines: %q", len(lines), output.String())
		}
		if !strings.Contains(lines[0], "Bowie") {
			t.Errorf("expected Bowie first by track count, got %q", lines[0])
		}
	})

	t.Run("playlists", func(t *testing.T) {
		app, output := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "artists", "playlists", "bowie"})
		if err != nil {
			t.Fatalf("artists playlists failed: %v", err)
		}

		if !strings.Contains(output.String(), "Mix (2 tracks)") {
			t.Errorf("expected playlist listing, got %q", output.String())
		}
	})
}

func TestExportCommand(t *testing.T) {
	store := setupTestStore(t)
	if err := store.UpsertPlaylist("PL1", "Mix", "test mix", 1); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}
	tracks := []models.Track{{ID: "v1", Title: "One", Artists: []string{"Bowie"}, Album: "LP"}}
	if _, err := store.ApplyPlaylistTracks("PL1", tracks); err != nil {
		t.Fatalf("failed to seed tracks: %v", err)
	}

	t.Run("csv to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.csv")
		app, _ := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "export", "--format", "csv", "--output", path, "Mix"})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), "v1,One,Bowie,LP") {
			t.Errorf("unexpected CSV content: %q", data)
		}
	})

	t.Run("json to stdout", func(t *testing.T) {
		app, output := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "export", "Mix"})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(output.String(), `"title": "One"`) {
			t.Errorf("expected JSON listing, got %q", output.String())
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		app, _ := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "export", "--format", "xml", "Mix"})
		if err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		app, _ := newTestApp(t, nil, nil, store)

		err := app.Run(context.Background(), []string{"musicbridge", "export", "Nope"})
		if err == nil {
			t.Error("expected error for unknown playlist")
		}
	})
}

func TestScanCommand(t *testing.T) {
	store := setupTestStore(t)
	youtube := &tu.MockService{
		ServiceName: "YouTube Music",
		ListPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{{ID: "PL1", Title: "Mix", TrackCount: 1}}, nil
		},
		ListTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
			return []models.Track{{ID: "v1", Title: "One", Artists: []string{"Bowie"}}}, nil
		},
	}

	app, output := newTestApp(t, youtube, nil, store)

	err := app.Run(context.Background(), []string{"musicbridge", "scan", "--snapshot", "-", "--json"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if !strings.Contains(output.String(), `"playlists_scanned": 1`) {
		t.Errorf("expected scan summary JSON, got %q", output.String())
	}

	playlists, err := store.Playlists()
	if err != nil {
		t.Fatalf("failed to list playlists: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Title != "Mix" {
		t.Errorf("expected catalog to hold the scanned playlist, got %+v", playlists)
	}
}

func TestDedupeCommand(t *testing.T) {
	store := setupTestStore(t)
	youtube := &tu.MockService{
		ServiceName: "YouTube Music",
		ListPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{{ID: "PL1", Title: "Mix", TrackCount: 3}}, nil
		},
		ListTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
			return []models.Track{
				{ID: "v1", Title: "One", Artists: []string{"Bowie"}, SlotID: "s1"},
				{ID: "v2", Title: "Two", Artists: []string{"Eno"}, SlotID: "s2"},
				{ID: "v1", Title: "One", Artists: []string{"Bowie"}, SlotID: "s3"},
			}, nil
		},
	}

	app, output := newTestApp(t, youtube, nil, store)

	err := app.Run(context.Background(), []string{"musicbridge", "dedupe", "--dry-run", "Mix"})
	if err != nil {
		t.Fatalf("dedupe failed: %v", err)
	}

	if youtube.RemoveTracksCalls != 0 {
		t.Errorf("dry run must not remove, got %d calls", youtube.RemoveTracksCalls)
	}
	if !strings.Contains(output.String(), "Duplicates found: 1") {
		t.Errorf("expected duplicate report, got %q", output.String())
	}
}
