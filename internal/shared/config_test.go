package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "musicbridge.db" {
			t.Errorf("expected database path musicbridge.db, got %s", config.Database.Path)
		}

		if config.Scan.Workers != 5 {
			t.Errorf("expected 5 scan workers, got %d", config.Scan.Workers)
		}

		if config.Sync.BatchSize != 100 {
			t.Errorf("expected sync batch size 100, got %d", config.Sync.BatchSize)
		}

		if config.Export.SnapshotPath != "library_snapshot.json" {
			t.Errorf("expected snapshot path library_snapshot.json, got %s", config.Export.SnapshotPath)
		}

		ignored := map[string]bool{}
		for _, title := range config.Scan.IgnoredPlaylists {
			ignored[title] = true
		}
		for _, want := range []string{"Liked Music", "Watch Later"} {
			if !ignored[want] {
				t.Errorf("expected %q in default ignored playlists", want)
			}
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[credentials.youtube]
proxy_url = "http://localhost:9090"
auth_file = "/path/to/browser.json"

[scan]
workers = 2
rate_limit = 1.5
ignored_playlists = ["Mixes"]

[sync]
batch_size = 25
rate_limit = 0.5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Scan.Workers != 2 {
			t.Errorf("expected 2 workers, got %d", config.Scan.Workers)
		}

		if config.Sync.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", config.Sync.BatchSize)
		}

		if len(config.Scan.IgnoredPlaylists) != 1 || config.Scan.IgnoredPlaylists[0] != "Mixes" {
			t.Errorf("expected ignored playlists [Mixes], got %v", config.Scan.IgnoredPlaylists)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig round-trips tokens", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "saved_access"
		config.Credentials.Spotify.RefreshToken = "saved_refresh"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}

		if loaded.Credentials.Spotify.AccessToken != "saved_access" {
			t.Errorf("expected access token to persist, got %q", loaded.Credentials.Spotify.AccessToken)
		}
		if loaded.Credentials.Spotify.RefreshToken != "saved_refresh" {
			t.Errorf("expected refresh token to persist, got %q", loaded.Credentials.Spotify.RefreshToken)
		}
		if loaded.Database.Path != config.Database.Path {
			t.Errorf("expected database settings to persist, got %q", loaded.Database.Path)
		}
	})
}
