package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Scan        ScanConfig        `toml:"scan"`
	Sync        SyncConfig        `toml:"sync"`
	Export      ExportConfig      `toml:"export"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials and saved OAuth tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token,omitempty"`
	RefreshToken string `toml:"refresh_token,omitempty"`
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ScanConfig tunes the scan engine's fetch concurrency and playlist filter.
type ScanConfig struct {
	Workers            int      `toml:"workers"`
	RateLimit          float64  `toml:"rate_limit"`
	IgnoredPlaylists   []string `toml:"ignored_playlists"`
	IgnoredPlaylistIDs []string `toml:"ignored_playlist_ids"`
}

// SyncConfig tunes the cross-catalog sync engine's write batching.
type SyncConfig struct {
	BatchSize int     `toml:"batch_size"`
	RateLimit float64 `toml:"rate_limit"`
}

// ExportConfig locates the library snapshot used as the restore source.
type ExportConfig struct {
	SnapshotPath string `toml:"snapshot_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes the configuration back to a TOML file, replacing any
// existing content. Used to persist OAuth tokens between runs.
func SaveConfig(path string, config *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
