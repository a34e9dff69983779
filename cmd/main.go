package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicbridge/internal/services"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			if config.Credentials.Spotify.AccessToken != "" {
				if err := svc.Authenticate(context.Background(), map[string]string{
					"access_token":  config.Credentials.Spotify.AccessToken,
					"refresh_token": config.Credentials.Spotify.RefreshToken,
				}); err != nil {
					logger.Warn("saved spotify token rejected", "error", err)
				}
			}
			spotifyService = svc
		}
	}

	youtubeService := services.NewYouTubeService(config.Credentials.YouTube.ProxyURL)
	if config.Credentials.YouTube.AuthFile != "" {
		if err := youtubeService.Authenticate(context.Background(), map[string]string{
			"auth_file": config.Credentials.YouTube.AuthFile,
		}); err != nil {
			logger.Warn("youtube auth file rejected", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		YouTube: youtubeService,
		Spotify: spotifyService,
		Logger:  logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:    "musicbridge",
		Usage:   "Mirror, deduplicate and sync a YouTube Music library",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
