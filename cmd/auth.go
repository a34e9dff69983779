package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicbridge/internal/services"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// spotifyService asserts the configured target back to its concrete type for
// the OAuth helpers the Service interface does not expose.
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	svc, ok := r.spotify.(*services.SpotifyService)
	if !ok || svc == nil {
		return nil, fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}
	return svc, nil
}

// AuthURL prints the Spotify authorization URL for the user to open.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	url := svc.GetAuthURL(state)

	r.writePlain("Open this URL in your browser and approve access:\n\n")
	r.writePlain("%s\n\n", url)
	r.writePlain("%s\n", ui.Help("Then run 'auth code <code>' with the code from the redirect URL."))

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	return nil
}

// AuthCode exchanges an authorization code for tokens and saves them.
func (r *Runner) AuthCode(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	svc, err := r.spotifyService()
	if err != nil {
		return err
	}

	if err := svc.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		return err
	}

	token := svc.Token()
	r.config.Credentials.Spotify.AccessToken = token.AccessToken
	r.config.Credentials.Spotify.RefreshToken = token.RefreshToken

	configPath := cmd.String("config")
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		return err
	}

	r.logger.Info("spotify tokens saved", "config", configPath)
	r.writePlain("%s\n", ui.OK("Authenticated with Spotify. Tokens saved."))
	return nil
}

// authCommand handles the Spotify OAuth flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify",
		Commands: []*cli.Command{
			{
				Name:  "url",
				Usage: "Print the Spotify authorization URL",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "open", Usage: "open the URL in the default browser"},
				},
				Action: r.AuthURL,
			},
			{
				Name:  "code",
				Usage: "Exchange an authorization code and save the tokens",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "code",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthCode,
			},
		},
	}
}
