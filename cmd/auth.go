package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/speedwagon1299/MoodyGrooves/internal/server"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Setup creates a starter config file from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Created %s\n", configPath)
	r.writePlain("Fill in your Spotify client credentials before running other commands.\n")
	return nil
}

// Auth runs the OAuth2 authorization flow with a local HTTP server, then
// stores the token pair under the resolved principal.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}

	app, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	state := shared.GenerateID()
	oauthCfg := r.oauthConfig()

	handler := server.NewCallbackHandler(oauthCfg, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	authURL := oauthCfg.AuthCodeURL(state)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return fmt.Errorf("%w: no token received", shared.ErrTokenExchange)
	}

	profile, err := app.spotify.ProfileWithToken(ctx, result.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to resolve identity: %w", err)
	}

	expiresIn := int(time.Until(result.Token.Expiry).Seconds())
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	scope, _ := result.Token.Extra("scope").(string)

	if err := app.manager.StoreTokens(ctx, profile.ID, tokens.TokenResponse{
		AccessToken:  result.Token.AccessToken,
		TokenType:    result.Token.TokenType,
		ExpiresIn:    expiresIn,
		RefreshToken: result.Token.RefreshToken,
		Scope:        scope,
	}); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	if r.config.Cache.RedisURL == "" {
		r.logger.Warn("tokens stored in the in-process cache will not survive this run")
	}

	r.writePlain("✓ Authenticated as %s\n", profile.ID)
	if profile.DisplayName != "" {
		r.writePlain("  Display name: %s\n", profile.DisplayName)
	}
	r.writePlain("Use --user %s with the playlists and filter commands.\n", profile.ID)
	return nil
}
