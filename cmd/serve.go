package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/speedwagon1299/MoodyGrooves/internal/server"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd.String("config")); err != nil {
		return err
	}

	app, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))

	router.Handler(server.NewAuthHandler(server.AuthHandlerOpts{
		Orchestrator: app.orch,
		Logger:       r.logger,
		CookieName:   r.config.Server.CookieName,
		CookieSecure: r.config.Server.CookieSecure,
		FrontendURL:  r.config.Server.FrontendURL,
	}))

	router.HandlerWith(
		server.NewAPIHandler(app.spotify, app.engine, r.logger),
		server.SessionAuth(app.orch, r.config.Server.CookieName),
	)

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(r.config.Server.Addr(), router, r.config.Server.Timeout(), r.logger)
	return srv.Start(signalCtx)
}

// reloadConfig swaps the runner's config for the one at path when it exists.
func (r *Runner) reloadConfig(path string) error {
	if path == "" {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return nil
	}

	r.config = config
	return nil
}
