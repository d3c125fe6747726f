package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-salesboard/components/dashboard/gorouter"
	"github.com/goliatone/go-salesboard/pkg/salesapi"
	"github.com/goliatone/go-salesboard/pkg/session"
)

type serveCmd struct {
	Addr     string `help:"Listen address, overrides server.address."`
	BasePath string `help:"Mount path for the dashboard, overrides server.base_path."`
}

func (c *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.BasePath != "" {
		cfg.Server.BasePath = c.BasePath
	}
	logger := g.logger(cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: app.controller,
		API:        app.handlers,
		Broadcast:  app.broadcast,
		Sessions:   app.sessions,
		Auth:       salesapi.Authenticator{Client: app.client},
		OnLogout:   app.releaseSession,
		BasePath:   cfg.Server.BasePath,
	}); err != nil {
		return err
	}

	go sweepSessions(ctx, app.sessions, cfg.Dashboard.SessionTTL, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(cfg.Server.Address)
	}()
	logger.Info("dashboard ready",
		"address", cfg.Server.Address,
		"path", cfg.Server.BasePath+"/dashboard",
		"mock", cfg.API.Mock,
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sweepSessions evicts expired sessions every ttl until ctx is done.
func sweepSessions(ctx context.Context, store *session.MemoryStore, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(ctx); n > 0 {
				logger.Debug("expired sessions swept", "count", n)
			}
		}
	}
}
