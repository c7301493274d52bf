// Package main is the entry point for the quotesync service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/wiring"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	app, err := wiring.Build(ctx, cfg, wiring.Options{
		BuildInfo: handlers.NewBuildInfo(Version, Commit, BuildTime),
	})
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	app.Logger.InfoContext(ctx, "starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("sync", app.Scheduler != nil),
		slog.Bool("inbox", app.Inbox != nil),
	)

	runErr := app.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Close(shutdownCtx); err != nil {
		app.Logger.ErrorContext(shutdownCtx, "shutdown error", slog.Any("error", err))
	}

	if runErr != nil {
		return fmt.Errorf("running service: %w", runErr)
	}

	app.Logger.InfoContext(shutdownCtx, "shutdown complete")

	return nil
}
