package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vncsmyrnk/fintrack/internal/app"
	"github.com/vncsmyrnk/fintrack/internal/config"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

// @title                       fintrack API
// @version                     1.0
// @description                 Personal finance tracking with JWT access tokens and cookie backed refresh sessions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}
