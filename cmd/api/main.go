package main

import (
	"context"
	"github.com/IlyasAtabaev731/finance-records/internal/api"
	"github.com/IlyasAtabaev731/finance-records/internal/config"
	"github.com/IlyasAtabaev731/finance-records/internal/storage/postgres"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
		slog.Bool("enforce_ownership", cfg.Ledger.EnforceOwnership),
	)

	if cfg.MigrateOnStart {
		applied, err := postgres.Migrate(cfg.DatabaseURL, "migrations")
		if err != nil {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations checked", slog.Bool("applied", applied))
	}

	storage, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	apiServer := api.New(cfg, log, storage, []byte(cfg.JWT.Secret))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}

	if err := storage.Stop(); err != nil {
		log.Error("Closing storage error", "error", err)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
