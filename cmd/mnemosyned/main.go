// Package main provides the entry point for the Mnemosyne checkpoint
// service: the REST API viewers' players save and resume playback
// positions against.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/janovincze/mnemosyne/internal/api"
	"github.com/janovincze/mnemosyne/internal/api/middleware"
	"github.com/janovincze/mnemosyne/internal/api/repositories"
	"github.com/janovincze/mnemosyne/internal/api/services"
	"github.com/janovincze/mnemosyne/internal/config"
	"github.com/janovincze/mnemosyne/internal/retention"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting mnemosyne",
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewCheckpointRepository(db)
	if err := repo.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	progressService := services.NewProgressService(repo, cfg.Playback.CompletionThreshold, logger)

	serverCfg := api.DefaultServerConfig(cfg, logger)
	serverCfg.DB = db
	serverCfg.ProgressService = progressService
	serverCfg.CORSConfig.AllowedOrigins = cfg.API.CORSOrigins
	serverCfg.RateLimitConfig = middleware.RateLimitConfig{
		RequestsPerSecond: cfg.API.RateLimitRPS,
		BurstSize:         cfg.API.RateLimitBurst,
		PerClient:         true,
		ClientTTL:         time.Hour,
		CleanupInterval:   10 * time.Minute,
	}
	server := api.NewServer(serverCfg)

	var sweeper *retention.Sweeper
	if cfg.Retention.Enabled {
		sweeper, err = retention.NewSweeper(repo, retention.Config{
			Schedule: cfg.Retention.Schedule,
			MaxAge:   cfg.Retention.MaxAge,
		}, logger)
		if err != nil {
			return err
		}
		sweeper.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Stop(shutdownCtx)
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
