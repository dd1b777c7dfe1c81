// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superbmd/superbmd/internal/api"
	"github.com/superbmd/superbmd/internal/api/handlers"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/config"
	"github.com/superbmd/superbmd/internal/db"
	"github.com/superbmd/superbmd/internal/logger"
	"github.com/superbmd/superbmd/internal/rbac"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Version string // Version string to report
}

// Open loads configuration, initializes logging and connects to the database.
// It is shared by the server and the maintenance subcommands.
func Open() (*config.Config, *gorm.DB, error) {
	appCfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appCfg.Log.Format, appCfg.Log.Level)

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)
	return appCfg, database, nil
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	// Set version in handlers
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, database, err := Open()
	if err != nil {
		return err
	}
	defer closeDB(database)

	// Override port from CLI flag if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}
	slog.Info("Starting SuperBMD server", "version", cfg.Version, "mode", appCfg.Server.Mode)

	// Run migrations
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	// Create default admin user if configured
	if err := db.CreateDefaultAdmin(database, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		return fmt.Errorf("failed to create default admin user: %w", err)
	}

	policy, err := rbac.New(database, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize access policy: %w", err)
	}

	dashboardCache, err := cache.New(appCfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer dashboardCache.Close()

	router := api.NewRouter(appCfg, database, policy, dashboardCache)

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("SuperBMD exited")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Run(ctx, cfg)
}

func closeDB(database *gorm.DB) {
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
