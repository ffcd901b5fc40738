// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vitrina/vitrina/internal/api"
	"github.com/vitrina/vitrina/internal/auth"
	authpg "github.com/vitrina/vitrina/internal/auth/postgres"
	"github.com/vitrina/vitrina/internal/blob"
	"github.com/vitrina/vitrina/internal/catalog"
	catalogpg "github.com/vitrina/vitrina/internal/catalog/postgres"
	"github.com/vitrina/vitrina/internal/config"
	"github.com/vitrina/vitrina/internal/logging"
	"github.com/vitrina/vitrina/internal/observability"
	"github.com/vitrina/vitrina/internal/store"
	"github.com/vitrina/vitrina/internal/xdg"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Vitrina engine",
		Long: `Run the Vitrina engine: applies pending migrations, wires the
auth and catalog services, and serves metrics and health endpoints until
interrupted.`,
		RunE: runServe,
	}

	cmd.Flags().String("server.addr", "", "API HTTP address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	cmd.Flags().String("metrics.addr", "", "metrics/health HTTP address")
	cmd.Flags().String("session.path", "", "session file path (default: XDG state dir)")
	cmd.Flags().String("logging.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("logging.format", "", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	logger := logging.Setup("vitrina", version, cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting vitrina", "version", version)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("migrator close failed", "error", err)
	}
	logger.Info("schema up to date")

	sessionPath := cfg.Session.Path
	if sessionPath == "" {
		sessionPath = xdg.SessionFile()
	}
	if err := xdg.EnsureDir(filepath.Dir(sessionPath)); err != nil {
		return oops.Code("SESSION_DIR_FAILED").With("path", sessionPath).Wrap(err)
	}
	cache, err := auth.NewFileSessionCache(sessionPath)
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cache)
	if err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	authService, err := auth.NewServiceWithLogger(
		accounts,
		auth.NewArgon2idHasher(),
		auth.NewMemoryThrottle(),
		issuer,
		logger,
	)
	if err != nil {
		return err
	}

	photos, err := blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:      cfg.Blob.Endpoint,
		Region:        cfg.Blob.Region,
		Bucket:        cfg.Blob.Bucket,
		AccessKey:     cfg.Blob.AccessKey,
		SecretKey:     cfg.Blob.SecretKey,
		PublicBaseURL: cfg.Blob.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.Metrics.Addr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})

	catalogService, err := catalog.NewService(
		catalogpg.NewItemRepository(pool),
		photos,
		logger,
		obsServer.Metrics(),
	)
	if err != nil {
		return err
	}

	apiServer, err := api.NewServer(cfg.Server.Addr, authService, catalogService, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return startErr
		}
		go func() {
			select {
			case serveErr := <-obsErrChan:
				if serveErr != nil {
					logger.Error("observability server failed", "error", serveErr)
					cancel()
				}
			case <-ctx.Done():
			}
		}()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	// Reload any persisted session so the engine starts authenticated when
	// a valid one survives a restart.
	if session, bootErr := authService.Bootstrap(ctx); bootErr != nil {
		logger.Warn("session bootstrap failed", "error", bootErr)
	} else if session != nil {
		logger.Info("session restored", "account_id", session.Identity.ID.String())
	}

	apiErrChan := apiServer.Start()
	go func() {
		select {
		case serveErr := <-apiErrChan:
			if serveErr != nil {
				logger.Error("api server failed", "error", serveErr)
				cancel()
			}
		case <-ctx.Done():
		}
	}()
	logger.Info("api server started", "addr", apiServer.Addr())

	logger.Info("vitrina ready")
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if stopErr := apiServer.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("api server stop failed", "error", stopErr)
	}
	if cfg.Metrics.Addr != "" {
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			logger.Warn("observability server stop failed", "error", stopErr)
		}
	}

	return nil
}
