// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vitrina/vitrina/internal/config"
	"github.com/vitrina/vitrina/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	cmd.Flags().Bool("status", false, "print the current schema version and exit")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("warning: migrator close failed:", closeErr)
		}
	}()

	if status, _ := cmd.Flags().GetBool("status"); status {
		version, dirty, versionErr := migrator.Version()
		if versionErr != nil {
			return versionErr
		}
		pending, pendingErr := migrator.PendingMigrations()
		if pendingErr != nil {
			return pendingErr
		}
		cmd.Printf("schema version: %d (dirty: %v, pending: %d)\n", version, dirty, len(pending))
		return nil
	}

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
