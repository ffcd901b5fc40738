// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vitrina/vitrina/internal/auth"
	authpg "github.com/vitrina/vitrina/internal/auth/postgres"
	"github.com/vitrina/vitrina/internal/config"
	"github.com/vitrina/vitrina/internal/store"
)

const defaultSeedTimeout = 30 * time.Second

type seedConfig struct {
	email   string
	name    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin account",
		Long: `Creates the first admin account so role changes can be made from a
fresh database. The password is read from VITRINA_ADMIN_PASSWORD. This command
is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "admin@localhost", "admin account email")
	cmd.Flags().StringVar(&cfg.name, "name", "Administrator", "admin account display name")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	password := os.Getenv("VITRINA_ADMIN_PASSWORD")
	if err := auth.ValidatePassword(password); err != nil {
		return oops.Code("SEED_FAILED").With("operation", "validate admin password").Wrap(err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	if err := migrator.Close(); err != nil {
		cmd.PrintErrln("warning: migrator close failed:", err)
	}

	email := auth.NormalizeEmail(seedCfg.email)
	digest, err := auth.NewArgon2idHasher().Hash(password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash admin password").Wrap(err)
	}

	account, err := auth.NewAccount(email, auth.Sanitize(seedCfg.name), digest)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "build admin account").Wrap(err)
	}
	account.Role = auth.RoleAdmin

	accounts := authpg.NewAccountRepository(pool)
	if err := accounts.Create(ctx, account); err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			cmd.Println("Admin account already exists, skipping seed")
			existing, getErr := accounts.GetByEmail(ctx, email)
			if getErr != nil {
				cmd.PrintErrln("warning: could not verify existing admin account:", getErr)
			} else if existing.Role != auth.RoleAdmin {
				cmd.PrintErrln("warning: existing seed account is not an admin:", existing.Email)
			}
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create admin account").Wrap(err)
	}

	cmd.Println("Created admin account:", account.Email)
	return nil
}
