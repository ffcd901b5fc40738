// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitrina/vitrina/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Vitrina CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vitrina",
		Short: "Vitrina - catalog backend with accounts and ownership",
		Long: `Vitrina is a catalog backend: accounts with argon2id credentials,
login throttling, file-persisted sessions, and role- and ownership-scoped
catalog items with photo attachments in S3-compatible storage.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// resolveConfigFile returns the --config value, or the XDG config file when
// one exists on disk.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	path := filepath.Join(xdg.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
