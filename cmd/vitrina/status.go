// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vitrina/vitrina/internal/config"
	"github.com/vitrina/vitrina/internal/store"
)

const statusTimeout = 10 * time.Second

// EngineStatus holds the reported state of the engine's dependencies.
type EngineStatus struct {
	Database      string `json:"database"`
	SchemaVersion uint   `json:"schema_version"`
	SchemaDirty   bool   `json:"schema_dirty"`
	Pending       int    `json:"pending_migrations"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database and schema status",
		Long:  `Show PostgreSQL connectivity, the applied schema version, and pending migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, statusCfg *statusConfig) error {
	cfg, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	status := queryEngineStatus(ctx, cfg.Database.URL)

	if statusCfg.jsonOutput {
		blob, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.Code("STATUS_ENCODE_FAILED").Wrap(err)
		}
		cmd.Println(string(blob))
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

func queryEngineStatus(ctx context.Context, databaseURL string) EngineStatus {
	status := EngineStatus{Database: "unreachable"}

	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.Database = "ok"

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.SchemaVersion = version
	status.SchemaDirty = dirty

	pending, err := migrator.PendingMigrations()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Pending = len(pending)

	return status
}

func formatStatusTable(status EngineStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "DATABASE\tSCHEMA\tDIRTY\tPENDING\n")
	fmt.Fprintf(w, "%s\t%d\t%v\t%d\n", status.Database, status.SchemaVersion, status.SchemaDirty, status.Pending)
	if status.Error != "" {
		fmt.Fprintf(w, "error:\t%s\n", status.Error)
	}
	_ = w.Flush()

	return strings.TrimRight(sb.String(), "\n")
}
