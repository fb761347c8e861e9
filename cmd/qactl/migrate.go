package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/postgres"
)

var migrateCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Apply pending database migrations",
	Args:              cobra.NoArgs,
	PersistentPreRunE: connect,
	PersistentPostRun: closePool,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := postgres.RunMigrationsWithLock(cmd.Context(), pool); err != nil {
			return err
		}
		return printSchemaVersion(cmd)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current and latest schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printSchemaVersion(cmd)
	},
}

func printSchemaVersion(cmd *cobra.Command) error {
	current, latest, err := postgres.SchemaVersion(cmd.Context(), pool)
	if err != nil {
		return err
	}

	state := "up to date"
	if int(current) < latest {
		state = fmt.Sprintf("%d pending", latest-int(current))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (%s)\n", current, latest, state)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
