// Command qactl runs one-off operations against the board's database:
// migrations and admin account management.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/postgres"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
	"github.com/shikhar190399/q-and-a-websockets/internal/platform/logging"
)

const commandTimeout = 30 * time.Second

var (
	cfg  *config.Config
	pool *pgxpool.Pool
)

var rootCmd = &cobra.Command{
	Use:           "qactl",
	Short:         "Operational CLI for the Q&A board",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// connect loads configuration and opens the database pool. Commands that
// touch the database call it from PreRunE.
func connect(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	pool, err = postgres.Connect(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return err
	}
	return nil
}

func closePool(*cobra.Command, []string) {
	if pool != nil {
		pool.Close()
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
