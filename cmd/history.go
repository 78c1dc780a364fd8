package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/iocache"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := historyMigrateSetup(); err != nil {
		return err
	}

	// Initialize stores with the loaded config (no series cache for history commands)
	if err := iocache.InitStores("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	// Get output-related config values (used by export command)
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get history-related config values
	backend := backendFromViper("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by analysis commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of stability runs and exports",
	Long: `Manage the history of stability runs used for tracking model stability over time.

When enabled with --history-backend, Hydrocheck records every analysis run:
- Run metadata (results file, kind, tolerances, duration)
- Per-node verdicts (status, fail count, first and last fail time, max |d2|)

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite
  hydrocheck stability results.csv --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  hydrocheck history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and node verdicts",
	Long: `Delete all stored runs and node verdicts.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  hydrocheck history export --output-file backup
  hydrocheck history clear`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFilePath(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFile, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show detailed information about run history tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total nodes analyzed across all runs
- Database table sizes

Examples:
  # Check history status
  hydrocheck history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and node verdicts to Parquet files.

Writes two files next to --output-file:
- <output-file>.runs.parquet - one row per analysis run
- <output-file>.node_verdicts.parquet - one row per node and run

Requires: --output-file parameter

Examples:
  # Export all data
  hydrocheck history export --output-file history

  # Use with DuckDB for analysis
  duckdb -c "SELECT node_name, count(*) FROM 'history.node_verdicts.parquet' WHERE status = 'Failed' GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(iocache.Manager.GetHistoryStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  hydrocheck history migrate --history-backend postgresql --history-db-connect "host=... dbname=..."

  # Migrate to specific version
  hydrocheck history migrate --target-version 2

  # Rollback to initial state
  hydrocheck history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.HistoryBackend == schema.NoneBackend {
			contract.LogFatal("Failed to run migrations", fmt.Errorf("set --history-backend to sqlite, mysql or postgresql"))
		}
		targetVersion := viper.GetInt("target-version")
		msg, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(msg)
	},
}
