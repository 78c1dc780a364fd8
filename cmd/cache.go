package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := backendFromViper("cache-backend")
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by analysis commands. This avoids results file
// validation and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the decoded series cache (improves performance)",
	Long: `Manage the cache of decoded result series that speeds up repeated analyses.

Hydrocheck caches the decoded time axis and node series of each results file, keyed by
path, size and modification time. Re-running with another kind, node filter or tolerance
skips parsing large CSV and Parquet exports.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  hydrocheck cache status

  # Clear cache
  hydrocheck cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached series data",
	Long: `Delete all cached series data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  hydrocheck cache clear

  # Clear MySQL cache (set connection string via env variable)
  HYDROCHECK_CACHE_BACKEND=mysql HYDROCHECK_CACHE_DB_CONNECT="..." hydrocheck cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before removing it
		iocache.CloseStores()
		dbFile := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the series cache.

Displays:
- Backend type and connection status
- Total number of cached results files
- Last and oldest cache entry timestamps
- Cache table size

Examples:
  # Check cache status
  hydrocheck cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSeriesStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
