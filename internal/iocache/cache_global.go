package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// seriesTable is the name of the table for decoded series caching.
const seriesTable = "hydrocheck_series_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager with separate cache and history stores.
// An empty backend leaves the matching store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var seriesStore contract.CacheStore
		if cacheBackend != "" {
			seriesStore, err = NewCacheStore(seriesTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize series caching: %w", err)
				return
			}
		}

		var historyStore contract.HistoryStore
		if historyBackend != "" {
			historyStore, err = NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if seriesStore != nil {
					_ = seriesStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.series = seriesStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.series != nil {
			_ = Manager.series.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// removeSQLiteFile deletes a SQLite database file, ignoring a missing file.
func removeSQLiteFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}

// ClearCache clears the series cache for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL/PostgreSQL, it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(backend, connStr, seriesTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearHistory clears the run history for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL/PostgreSQL, it drops the history tables and the migration bookkeeping.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range []string{nodeVerdictsTable, runsTable, "schema_migrations"} {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}
