package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// CacheStoreImpl keeps decoded result series keyed by file fingerprint.
type CacheStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.CacheStore = &CacheStoreImpl{} // Compile-time check

// NewCacheStore initializes and returns a new CacheStore based on the backend type.
func NewCacheStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	if backend == schema.NoneBackend {
		// Return a no-op store for disabled caching
		return &CacheStoreImpl{tableName: tableName, backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetCacheDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize series cache: %w", err)
	}

	if _, err := db.Exec(getCreateCacheTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &CacheStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// getCreateCacheTableQuery returns the CREATE TABLE query for the given backend.
func getCreateCacheTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key VARCHAR(255) PRIMARY KEY,
				cache_value LONGBLOB NOT NULL,
				cache_version INT NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BYTEA NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value BLOB NOT NULL,
				cache_version INTEGER NOT NULL,
				cache_timestamp INTEGER NOT NULL
			);
		`, quoted)
	}
}

// Get retrieves a value by key from the store.
func (cs *CacheStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if cs.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	var value []byte
	var version int
	var ts int64

	query := fmt.Sprintf(`SELECT cache_value, cache_version, cache_timestamp FROM %s WHERE cache_key = %s`,
		quoteTableName(cs.tableName, cs.backend), placeholders(cs.backend, 1))
	if err := cs.db.QueryRow(query, key).Scan(&value, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (cs *CacheStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	if cs.db == nil {
		return nil
	}
	_, err := cs.db.Exec(cs.getUpsertQuery(), key, value, version, timestamp)
	return err
}

// getUpsertQuery returns the UPSERT query for the backend.
func (cs *CacheStoreImpl) getUpsertQuery() string {
	quoted := quoteTableName(cs.tableName, cs.backend)
	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_version = new.cache_version, cache_timestamp = new.cache_timestamp`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_version = EXCLUDED.cache_version, cache_timestamp = EXCLUDED.cache_timestamp`, quoted)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, cache_value, cache_version, cache_timestamp) VALUES (?, ?, ?, ?)`, quoted)
	}
}

// Close closes the underlying DB connection.
func (cs *CacheStoreImpl) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the cache store.
func (cs *CacheStoreImpl) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(cs.backend),
		Connected: cs.db != nil,
	}
	if cs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(cs.tableName, cs.backend)
	var lastTs, oldestTs sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(*), MAX(cache_timestamp), MIN(cache_timestamp) FROM %s", quoted)
	if err := cs.db.QueryRow(query).Scan(&status.TotalEntries, &lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get cache entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}
	status.LastEntryTime = time.Unix(lastTs.Int64, 0)
	status.OldestEntryTime = time.Unix(oldestTs.Int64, 0)
	status.TableSizeBytes = cs.tableSize(status.TotalEntries)
	return status, nil
}

// tableSize asks the database for the storage used by the cache table.
// It falls back to a rough per-entry estimate when the backend cannot say.
func (cs *CacheStoreImpl) tableSize(entries int) int64 {
	estimate := int64(entries) * 4096
	var size int64
	switch cs.backend {
	case schema.SQLiteBackend:
		row := cs.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
		return size
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(cs.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row := cs.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, cs.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
		return size
	case schema.PostgreSQLBackend:
		if err := cs.db.QueryRow("SELECT pg_total_relation_size($1)", cs.tableName).Scan(&size); err != nil {
			return estimate
		}
		return size
	default:
		return estimate
	}
}
