package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/hydrocheck/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// tableNamePattern matches safe SQL identifiers.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// driverName maps a backend to its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// openDB opens and pings a connection. SQLite falls back to defaultPath when connStr is empty.
func openDB(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = defaultPath
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", connStr, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		default:
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// placeholders returns n bind parameters in the syntax of the backend.
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// timeScanner reads a timestamp column stored as text (SQLite) or natively.
type timeScanner struct {
	backend schema.DatabaseBackend
	text    sql.NullString
	native  sql.NullTime
}

func (ts *timeScanner) dest() any {
	if ts.backend == schema.SQLiteBackend {
		return &ts.text
	}
	return &ts.native
}

func (ts *timeScanner) value() (*time.Time, error) {
	if ts.backend == schema.SQLiteBackend {
		if !ts.text.Valid {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, ts.text.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time %q: %w", ts.text.String, err)
		}
		return &t, nil
	}
	if !ts.native.Valid {
		return nil, nil
	}
	return &ts.native.Time, nil
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	db, err := openDB(backend, connStr, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
