package iocache

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/hydrocheck/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationDir maps a backend to its migrations subdirectory.
func migrationDir(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "migrations/mysql"
	case schema.PostgreSQLBackend:
		return "migrations/postgres"
	default:
		return "migrations/sqlite"
	}
}

// MigrateHistory runs database migrations for the history store.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
// It returns a line describing what happened.
func MigrateHistory(backend schema.DatabaseBackend, connStr string, targetVersion int) (string, error) {
	if backend == schema.NoneBackend {
		return "", errors.New("migrations are not supported for NoneBackend")
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, migrationDir(backend))
	if err != nil {
		return "", fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return "", fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "hydrocheck", driver)
	if err != nil {
		return "", fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return "", fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return "", fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return fmt.Sprintf("No migration needed. Database is already at version %d", currentVersion), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to migrate history store: %w", err)
	}

	newVersion, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		newVersion, err = 0, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read migrated version: %w", err)
	}
	return fmt.Sprintf("Successfully migrated from version %d to version %d", currentVersion, newVersion), nil
}
