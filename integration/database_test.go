//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHydrocheckWithMySQL tests the hydrocheck CLI with a MySQL backend.
func TestHydrocheckWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "hydrocheck",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/hydrocheck?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestHydrocheckWithPostgres tests the hydrocheck CLI with a PostgreSQL backend.
func TestHydrocheckWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives every store command against one database backend.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Setenv("HYDROCHECK_CACHE_BACKEND", backend)
	t.Setenv("HYDROCHECK_CACHE_DB_CONNECT", connStr)
	t.Setenv("HYDROCHECK_HISTORY_BACKEND", backend)
	t.Setenv("HYDROCHECK_HISTORY_DB_CONNECT", connStr)

	results := writeResultsFixture(t)
	exportBase := filepath.Join(t.TempDir(), "history")

	require.NoError(t, runHydrocheckCommand(t, "cache", "clear"))
	require.NoError(t, runHydrocheckCommand(t, "history", "clear"))

	// Schema goes up, down and up again
	require.NoError(t, runHydrocheckCommand(t, "history", "migrate"))
	require.NoError(t, runHydrocheckCommand(t, "history", "migrate", "--target-version", "0"))
	require.NoError(t, runHydrocheckCommand(t, "history", "migrate"))

	// Second run hits the cache
	require.NoError(t, runHydrocheckCommand(t, "stability", results, "--limit", "5"))
	require.NoError(t, runHydrocheckCommand(t, "stability", results, "--kind", "flow"))

	require.NoError(t, runHydrocheckCommand(t, "cache", "status"))
	require.NoError(t, runHydrocheckCommand(t, "history", "status"))
	require.NoError(t, runHydrocheckCommand(t, "history", "export", "--output-file", exportBase))

	for _, suffix := range []string{".runs.parquet", ".node_verdicts.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		require.Positive(t, info.Size())
	}
}

func runHydrocheckCommand(t *testing.T, args ...string) error {
	hydrocheckPath := getHydrocheckBinary()
	cmd := exec.Command(hydrocheckPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
