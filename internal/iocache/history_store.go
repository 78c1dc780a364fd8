package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// Table names for run history.
const (
	runsTable         = "hydrocheck_runs"
	nodeVerdictsTable = "hydrocheck_node_verdicts"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the run history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{nodeVerdictsTable, getCreateNodeVerdictsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for hydrocheck_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_key CHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				source_path VARCHAR(1024) NOT NULL,
				series_kind VARCHAR(16) NOT NULL,
				total_nodes INT NOT NULL DEFAULT 0,
				failed_nodes INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_key TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				source_path TEXT NOT NULL,
				series_kind TEXT NOT NULL,
				total_nodes INT NOT NULL DEFAULT 0,
				failed_nodes INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_key TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				source_path TEXT NOT NULL,
				series_kind TEXT NOT NULL,
				total_nodes INTEGER NOT NULL DEFAULT 0,
				failed_nodes INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreateNodeVerdictsQuery returns the CREATE TABLE query for hydrocheck_node_verdicts.
func getCreateNodeVerdictsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(nodeVerdictsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				node_index INT NOT NULL,
				node_name VARCHAR(255) NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				series_kind VARCHAR(16) NOT NULL,
				status VARCHAR(16) NOT NULL,
				fail_count INT NOT NULL,
				first_fail_time DOUBLE,
				last_fail_time DOUBLE,
				max_abs_second_derivative DOUBLE NOT NULL,
				flat BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, node_index)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				node_index INT NOT NULL,
				node_name TEXT NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				series_kind TEXT NOT NULL,
				status TEXT NOT NULL,
				fail_count INT NOT NULL,
				first_fail_time DOUBLE PRECISION,
				last_fail_time DOUBLE PRECISION,
				max_abs_second_derivative DOUBLE PRECISION NOT NULL,
				flat BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, node_index)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				node_index INTEGER NOT NULL,
				node_name TEXT NOT NULL,
				analysis_time TEXT NOT NULL,
				series_kind TEXT NOT NULL,
				status TEXT NOT NULL,
				fail_count INTEGER NOT NULL,
				first_fail_time REAL,
				last_fail_time REAL,
				max_abs_second_derivative REAL NOT NULL,
				flat INTEGER NOT NULL,
				PRIMARY KEY (run_id, node_index)
			);
		`, quoted)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, sourcePath string, kind schema.SeriesKind, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, hs.backend)
	columns := "run_key, start_time, source_path, series_kind, config_params"
	args := []any{uuid.NewString(), formatTime(startTime, hs.backend), sourcePath, string(kind), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING run_id`, quoted, columns, placeholders(hs.backend, len(args)))
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quoted, columns, placeholders(hs.backend, len(args)))
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	if hs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(hs.backend, 1))
	start := timeScanner{backend: hs.backend}
	if err := hs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = summary.EndTime.Sub(*startTime).Milliseconds()
	}

	var update string
	if hs.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_nodes = $3, failed_nodes = $4 WHERE run_id = $5`, quoted)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_nodes = ?, failed_nodes = ? WHERE run_id = ?`, quoted)
	}
	if _, err := hs.db.Exec(update, formatTime(summary.EndTime, hs.backend), durationMs, summary.TotalNodes, summary.FailedNodes, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordVerdicts stores the per-node outcome of a run in one transaction.
func (hs *HistoryStoreImpl) RecordVerdicts(runID int64, records []schema.NodeVerdictRecord) error {
	if hs.db == nil || len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, node_index, node_name, analysis_time, series_kind, status,
		                fail_count, first_fail_time, last_fail_time, max_abs_second_derivative, flat)
		VALUES (%s)
	`, quoteTableName(nodeVerdictsTable, hs.backend), placeholders(hs.backend, 11))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare verdict insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err := stmt.Exec(runID, r.NodeIndex, r.NodeName, formatTime(r.AnalysisTime, hs.backend), r.SeriesKind, r.Status,
			r.FailCount, r.FirstFailTime, r.LastFailTime, r.MaxAbsSecond, r.Flat)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert verdict for node %s: %w", r.NodeName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verdicts: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(total_nodes), 0) FROM %s", quoted))
	if err := row.Scan(&status.TotalRuns, &status.TotalNodesAnalyzed); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: hs.backend}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}
	}

	for _, table := range []string{runsTable, nodeVerdictsTable} {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))
		if err := hs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_key, start_time, end_time, run_duration_ms, source_path,
		series_kind, total_nodes, failed_nodes, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.RunKey, start.dest(), end.dest(), &record.RunDurationMs,
			&record.SourcePath, &record.SeriesKind, &record.TotalNodes, &record.FailedNodes, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllVerdicts retrieves all node verdicts from the store.
func (hs *HistoryStoreImpl) GetAllVerdicts() ([]schema.NodeVerdictRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, node_index, node_name, analysis_time, series_kind, status,
		fail_count, first_fail_time, last_fail_time, max_abs_second_derivative, flat
		FROM %s ORDER BY run_id, node_index`, quoteTableName(nodeVerdictsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query node verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.NodeVerdictRecord
	for rows.Next() {
		var record schema.NodeVerdictRecord
		at := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.NodeIndex, &record.NodeName, at.dest(), &record.SeriesKind,
			&record.Status, &record.FailCount, &record.FirstFailTime, &record.LastFailTime, &record.MaxAbsSecond,
			&record.Flat); err != nil {
			return nil, fmt.Errorf("failed to scan node verdict: %w", err)
		}
		analysisTime, err := at.value()
		if err != nil {
			return nil, err
		}
		if analysisTime != nil {
			record.AnalysisTime = *analysisTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node verdicts: %w", err)
	}
	return results, nil
}
