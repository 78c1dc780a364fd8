// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/hydrocheck/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSeriesStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking stability runs and their verdicts.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, sourcePath string, kind schema.SeriesKind, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, summary schema.RunSummary) error

	// RecordVerdicts stores the per-node outcome of a run
	RecordVerdicts(runID int64, records []schema.NodeVerdictRecord) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllVerdicts returns every recorded node verdict ordered by run and node index
	GetAllVerdicts() ([]schema.NodeVerdictRecord, error)

	// Close closes the underlying connection
	Close() error
}
