package iocache

import (
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetSeriesStore implements the CacheManager interface.
func (m *MockCacheManager) GetSeriesStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetHistoryStore implements the CacheManager interface.
func (m *MockCacheManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(startTime time.Time, sourcePath string, kind schema.SeriesKind, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, sourcePath, kind, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, summary schema.RunSummary) error {
	args := m.Called(runID, summary)
	return args.Error(0)
}

// RecordVerdicts implements the HistoryStore interface.
func (m *MockHistoryStore) RecordVerdicts(runID int64, records []schema.NodeVerdictRecord) error {
	args := m.Called(runID, records)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllVerdicts implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllVerdicts() ([]schema.NodeVerdictRecord, error) {
	args := m.Called()
	verdicts, _ := args.Get(0).([]schema.NodeVerdictRecord)
	return verdicts, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
