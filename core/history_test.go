package core

import (
	"testing"
	"time"

	"github.com/huangsam/hydrocheck/internal/iocache"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleResult() *schema.StabilityResult {
	return &schema.StabilityResult{
		Kind:         schema.StageKind,
		Tolerances:   schema.DefaultTolerances(),
		WindowLength: 5,
		HourLength:   10,
		Verdicts: []schema.StabilityVerdict{
			{Node: "N1", Index: 0, Status: schema.FailedStatus, FailTimes: []float64{1.1, 1.2, 1.5}, SecondDerivative: []float64{-40, 3, 12}},
			{Node: "N2", Index: 1, Status: schema.PassedStatus, Flat: true, SecondDerivative: []float64{0, 0}},
		},
		FailedNodes: []schema.FailedNode{{Name: "N1", Index: 0}},
	}
}

func TestBuildVerdictRecords(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := buildVerdictRecords(9, schema.StageKind, sampleResult(), at)

	require.Len(t, records, 2)

	failed := records[0]
	assert.Equal(t, int64(9), failed.RunID)
	assert.Equal(t, "N1", failed.NodeName)
	assert.Equal(t, int32(0), failed.NodeIndex)
	assert.Equal(t, at, failed.AnalysisTime)
	assert.Equal(t, "stage", failed.SeriesKind)
	assert.Equal(t, "Failed", failed.Status)
	assert.Equal(t, int32(3), failed.FailCount)
	assert.Equal(t, 40.0, failed.MaxAbsSecond)
	require.NotNil(t, failed.FirstFailTime)
	require.NotNil(t, failed.LastFailTime)
	assert.Equal(t, 1.1, *failed.FirstFailTime)
	assert.Equal(t, 1.5, *failed.LastFailTime)

	passed := records[1]
	assert.Equal(t, "Passed", passed.Status)
	assert.True(t, passed.Flat)
	assert.Nil(t, passed.FirstFailTime)
	assert.Nil(t, passed.LastFailTime)
	assert.Equal(t, 0.0, passed.MaxAbsSecond)
}

func TestMaxAbs(t *testing.T) {
	assert.Equal(t, 0.0, maxAbs(nil))
	assert.Equal(t, 5.0, maxAbs([]float64{1, -5, 3}))
	assert.Equal(t, 7.0, maxAbs([]float64{7, -2}))
}

func TestBeginRun(t *testing.T) {
	cfg := testConfig("/data/results.csv")
	now := time.Now()

	assert.Equal(t, int64(0), beginRun(nil, cfg, now))

	mockMgr := &iocache.MockCacheManager{}
	mockMgr.On("GetHistoryStore").Return(nil)
	assert.Equal(t, int64(0), beginRun(mockMgr, cfg, now))

	mockHistory := &iocache.MockHistoryStore{}
	withStore := &iocache.MockCacheManager{}
	withStore.On("GetHistoryStore").Return(mockHistory)
	mockHistory.On("BeginRun", now, "/data/results.csv", schema.StageKind, mock.MatchedBy(func(p map[string]any) bool {
		return p["kind"] == schema.StageKind
	})).Return(int64(3), nil)
	assert.Equal(t, int64(3), beginRun(withStore, cfg, now))
	mockHistory.AssertExpectations(t)
}

func TestRecordRun(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Second)

	t.Run("skips without run", func(t *testing.T) {
		mockMgr := &iocache.MockCacheManager{}
		recordRun(mockMgr, 0, schema.StageKind, sampleResult(), start, end)
		mockMgr.AssertNotCalled(t, "GetHistoryStore")
	})

	t.Run("records verdicts then ends run", func(t *testing.T) {
		mockMgr := &iocache.MockCacheManager{}
		mockHistory := &iocache.MockHistoryStore{}
		mockMgr.On("GetHistoryStore").Return(mockHistory)
		mockHistory.On("RecordVerdicts", int64(4), mock.AnythingOfType("[]schema.NodeVerdictRecord")).Return(assert.AnError)
		mockHistory.On("EndRun", int64(4), schema.RunSummary{EndTime: end, TotalNodes: 2, FailedNodes: 1}).Return(nil)

		recordRun(mockMgr, 4, schema.StageKind, sampleResult(), start, end)

		// A verdict write failure still closes the run
		mockHistory.AssertExpectations(t)
	})
}
