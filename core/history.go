package core

import (
	"math"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"gonum.org/v1/gonum/floats"
)

// beginRun opens a history run. It returns 0 when history is disabled or unavailable.
func beginRun(mgr contract.CacheManager, cfg *contract.Config, startTime time.Time) int64 {
	if mgr == nil {
		return 0
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return 0
	}
	runID, err := store.BeginRun(startTime, cfg.InputPath, cfg.Kind, cfg.ConfigParams())
	if err != nil {
		contract.LogWarn("History tracking initialization failed", err)
		return 0
	}
	return runID
}

// recordRun stores the verdicts of a run and closes it.
func recordRun(mgr contract.CacheManager, runID int64, kind schema.SeriesKind, result *schema.StabilityResult, startTime, endTime time.Time) {
	if runID <= 0 || mgr == nil {
		return
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return
	}
	if err := store.RecordVerdicts(runID, buildVerdictRecords(runID, kind, result, startTime)); err != nil {
		contract.LogWarn("Failed to record node verdicts", err)
	}
	summary := schema.RunSummary{
		EndTime:     endTime,
		TotalNodes:  len(result.Verdicts),
		FailedNodes: len(result.FailedNodes),
	}
	if err := store.EndRun(runID, summary); err != nil {
		contract.LogWarn("Failed to finalize history tracking", err)
	}
}

// buildVerdictRecords flattens verdicts into history rows.
func buildVerdictRecords(runID int64, kind schema.SeriesKind, result *schema.StabilityResult, at time.Time) []schema.NodeVerdictRecord {
	records := make([]schema.NodeVerdictRecord, len(result.Verdicts))
	for i := range result.Verdicts {
		v := &result.Verdicts[i]
		record := schema.NodeVerdictRecord{
			RunID:        runID,
			NodeName:     v.Node,
			NodeIndex:    int32(v.Index),
			AnalysisTime: at,
			SeriesKind:   string(kind),
			Status:       string(v.Status),
			FailCount:    int32(len(v.FailTimes)),
			MaxAbsSecond: maxAbs(v.SecondDerivative),
			Flat:         v.Flat,
		}
		if t, ok := v.FirstFail(); ok {
			record.FirstFailTime = &t
		}
		if t, ok := v.LastFail(); ok {
			record.LastFailTime = &t
		}
		records[i] = record
	}
	return records
}

// maxAbs returns the largest magnitude in values, or 0 when empty.
func maxAbs(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(values)), math.Abs(floats.Min(values)))
}
