package schema

import "time"

// RunSummary is what a finished run reports back to the history store.
type RunSummary struct {
	EndTime     time.Time
	TotalNodes  int
	FailedNodes int
}

// NodeVerdictRecord is the persisted, array-free form of a StabilityVerdict.
type NodeVerdictRecord struct {
	RunID         int64
	NodeName      string
	NodeIndex     int32
	AnalysisTime  time.Time
	SeriesKind    string
	Status        string
	FailCount     int32
	FirstFailTime *float64
	LastFailTime  *float64
	MaxAbsSecond  float64
	Flat          bool
}

// RunRecord represents a row from the hydrocheck_runs table.
type RunRecord struct {
	RunID         int64
	RunKey        string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	SourcePath    string
	SeriesKind    string
	TotalNodes    int32
	FailedNodes   int32
	ConfigParams  *string
}
