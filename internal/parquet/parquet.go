// Package parquet provides data structures and functions for reading result series
// from, and exporting stability verdicts and run history to, Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/hydrocheck/schema"
	"github.com/parquet-go/parquet-go"
)

// SeriesSample is one long-format input row: a single node at a single time.
type SeriesSample struct {
	Node  string  `parquet:"node,snappy,dict"`
	Time  float64 `parquet:"time,snappy"`
	Stage float64 `parquet:"stage,snappy"`
	Flow  float64 `parquet:"flow,snappy"`
}

// StabilityRun represents a single stability run with metadata.
// This struct maps to the hydrocheck_runs database table.
type StabilityRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunKey is the UUID assigned when the run began
	RunKey string `parquet:"run_key,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	SourcePath  string `parquet:"source_path,snappy"`
	SeriesKind  string `parquet:"series_kind,snappy,dict"`
	TotalNodes  int32  `parquet:"total_nodes,snappy"`
	FailedNodes int32  `parquet:"failed_nodes,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// NodeVerdict represents the persisted verdict of one node in a run.
// This struct maps to the hydrocheck_node_verdicts database table.
type NodeVerdict struct {
	RunID         int64     `parquet:"run_id,snappy"`
	NodeName      string    `parquet:"node_name,snappy"`
	NodeIndex     int32     `parquet:"node_index,snappy"`
	AnalysisTime  time.Time `parquet:"analysis_time,snappy"`
	SeriesKind    string    `parquet:"series_kind,snappy,dict"`
	Status        string    `parquet:"status,snappy,dict"`
	FailCount     int32     `parquet:"fail_count,snappy"`
	FirstFailTime *float64  `parquet:"first_fail_time,optional,snappy"`
	LastFailTime  *float64  `parquet:"last_fail_time,optional,snappy"`
	MaxAbsSecond  float64   `parquet:"max_abs_second_derivative,snappy"`
	Flat          bool      `parquet:"flat,snappy"`
}

// VerdictRow is the columnar output of a single stability run.
type VerdictRow struct {
	Rank      int32     `parquet:"rank,snappy"`
	Node      string    `parquet:"node,snappy"`
	Index     int32     `parquet:"index,snappy"`
	Kind      string    `parquet:"kind,snappy,dict"`
	Status    string    `parquet:"status,snappy,dict"`
	Flat      bool      `parquet:"flat,snappy"`
	FailCount int32     `parquet:"fail_count,snappy"`
	FirstFail *float64  `parquet:"first_fail,optional,snappy"`
	LastFail  *float64  `parquet:"last_fail,optional,snappy"`
	FailTimes []float64 `parquet:"fail_times,list"`
}

// writeParquet writes rows of any parquet-tagged struct to w.
func writeParquet[T any](data []T, w io.Writer) error {
	// The schema is automatically derived from the struct tags
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// writeParquetFile creates outputPath and writes rows to it.
func writeParquetFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeParquet(data, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRunsParquet writes a slice of StabilityRun structs to a Parquet file.
func WriteRunsParquet(data []StabilityRun, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteNodeVerdictsParquet writes a slice of NodeVerdict structs to a Parquet file.
func WriteNodeVerdictsParquet(data []NodeVerdict, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteVerdictRows writes the verdicts of one run to w.
func WriteVerdictRows(data []VerdictRow, w io.Writer) error {
	return writeParquet(data, w)
}

// WriteSeriesSamplesParquet writes long-format input rows to a Parquet file.
func WriteSeriesSamplesParquet(data []SeriesSample, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// ReadSeriesSamples reads every long-format input row from Parquet data of the given size.
func ReadSeriesSamples(r io.ReaderAt, size int64) ([]SeriesSample, error) {
	rows, err := parquet.Read[SeriesSample](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows, nil
}

// ConvertRunRecords converts schema.RunRecord to StabilityRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []StabilityRun {
	result := make([]StabilityRun, len(records))
	for i, record := range records {
		result[i] = StabilityRun{
			RunID:         record.RunID,
			RunKey:        record.RunKey,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			SourcePath:    record.SourcePath,
			SeriesKind:    record.SeriesKind,
			TotalNodes:    record.TotalNodes,
			FailedNodes:   record.FailedNodes,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertNodeVerdictRecords converts schema.NodeVerdictRecord to NodeVerdict for Parquet export.
func ConvertNodeVerdictRecords(records []schema.NodeVerdictRecord) []NodeVerdict {
	result := make([]NodeVerdict, len(records))
	for i, record := range records {
		result[i] = NodeVerdict{
			RunID:         record.RunID,
			NodeName:      record.NodeName,
			NodeIndex:     record.NodeIndex,
			AnalysisTime:  record.AnalysisTime,
			SeriesKind:    record.SeriesKind,
			Status:        record.Status,
			FailCount:     record.FailCount,
			FirstFailTime: record.FirstFailTime,
			LastFailTime:  record.LastFailTime,
			MaxAbsSecond:  record.MaxAbsSecond,
			Flat:          record.Flat,
		}
	}
	return result
}

// ConvertSummaries converts ranked node summaries to VerdictRow for Parquet output.
func ConvertSummaries(kind schema.SeriesKind, summaries []schema.NodeSummary) []VerdictRow {
	result := make([]VerdictRow, len(summaries))
	for i, s := range summaries {
		failTimes := s.FailTimes
		if failTimes == nil {
			failTimes = []float64{}
		}
		result[i] = VerdictRow{
			Rank:      int32(s.Rank),
			Node:      s.Node,
			Index:     int32(s.Index),
			Kind:      string(kind),
			Status:    string(s.Status),
			Flat:      s.Flat,
			FailCount: int32(s.FailCount),
			FirstFail: s.FirstFail,
			LastFail:  s.LastFail,
			FailTimes: failTimes,
		}
	}
	return result
}
