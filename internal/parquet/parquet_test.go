package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/hydrocheck/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStabilityRunStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	schema := parquet.SchemaOf(new(StabilityRun))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"run_id", "run_key", "start_time", "end_time", "run_duration_ms",
		"source_path", "series_kind", "total_nodes", "failed_nodes", "config_params",
	}
	for _, colName := range expectedColumns {
		col, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestNodeVerdictStructTags(t *testing.T) {
	schema := parquet.SchemaOf(new(NodeVerdict))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"run_id", "node_name", "node_index", "analysis_time", "series_kind", "status",
		"fail_count", "first_fail_time", "last_fail_time", "max_abs_second_derivative", "flat",
	}
	for _, colName := range expectedColumns {
		_, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	end := time.Now().UTC()
	data := []StabilityRun{
		{
			RunID:         1,
			RunKey:        "6f1c2b9e-0000-4000-8000-000000000001",
			StartTime:     end.Add(-time.Second),
			EndTime:       &end,
			RunDurationMs: ptr(int32(1000)),
			SourcePath:    "/data/run.csv",
			SeriesKind:    "stage",
			TotalNodes:    12,
			FailedNodes:   2,
			ConfigParams:  ptr(`{"kind":"stage"}`),
		},
		{RunID: 2, RunKey: "k2", StartTime: end, SourcePath: "/data/run.json", SeriesKind: "flow"},
	}

	require.NoError(t, WriteRunsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[StabilityRun](file)
	defer func() { _ = reader.Close() }()

	readData := make([]StabilityRun, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, len(data), n)

	assert.Equal(t, data[0].RunKey, readData[0].RunKey)
	assert.Equal(t, data[0].TotalNodes, readData[0].TotalNodes)
	require.NotNil(t, readData[0].EndTime)
	assert.WithinDuration(t, end, *readData[0].EndTime, time.Microsecond)
	require.NotNil(t, readData[0].ConfigParams)
	assert.Equal(t, *data[0].ConfigParams, *readData[0].ConfigParams)

	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].ConfigParams)
	assert.Equal(t, "flow", readData[1].SeriesKind)
}

func TestWriteNodeVerdictsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "verdicts.parquet")
	now := time.Now().UTC()
	data := []NodeVerdict{
		{RunID: 1, NodeName: "N1", NodeIndex: 0, AnalysisTime: now, SeriesKind: "stage", Status: "Failed", FailCount: 5, FirstFailTime: ptr(1.1), LastFailTime: ptr(1.5), MaxAbsSecond: 20},
		{RunID: 1, NodeName: "N2", NodeIndex: 1, AnalysisTime: now, SeriesKind: "stage", Status: "Passed", Flat: true},
	}
	require.NoError(t, WriteNodeVerdictsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	require.NoError(t, err)

	readData, err := parquet.Read[NodeVerdict](file, info.Size())
	require.NoError(t, err)
	require.Len(t, readData, 2)
	require.NotNil(t, readData[0].FirstFailTime)
	assert.Equal(t, 1.1, *readData[0].FirstFailTime)
	assert.Nil(t, readData[1].FirstFailTime)
	assert.True(t, readData[1].Flat)
}

func TestWriteRunsParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]StabilityRun{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Parquet footer should still be written")
}

func TestWriteRunsParquet_BadPath(t *testing.T) {
	err := WriteRunsParquet(nil, filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")
}

func TestSeriesSamplesRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "series.parquet")
	data := []SeriesSample{
		{Node: "N1", Time: 0, Stage: 1.5, Flow: 0.2},
		{Node: "N2", Time: 0, Stage: 2.5, Flow: 0.4},
		{Node: "N1", Time: 0.1, Stage: 1.6, Flow: 0.3},
	}
	require.NoError(t, WriteSeriesSamplesParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	require.NoError(t, err)

	got, err := ReadSeriesSamples(file, info.Size())
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadSeriesSamples_NotParquet(t *testing.T) {
	data := []byte("time,N1.stage\n0,1\n")
	_, err := ReadSeriesSamples(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestWriteVerdictRows(t *testing.T) {
	summaries := []schema.NodeSummary{
		{Rank: 1, Node: "B", Index: 1, Status: schema.FailedStatus, FailCount: 2, FirstFail: ptr(1.1), LastFail: ptr(1.2), FailTimes: []float64{1.1, 1.2}},
		{Rank: 2, Node: "A", Index: 0, Status: schema.PassedStatus, Flat: true},
	}
	rows := ConvertSummaries(schema.StageKind, summaries)
	require.Len(t, rows, 2)
	assert.Equal(t, "stage", rows[0].Kind)
	assert.Equal(t, []float64{}, rows[1].FailTimes)

	var buf bytes.Buffer
	require.NoError(t, WriteVerdictRows(rows, &buf))

	readData, err := parquet.Read[VerdictRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, readData, 2)
	assert.Equal(t, "B", readData[0].Node)
	assert.Equal(t, []float64{1.1, 1.2}, readData[0].FailTimes)
	assert.Equal(t, int32(2), readData[0].FailCount)
	assert.Nil(t, readData[1].FirstFail)
}

func TestConvertRecords(t *testing.T) {
	now := time.Now()
	runs := ConvertRunRecords([]schema.RunRecord{{RunID: 7, RunKey: "k", StartTime: now, SourcePath: "x.csv", SeriesKind: "flow", TotalNodes: 3, FailedNodes: 1}})
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].RunID)
	assert.Equal(t, int32(1), runs[0].FailedNodes)

	verdicts := ConvertNodeVerdictRecords([]schema.NodeVerdictRecord{{RunID: 7, NodeName: "N", NodeIndex: 2, Status: "Failed", FailCount: 4, FirstFailTime: ptr(2.0)}})
	require.Len(t, verdicts, 1)
	assert.Equal(t, "N", verdicts[0].NodeName)
	assert.Equal(t, 2.0, *verdicts[0].FirstFailTime)
}
