package outwriter

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	iparquet "github.com/huangsam/hydrocheck/internal/parquet"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *schema.StabilityResult {
	return &schema.StabilityResult{
		Kind:         schema.StageKind,
		Tolerances:   schema.DefaultTolerances(),
		WindowLength: 5,
		HourLength:   10,
		Verdicts: []schema.StabilityVerdict{
			{Node: "upstream", Index: 0, Status: schema.PassedStatus},
			{Node: "weir_crest", Index: 1, Status: schema.FailedStatus, FailTimes: []float64{1.1, 1.2, 1.3, 1.4, 1.5}},
			{Node: "still_pond", Index: 2, Status: schema.PassedStatus, Flat: true},
		},
		FailedNodes: []schema.FailedNode{{Name: "weir_crest", Index: 1}},
	}
}

func testConfig() *contract.Config {
	return &contract.Config{
		InputPath:    "results.csv",
		Kind:         schema.StageKind,
		Precision:    2,
		Output:       schema.TextOut,
		Width:        200,
		Workers:      2,
		CacheBackend: schema.NoneBackend,
	}
}

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 80, expected: 12},
		{width: 120, expected: 25},
		{width: 300, expected: 48},
	}
	for _, tt := range tests {
		cfg := &contract.Config{Width: tt.width}
		assert.Equal(t, tt.expected, GetMaxTableNameWidth(cfg))
	}
}

func TestCreateFormatters(t *testing.T) {
	fmtFloat, fmtOptional := createFormatters(2)
	assert.Equal(t, "3.14", fmtFloat(3.14159))
	assert.Equal(t, "-42.57", fmtFloat(-42.567))
	assert.Equal(t, "-", fmtOptional(nil))
	v := 1.5
	assert.Equal(t, "1.50", fmtOptional(&v))
}

func TestWriteStabilityTable(t *testing.T) {
	cfg := testConfig()
	report := schema.BuildReport(cfg.InputPath, sampleResult(), 0)

	var buf bytes.Buffer
	require.NoError(t, writeStabilityTable(report, cfg, 1500*time.Millisecond, &buf))
	out := buf.String()

	assert.Contains(t, out, "weir_crest")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Flat")
	assert.Contains(t, out, "1.10, 1.20, 1.30, ... +1, 1.50")
	assert.Contains(t, out, "Showing 3 of 3 nodes (stage, failed: 1)")
	assert.Contains(t, out, "Windows: smoothing 0.50 h = 5 samples, scan 1.00 h = 10 samples")
	assert.Contains(t, out, "with 2 workers. Cache backend: none")

	// Failed nodes rank first
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("weir_crest")), bytes.Index(buf.Bytes(), []byte("upstream")))
}

func TestPrintStabilityResultsJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, PrintStabilityResults(sampleResult(), cfg, time.Second))

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report schema.RunReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.False(t, report.Passed)
	assert.Equal(t, 3, report.TotalNodes)
	assert.Equal(t, "results.csv", report.Source)
	require.Len(t, report.FailedNodes, 1)
	assert.Equal(t, "weir_crest", report.FailedNodes[0].Name)
	require.Len(t, report.Nodes, 3)
	require.NotNil(t, report.Nodes[0].LastFail)
	assert.Equal(t, 1.5, *report.Nodes[0].LastFail)
}

func TestPrintStabilityResultsLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.JSONOut
	cfg.ResultLimit = 1
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, PrintStabilityResults(sampleResult(), cfg, time.Second))
	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report schema.RunReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Len(t, report.Nodes, 1)
	assert.Equal(t, 3, report.TotalNodes)
}

func TestPrintStabilityResultsParquet(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.ParquetOut

	err := PrintStabilityResults(sampleResult(), cfg, time.Second)
	assert.ErrorContains(t, err, "requires --output-file")

	cfg.OutputFile = filepath.Join(t.TempDir(), "verdicts.parquet")
	require.NoError(t, PrintStabilityResults(sampleResult(), cfg, time.Second))

	f, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	require.NoError(t, err)

	rows, err := parquet.Read[iparquet.VerdictRow](f, info.Size())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "weir_crest", rows[0].Node)
	assert.Equal(t, int32(5), rows[0].FailCount)
	assert.Equal(t, []float64{1.1, 1.2, 1.3, 1.4, 1.5}, rows[0].FailTimes)
	assert.Equal(t, "stage", rows[0].Kind)
	assert.True(t, rows[2].Flat)
}

func TestPrintNodeDiagnostics(t *testing.T) {
	result := sampleResult()
	v := &result.Verdicts[1]
	v.Smoothed = []float64{0, 0, 0, 1}
	v.FirstDerivative = []float64{0, 0, 10}
	v.SecondDerivative = []float64{0, 100}
	v.FailTimes = []float64{0.2}
	diag := schema.BuildDiagnostics([]float64{0, 0.1, 0.2, 0.3}, []float64{0, 0, 0, 5}, schema.StageKind, v)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDiagnosticsTable(diag, testConfig(), &buf))
		out := buf.String()
		assert.Contains(t, out, "100.00")
		assert.Contains(t, out, "*")
		assert.Contains(t, out, "Node weir_crest (stage): Failed with 1 flagged samples")
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(t.TempDir(), "diag.json")
		require.NoError(t, PrintNodeDiagnostics(diag, cfg))

		raw, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var decoded schema.NodeDiagnostics
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded.Rows, 4)
		assert.Nil(t, decoded.Rows[3].FirstDerivative)
		assert.Nil(t, decoded.Rows[2].SecondDerivative)
		require.NotNil(t, decoded.Rows[1].SecondDerivative)
		assert.Equal(t, 100.0, *decoded.Rows[1].SecondDerivative)
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.ParquetOut
		cfg.OutputFile = filepath.Join(t.TempDir(), "diag.parquet")
		assert.Error(t, PrintNodeDiagnostics(diag, cfg))
	})
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}, "Wrote test")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	err = writeWithFile(filepath.Join(t.TempDir(), "missing", "out.txt"), func(io.Writer) error { return nil }, "Wrote test")
	assert.Error(t, err)
}

func TestPrintTolerancesText(t *testing.T) {
	cfg := testConfig()
	cfg.Tolerances.Ratio = 2
	model := buildTolerancesRenderModel(cfg.Tolerances)

	var buf bytes.Buffer
	require.NoError(t, printTolerancesText(&buf, model, cfg))
	out := buf.String()

	assert.Contains(t, out, "Hydrocheck Stability Detector")
	assert.Contains(t, out, "1. Smooth the raw series")
	assert.Contains(t, out, "smoothing_window")
	assert.Contains(t, out, "2 *")
	assert.Contains(t, out, "overridden by config file or flags")
}

func TestPrintTolerancesJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "tolerances.json")

	require.NoError(t, PrintTolerances(cfg))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var model schema.TolerancesRenderModel
	require.NoError(t, json.Unmarshal(data, &model))
	require.Len(t, model.Tolerances, 5)
	assert.Equal(t, "stage", model.Tolerances[0].Key)
	assert.Equal(t, schema.DefaultStageTolerance, model.Tolerances[0].Default)
	assert.Len(t, model.Steps, 4)

	cfg.Output = schema.ParquetOut
	assert.Error(t, PrintTolerances(cfg))
}
