package contract

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/hydrocheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input that passes validation, for tests to tweak.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Kind:           "stage",
		Workers:        4,
		Limit:          10,
		Precision:      3,
		Output:         "text",
		CacheBackend:   "none",
		HistoryBackend: "none",
		Emoji:          "no",
		Color:          "yes",
	}
}

func writeResults(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("time\n"), 0o644))
	return path
}

func TestProcessAndValidate(t *testing.T) {
	csvPath := writeResults(t, "results.csv")

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config"},
		{name: "valid with results file", mutate: func(in *ConfigRawInput) { in.InputPathStr = csvPath }},
		{name: "invalid kind", mutate: func(in *ConfigRawInput) { in.Kind = "velocity" }, expectError: "invalid kind"},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: "workers must be greater than 0"},
		{name: "limit too large", mutate: func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 }, expectError: "limit must be between"},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 5 }, expectError: "precision must be between"},
		{name: "negative save interval", mutate: func(in *ConfigRawInput) { in.SaveInterval = -1 }, expectError: "save-interval"},
		{name: "bad output", mutate: func(in *ConfigRawInput) { in.Output = "csv" }, expectError: "invalid output format"},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: "requires --output-file"},
		{name: "bad emoji", mutate: func(in *ConfigRawInput) { in.Emoji = "maybe" }, expectError: "invalid --emoji"},
		{name: "bad cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: "invalid cache backend"},
		{name: "bad debounce", mutate: func(in *ConfigRawInput) { in.Debounce = "soon" }, expectError: "invalid debounce"},
		{name: "bad format", mutate: func(in *ConfigRawInput) { in.Format = "xml" }, expectError: "invalid format"},
		{name: "missing file", mutate: func(in *ConfigRawInput) { in.InputPathStr = filepath.Join(t.TempDir(), "nope.csv") }, expectError: "cannot read results file"},
		{name: "directory as file", mutate: func(in *ConfigRawInput) { in.InputPathStr = t.TempDir() }, expectError: "is a directory"},
		{
			name: "negative tolerance in config file",
			mutate: func(in *ConfigRawInput) {
				v := -0.1
				in.Tolerances.Stage = &v
			},
			expectError: "tolerance StageSecondDerivative must be greater than 0",
		},
		{
			name:        "bad tolerance override",
			mutate:      func(in *ConfigRawInput) { in.TolerancesStr = "velocity:2" },
			expectError: "invalid --tolerances-override",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateFields(t *testing.T) {
	path := writeResults(t, "run.csv.gz")
	input := validInput()
	input.InputPathStr = path
	input.Kind = "FLOW"
	input.Node = " N1, N2 ,,N1"
	input.SaveInterval = 0.25
	input.Watch = true
	input.Debounce = "2s"
	ratio := 2.0
	input.Tolerances.Ratio = &ratio
	input.TolerancesStr = "flow:1.5, scan_window:2"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, path, cfg.InputPath)
	assert.Equal(t, schema.CSVInput, cfg.Format)
	assert.True(t, cfg.Compressed)
	assert.Equal(t, schema.FlowKind, cfg.Kind)
	assert.Equal(t, []string{"N1", "N2"}, cfg.NodeFilter)
	assert.Equal(t, 0.25, cfg.SaveInterval)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 2*time.Second, cfg.Debounce)
	assert.False(t, cfg.UseEmojis)
	assert.True(t, cfg.UseColors)

	assert.Equal(t, schema.ToleranceConfig{
		StageSecondDerivative: schema.DefaultStageTolerance,
		FlowSecondDerivative:  1.5,
		Ratio:                 2.0,
		SmoothingWindowHours:  schema.DefaultSmoothingWindowHours,
		ScanWindowHours:       2,
	}, cfg.Tolerances)
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))
	assert.Equal(t, schema.DefaultTolerances(), cfg.Tolerances)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.Equal(t, schema.AutoInput, cfg.Format)
	assert.Empty(t, cfg.InputPath)
	assert.Nil(t, cfg.NodeFilter)
}

func TestValidateBackendConfigs(t *testing.T) {
	tests := []struct {
		name        string
		cache       string
		cacheConn   string
		history     string
		historyConn string
		expectError string
	}{
		{name: "both none", cache: "none", history: "none"},
		{name: "history unset", cache: "sqlite"},
		{name: "distinct default sqlite files", cache: "sqlite", history: "sqlite"},
		{name: "same sqlite file", cache: "sqlite", cacheConn: "/tmp/x.db", history: "sqlite", historyConn: "/tmp/x.db", expectError: "different SQLite database files"},
		{name: "mysql missing tcp", cache: "mysql", cacheConn: "root@localhost/db", expectError: "@tcp("},
		{name: "mysql ok", cache: "mysql", cacheConn: "root:pw@tcp(localhost:3306)/db"},
		{name: "postgres missing dbname", cache: "none", history: "postgresql", historyConn: "host=localhost", expectError: "dbname="},
		{name: "postgres ok", cache: "none", history: "postgresql", historyConn: "host=localhost dbname=hc"},
		{name: "bad history", cache: "none", history: "mongo", expectError: "invalid history backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			input := &ConfigRawInput{
				CacheBackend:     tt.cache,
				CacheDBConnect:   tt.cacheConn,
				HistoryBackend:   tt.history,
				HistoryDBConnect: tt.historyConn,
			}
			err := validateBackendConfigs(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDetectInputFormat(t *testing.T) {
	tests := []struct {
		path       string
		format     schema.InputFormat
		want       schema.InputFormat
		compressed bool
		expectErr  bool
	}{
		{path: "a.csv", format: schema.AutoInput, want: schema.CSVInput},
		{path: "A.CSV.GZ", format: schema.AutoInput, want: schema.CSVInput, compressed: true},
		{path: "a.json", format: "", want: schema.JSONInput},
		{path: "a.json.gz", format: schema.AutoInput, want: schema.JSONInput, compressed: true},
		{path: "a.parquet", format: schema.AutoInput, want: schema.ParquetInput},
		{path: "a.parquet.gz", format: schema.AutoInput, expectErr: true},
		{path: "a.txt", format: schema.AutoInput, expectErr: true},
		{path: "a.txt", format: schema.CSVInput, want: schema.CSVInput},
		{path: "a.dat.gz", format: schema.JSONInput, want: schema.JSONInput, compressed: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, compressed, err := DetectInputFormat(tt.path, tt.format)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.compressed, compressed)
		})
	}
}

func TestParseTolerancesString(t *testing.T) {
	got, err := parseTolerancesString("stage:0.3, RATIO:2,,smoothing_window:0.75")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"stage": 0.3, "ratio": 2, "smoothing_window": 0.75}, got)

	_, err = parseTolerancesString("stage=0.3")
	assert.ErrorContains(t, err, "expected 'key:value'")

	_, err = parseTolerancesString("flow:abc")
	assert.ErrorContains(t, err, "invalid tolerance value")
}

func TestValidateTolerances(t *testing.T) {
	assert.NoError(t, ValidateTolerances(schema.DefaultTolerances()))

	tol := schema.DefaultTolerances()
	tol.Ratio = 0
	assert.ErrorContains(t, ValidateTolerances(tol), "Ratio must be greater than 0")

	tol = schema.DefaultTolerances()
	tol.ScanWindowHours = math.NaN()
	assert.ErrorContains(t, ValidateTolerances(tol), "finite")
}

func TestConfigClone(t *testing.T) {
	original := &Config{Kind: schema.StageKind, NodeFilter: []string{"A", "B"}, Tolerances: schema.DefaultTolerances()}
	clone := original.Clone()
	clone.NodeFilter[0] = "Z"
	clone.Tolerances.Ratio = 9
	assert.Equal(t, "A", original.NodeFilter[0])
	assert.Equal(t, schema.DefaultRatioTolerance, original.Tolerances.Ratio)

	moved, err := original.CloneWithInput("other.json")
	require.NoError(t, err)
	assert.Equal(t, "other.json", moved.InputPath)
	assert.Equal(t, schema.JSONInput, moved.Format)

	_, err = original.CloneWithInput("other.bin")
	assert.Error(t, err)
}

func TestConfigParams(t *testing.T) {
	cfg := &Config{Kind: schema.FlowKind, SaveInterval: 0.1, NodeFilter: []string{"N1"}, Tolerances: schema.DefaultTolerances()}
	params := cfg.ConfigParams()
	assert.Equal(t, schema.FlowKind, params["kind"])
	assert.Equal(t, 0.1, params["save_interval"])
	assert.Equal(t, []string{"N1"}, params["nodes"])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)
	require.NoError(t, ProcessProfilingConfig(profile, "hc"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "hc", profile.Prefix)
}
