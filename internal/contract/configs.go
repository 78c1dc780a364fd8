package contract

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/hydrocheck/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 3
	MaxPrecision       = 4
	DefaultDebounce    = 500 * time.Millisecond
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// validate caches struct metadata across calls.
var validate = validator.New()

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// TolerancesRawInput holds detector threshold overrides from the YAML config file.
// Pointers distinguish an unset key from an explicit value.
type TolerancesRawInput struct {
	Stage           *float64 `mapstructure:"stage"`
	Flow            *float64 `mapstructure:"flow"`
	Ratio           *float64 `mapstructure:"ratio"`
	SmoothingWindow *float64 `mapstructure:"smoothing_window"`
	ScanWindow      *float64 `mapstructure:"scan_window"`
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath    string
	Format       schema.InputFormat
	Compressed   bool // Input is gzip-compressed
	Kind         schema.SeriesKind
	SaveInterval float64 // Hours between samples (0 = derive from the time axis)
	NodeFilter   []string
	Workers      int
	ResultLimit  int
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)

	Tolerances schema.ToleranceConfig

	Watch    bool
	Debounce time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Kind             string  `mapstructure:"kind"`
	Format           string  `mapstructure:"format"`
	SaveInterval     float64 `mapstructure:"save-interval"`
	Node             string  `mapstructure:"node"`
	Workers          int     `mapstructure:"workers"`
	Limit            int     `mapstructure:"limit"`
	Precision        int     `mapstructure:"precision"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`
	Emoji            string  `mapstructure:"emoji"`
	Color            string  `mapstructure:"color"`

	// --- Fields from stabilityCmd.Flags() ---
	Watch    bool   `mapstructure:"watch"`
	Debounce string `mapstructure:"debounce"`

	// --- Detector threshold overrides from flags ---
	TolerancesStr string `mapstructure:"tolerances-override"`

	// --- Detector thresholds from config file ---
	Tolerances TolerancesRawInput `mapstructure:"tolerances"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.NodeFilter != nil {
		clone.NodeFilter = slices.Clone(c.NodeFilter)
	}
	return &clone
}

// CloneWithInput creates a copy of the Config that reads from another results file.
func (c *Config) CloneWithInput(path string) (*Config, error) {
	clone := c.Clone()
	format, compressed, err := DetectInputFormat(path, schema.AutoInput)
	if err != nil {
		return nil, err
	}
	clone.InputPath = path
	clone.Format = format
	clone.Compressed = compressed
	return clone, nil
}

// ConfigParams returns the settings recorded alongside a history run.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"kind":          c.Kind,
		"save_interval": c.SaveInterval,
		"nodes":         c.NodeFilter,
		"tolerances":    c.Tolerances,
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processWatchMode(cfg, input); err != nil {
		return err
	}
	if err := processTolerances(cfg, input); err != nil {
		return err
	}
	if err := resolveInputPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(host:port)'")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file, clearing one would wipe the other
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Kind Validation ---
	cfg.Kind = schema.SeriesKind(strings.ToLower(input.Kind))
	if _, ok := schema.ValidSeriesKinds[cfg.Kind]; !ok {
		return fmt.Errorf("invalid kind '%s'. must be stage, flow", input.Kind)
	}

	// --- 4. Save interval Validation ---
	if input.SaveInterval < 0 || math.IsNaN(input.SaveInterval) || math.IsInf(input.SaveInterval, 0) {
		return fmt.Errorf("save-interval must be a positive number of hours or 0 to derive it (received %g)", input.SaveInterval)
	}
	cfg.SaveInterval = input.SaveInterval

	// --- 5. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("parquet output requires --output-file")
	}

	// --- 6. Backend Validation ---
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}

	// --- 7. Node filter ---
	cfg.NodeFilter = nil
	for p := range strings.SplitSeq(input.Node, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" && !slices.Contains(cfg.NodeFilter, trimmed) {
			cfg.NodeFilter = append(cfg.NodeFilter, trimmed)
		}
	}

	return nil
}

// processWatchMode handles the watch flag and its debounce interval.
func processWatchMode(cfg *Config, input *ConfigRawInput) error {
	cfg.Watch = input.Watch
	cfg.Debounce = DefaultDebounce
	if input.Debounce == "" {
		return nil
	}
	d, err := time.ParseDuration(input.Debounce)
	if err != nil {
		return fmt.Errorf("invalid debounce '%s': %w", input.Debounce, err)
	}
	if d <= 0 {
		return fmt.Errorf("debounce must be positive (received %s)", d)
	}
	cfg.Debounce = d
	return nil
}

// ProcessTolerancesRawInput applies config file overrides on top of the detector defaults.
func ProcessTolerancesRawInput(raw TolerancesRawInput) schema.ToleranceConfig {
	tol := schema.DefaultTolerances()
	if raw.Stage != nil {
		tol.StageSecondDerivative = *raw.Stage
	}
	if raw.Flow != nil {
		tol.FlowSecondDerivative = *raw.Flow
	}
	if raw.Ratio != nil {
		tol.Ratio = *raw.Ratio
	}
	if raw.SmoothingWindow != nil {
		tol.SmoothingWindowHours = *raw.SmoothingWindow
	}
	if raw.ScanWindow != nil {
		tol.ScanWindowHours = *raw.ScanWindow
	}
	return tol
}

// ValidateTolerances checks every threshold is a positive finite number.
func ValidateTolerances(tol schema.ToleranceConfig) error {
	for _, v := range []float64{tol.StageSecondDerivative, tol.FlowSecondDerivative, tol.Ratio, tol.SmoothingWindowHours, tol.ScanWindowHours} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("tolerances must be finite (received %g)", v)
		}
	}
	if err := validate.Struct(tol); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("tolerance %s must be greater than 0 (received %v)", fe.Field(), fe.Value())
		}
		return fmt.Errorf("invalid tolerances: %w", err)
	}
	return nil
}

// processTolerances converts the raw input into the final cfg.Tolerances.
// Command-line --tolerances-override takes precedence over config file settings.
func processTolerances(cfg *Config, input *ConfigRawInput) error {
	tol := ProcessTolerancesRawInput(input.Tolerances)

	if input.TolerancesStr != "" {
		overrides, err := parseTolerancesString(input.TolerancesStr)
		if err != nil {
			return fmt.Errorf("invalid --tolerances-override format: %w", err)
		}
		for key, value := range overrides {
			switch key {
			case "stage":
				tol.StageSecondDerivative = value
			case "flow":
				tol.FlowSecondDerivative = value
			case "ratio":
				tol.Ratio = value
			case "smoothing_window":
				tol.SmoothingWindowHours = value
			case "scan_window":
				tol.ScanWindowHours = value
			}
		}
	}

	if err := ValidateTolerances(tol); err != nil {
		return err
	}
	cfg.Tolerances = tol
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveInputPath resolves the results file and its encoding.
// Commands without a positional file (history, cache) leave InputPath empty.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	format := schema.InputFormat(strings.ToLower(input.Format))
	if format == "" {
		format = schema.AutoInput
	}
	if _, ok := schema.ValidInputFormats[format]; !ok {
		return fmt.Errorf("invalid format '%s'. must be auto, csv, json, parquet", input.Format)
	}
	cfg.Format = format

	if input.InputPathStr == "" {
		return nil
	}
	absPath, err := filepath.Abs(input.InputPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("cannot read results file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("results path %s is a directory", absPath)
	}
	cfg.InputPath = absPath

	resolved, compressed, err := DetectInputFormat(absPath, format)
	if err != nil {
		return err
	}
	cfg.Format = resolved
	cfg.Compressed = compressed
	return nil
}

// DetectInputFormat resolves the encoding of a results file from its extension.
// An explicit format wins over the extension; a trailing .gz marks compression either way.
func DetectInputFormat(path string, format schema.InputFormat) (schema.InputFormat, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".gz")

	if format != "" && format != schema.AutoInput {
		return format, compressed, nil
	}
	switch filepath.Ext(name) {
	case ".csv":
		return schema.CSVInput, compressed, nil
	case ".json":
		return schema.JSONInput, compressed, nil
	case ".parquet":
		if compressed {
			return "", false, fmt.Errorf("parquet input cannot be gzip-compressed: %s", path)
		}
		return schema.ParquetInput, false, nil
	default:
		return "", false, fmt.Errorf("cannot detect format of %s, use --format csv|json|parquet", path)
	}
}

// parseTolerancesString parses a string like "stage:0.3,flow:1.5,ratio:2"
// into a map of tolerance keys to values.
func parseTolerancesString(s string) (map[string]float64, error) {
	tolerances := make(map[string]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid tolerance format '%s', expected 'key:value'", part)
		}

		key := strings.ToLower(strings.TrimSpace(keyValue[0]))
		valueStr := strings.TrimSpace(keyValue[1])

		switch key {
		case "stage", "flow", "ratio", "smoothing_window", "scan_window":
		default:
			return nil, fmt.Errorf("invalid tolerance '%s', must be stage, flow, ratio, smoothing_window, or scan_window", key)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tolerance value '%s' for %s: %w", valueStr, key, err)
		}

		tolerances[key] = value
	}

	return tolerances, nil
}
