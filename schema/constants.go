package schema

// Custom string types for type safety.
type (
	// SeriesKind selects which result series of a node is analyzed.
	SeriesKind string

	// Status represents the stability verdict of a node.
	Status string

	// OutputMode represents the format of the output.
	OutputMode string

	// InputFormat represents the encoding of a results export.
	InputFormat string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string
)

// All series kinds supported.
const (
	StageKind SeriesKind = "stage" // default
	FlowKind  SeriesKind = "flow"
)

// All verdict statuses.
const (
	PassedStatus Status = "Passed"
	FailedStatus Status = "Failed"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All input formats supported.
const (
	AutoInput    InputFormat = "auto" // default, resolved from the file extension
	CSVInput     InputFormat = "csv"
	JSONInput    InputFormat = "json"
	ParquetInput InputFormat = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Default detector tolerances.
const (
	DefaultStageTolerance       = 0.2
	DefaultFlowTolerance        = 1.0
	DefaultRatioTolerance       = 1.5
	DefaultSmoothingWindowHours = 0.5
	DefaultScanWindowHours      = 1.0
)

// AllSeriesKinds returns a list of all supported series kinds.
var AllSeriesKinds = []SeriesKind{StageKind, FlowKind}

// ValidSeriesKinds lists all valid series kinds.
var ValidSeriesKinds = map[SeriesKind]struct{}{
	StageKind: {},
	FlowKind:  {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidInputFormats lists all valid input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	AutoInput:    {},
	CSVInput:     {},
	JSONInput:    {},
	ParquetInput: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
