// Package schema has models and constants for all parts of hydrocheck.
package schema

// NodeSeries holds the stage and flow series of one model node.
// Both arrays share the time axis of the owning NodeSet.
type NodeSeries struct {
	Name  string    `json:"name"`
	Stage []float64 `json:"stage"`
	Flow  []float64 `json:"flow"`
}

// Values returns the series selected by kind.
func (n NodeSeries) Values(kind SeriesKind) []float64 {
	if kind == FlowKind {
		return n.Flow
	}
	return n.Stage
}

// NodeSet is a decoded results export: one time axis shared by every node.
type NodeSet struct {
	Source       string       `json:"source,omitempty"`
	Times        []float64    `json:"times"`         // Simulation time in hours
	SaveInterval float64      `json:"save_interval"` // Constant spacing between samples, in hours
	Nodes        []NodeSeries `json:"nodes"`
}

// ToleranceConfig holds the detector thresholds.
type ToleranceConfig struct {
	StageSecondDerivative float64 `json:"stage" validate:"gt=0"`
	FlowSecondDerivative  float64 `json:"flow" validate:"gt=0"`
	Ratio                 float64 `json:"ratio" validate:"gt=0"`
	SmoothingWindowHours  float64 `json:"smoothing_window_hours" validate:"gt=0"`
	ScanWindowHours       float64 `json:"scan_window_hours" validate:"gt=0"`
}

// DefaultTolerances returns the detector defaults.
func DefaultTolerances() ToleranceConfig {
	return ToleranceConfig{
		StageSecondDerivative: DefaultStageTolerance,
		FlowSecondDerivative:  DefaultFlowTolerance,
		Ratio:                 DefaultRatioTolerance,
		SmoothingWindowHours:  DefaultSmoothingWindowHours,
		ScanWindowHours:       DefaultScanWindowHours,
	}
}

// SecondDerivativeFor returns the magnitude tolerance applied to the given kind.
func (t ToleranceConfig) SecondDerivativeFor(kind SeriesKind) float64 {
	if kind == FlowKind {
		return t.FlowSecondDerivative
	}
	return t.StageSecondDerivative
}

// StabilityVerdict is the outcome of analyzing one node.
type StabilityVerdict struct {
	Node             string    `json:"node"`
	Index            int       `json:"index"`
	Status           Status    `json:"status"`
	FailTimes        []float64 `json:"fail_times"`
	Flat             bool      `json:"flat"` // Raw series is constant or near-zero variance
	Smoothed         []float64 `json:"smoothed"`
	FirstDerivative  []float64 `json:"first_derivative"`
	SecondDerivative []float64 `json:"second_derivative"`
}

// Failed reports whether the node was flagged.
func (v *StabilityVerdict) Failed() bool {
	return v.Status == FailedStatus
}

// FirstFail returns the earliest fail time, if any.
func (v *StabilityVerdict) FirstFail() (float64, bool) {
	if len(v.FailTimes) == 0 {
		return 0, false
	}
	return v.FailTimes[0], true
}

// LastFail returns the latest fail time, if any.
func (v *StabilityVerdict) LastFail() (float64, bool) {
	if len(v.FailTimes) == 0 {
		return 0, false
	}
	return v.FailTimes[len(v.FailTimes)-1], true
}

// FailedNode identifies a flagged node by name and position in the source.
type FailedNode struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// StabilityResult aggregates the verdicts of one analysis run.
type StabilityResult struct {
	Kind         SeriesKind         `json:"kind"`
	Tolerances   ToleranceConfig    `json:"tolerances"`
	WindowLength int                `json:"window_length"` // Smoothing window in samples
	HourLength   int                `json:"hour_length"`   // Scan window in samples
	Verdicts     []StabilityVerdict `json:"verdicts"`
	FailedNodes  []FailedNode       `json:"failed_nodes"`

	byName map[string]int
}

// Verdict looks up the verdict of a node by name.
func (r *StabilityResult) Verdict(name string) (*StabilityVerdict, bool) {
	if r.byName == nil {
		r.byName = make(map[string]int, len(r.Verdicts))
		for i := range r.Verdicts {
			r.byName[r.Verdicts[i].Node] = i
		}
	}
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &r.Verdicts[i], true
}

// Passed reports whether no node was flagged.
func (r *StabilityResult) Passed() bool {
	return len(r.FailedNodes) == 0
}
