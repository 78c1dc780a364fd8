package schema

// NodeSummary adds presentation data to a verdict, without the diagnostic arrays.
type NodeSummary struct {
	Rank      int       `json:"rank"`
	Node      string    `json:"node"`
	Index     int       `json:"index"`
	Status    Status    `json:"status"`
	FailCount int       `json:"fail_count"`
	FirstFail *float64  `json:"first_fail,omitempty"`
	LastFail  *float64  `json:"last_fail,omitempty"`
	Flat      bool      `json:"flat,omitempty"`
	FailTimes []float64 `json:"fail_times,omitempty"`
}

// RunReport is the JSON document written for a stability run.
type RunReport struct {
	Source       string          `json:"source,omitempty"`
	Kind         SeriesKind      `json:"kind"`
	Tolerances   ToleranceConfig `json:"tolerances"`
	WindowLength int             `json:"window_length"`
	HourLength   int             `json:"hour_length"`
	TotalNodes   int             `json:"total_nodes"`
	Passed       bool            `json:"passed"`
	FailedNodes  []FailedNode    `json:"failed_nodes"`
	Nodes        []NodeSummary   `json:"nodes"`
}

// DiagnosticRow is one sample of a node's detector trace.
// Derivative values are nil past the end of their shorter arrays.
type DiagnosticRow struct {
	Time             float64  `json:"time"`
	Raw              float64  `json:"raw"`
	Smoothed         float64  `json:"smoothed"`
	FirstDerivative  *float64 `json:"first_derivative,omitempty"`
	SecondDerivative *float64 `json:"second_derivative,omitempty"`
}

// NodeDiagnostics is the plotting payload for a single node.
type NodeDiagnostics struct {
	Node      string          `json:"node"`
	Kind      SeriesKind      `json:"kind"`
	Status    Status          `json:"status"`
	FailTimes []float64       `json:"fail_times"`
	Rows      []DiagnosticRow `json:"rows"`
}

// Summarize converts verdicts into ranked summaries: failed nodes first, in node order.
// A limit of zero or less keeps every node.
func Summarize(result *StabilityResult, limit int) []NodeSummary {
	ordered := make([]*StabilityVerdict, 0, len(result.Verdicts))
	for i := range result.Verdicts {
		if result.Verdicts[i].Failed() {
			ordered = append(ordered, &result.Verdicts[i])
		}
	}
	for i := range result.Verdicts {
		if !result.Verdicts[i].Failed() {
			ordered = append(ordered, &result.Verdicts[i])
		}
	}
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]NodeSummary, len(ordered))
	for i, v := range ordered {
		s := NodeSummary{
			Rank:      i + 1,
			Node:      v.Node,
			Index:     v.Index,
			Status:    v.Status,
			FailCount: len(v.FailTimes),
			Flat:      v.Flat,
			FailTimes: v.FailTimes,
		}
		if t, ok := v.FirstFail(); ok {
			s.FirstFail = &t
		}
		if t, ok := v.LastFail(); ok {
			s.LastFail = &t
		}
		out[i] = s
	}
	return out
}

// BuildReport assembles the JSON report for a run.
func BuildReport(source string, result *StabilityResult, limit int) RunReport {
	failed := result.FailedNodes
	if failed == nil {
		failed = []FailedNode{}
	}
	return RunReport{
		Source:       source,
		Kind:         result.Kind,
		Tolerances:   result.Tolerances,
		WindowLength: result.WindowLength,
		HourLength:   result.HourLength,
		TotalNodes:   len(result.Verdicts),
		Passed:       result.Passed(),
		FailedNodes:  failed,
		Nodes:        Summarize(result, limit),
	}
}

// BuildDiagnostics lines up the raw series with the detector arrays of one verdict.
func BuildDiagnostics(times, raw []float64, kind SeriesKind, v *StabilityVerdict) NodeDiagnostics {
	rows := make([]DiagnosticRow, len(times))
	for i := range times {
		row := DiagnosticRow{Time: times[i]}
		if i < len(raw) {
			row.Raw = raw[i]
		}
		if i < len(v.Smoothed) {
			row.Smoothed = v.Smoothed[i]
		}
		if i < len(v.FirstDerivative) {
			d := v.FirstDerivative[i]
			row.FirstDerivative = &d
		}
		if i < len(v.SecondDerivative) {
			d := v.SecondDerivative[i]
			row.SecondDerivative = &d
		}
		rows[i] = row
	}
	failTimes := v.FailTimes
	if failTimes == nil {
		failTimes = []float64{}
	}
	return NodeDiagnostics{
		Node:      v.Node,
		Kind:      kind,
		Status:    v.Status,
		FailTimes: failTimes,
		Rows:      rows,
	}
}

// ToleranceRow is one threshold of the detector with its default.
type ToleranceRow struct {
	Key     string  `json:"key"`
	Value   float64 `json:"value"`
	Default float64 `json:"default"`
	Meaning string  `json:"meaning"`
}

// TolerancesRenderModel describes the detector for the tolerances command.
type TolerancesRenderModel struct {
	Description string         `json:"description"`
	Steps       []string       `json:"steps"`
	Tolerances  []ToleranceRow `json:"tolerances"`
}
