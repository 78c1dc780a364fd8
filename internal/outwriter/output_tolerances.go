package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// detectorSteps describes the per-node classification in order.
var detectorSteps = []string{
	"Smooth the raw series with a trailing mean over the smoothing window (growing from the first sample)",
	"Differentiate the smoothed series once and twice, dividing by the save interval",
	"Slide a scan window over the second derivative, starting after one scan window has elapsed",
	"Flag a sample when range(d2) > range(d1) * ratio AND |d2| exceeds the kind tolerance",
}

// buildTolerancesRenderModel lines up the effective thresholds with their defaults.
func buildTolerancesRenderModel(tol schema.ToleranceConfig) schema.TolerancesRenderModel {
	def := schema.DefaultTolerances()
	return schema.TolerancesRenderModel{
		Description: "A node is unstable when its smoothed second derivative oscillates much faster than its first derivative and with a large magnitude.",
		Steps:       detectorSteps,
		Tolerances: []schema.ToleranceRow{
			{Key: "stage", Value: tol.StageSecondDerivative, Default: def.StageSecondDerivative, Meaning: "max |d2| of stage before flagging"},
			{Key: "flow", Value: tol.FlowSecondDerivative, Default: def.FlowSecondDerivative, Meaning: "max |d2| of flow before flagging"},
			{Key: "ratio", Value: tol.Ratio, Default: def.Ratio, Meaning: "range(d2) / range(d1) before flagging"},
			{Key: "smoothing_window", Value: tol.SmoothingWindowHours, Default: def.SmoothingWindowHours, Meaning: "trailing mean window in hours"},
			{Key: "scan_window", Value: tol.ScanWindowHours, Default: def.ScanWindowHours, Meaning: "derivative scan window in hours"},
		},
	}
}

// PrintTolerances displays the detector definition and the thresholds in effect.
// This is a static display that does not read any results.
func PrintTolerances(cfg *contract.Config) error {
	model := buildTolerancesRenderModel(cfg.Tolerances)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for tolerances")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printTolerancesText(w, model, cfg)
		}, "Wrote text")
	}
}

// printTolerancesText renders the definition and a tolerance table.
func printTolerancesText(w io.Writer, model schema.TolerancesRenderModel, cfg *contract.Config) error {
	title := "Hydrocheck Stability Detector"
	if cfg.UseEmojis {
		title = "🌊 " + title
	}
	if _, err := fmt.Fprintf(w, "%s\n\n%s\n\n", title, model.Description); err != nil {
		return err
	}
	for i, step := range model.Steps {
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, step); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tolerance", "Value", "Default", "Meaning"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft}
	})
	rows := make([][]string, 0, len(model.Tolerances))
	for _, t := range model.Tolerances {
		value := strconv.FormatFloat(t.Value, 'g', -1, 64)
		if t.Value != t.Default {
			value += " *"
		}
		rows = append(rows, []string{t.Key, value, strconv.FormatFloat(t.Default, 'g', -1, 64), t.Meaning})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "\n* overridden by config file or flags")
	return err
}
