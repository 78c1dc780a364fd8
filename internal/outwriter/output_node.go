package outwriter

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintNodeDiagnostics outputs the per-sample trace of one node.
func PrintNodeDiagnostics(diag schema.NodeDiagnostics, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, diag)
		}, "Wrote JSON diagnostics"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for node diagnostics")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDiagnosticsTable(diag, cfg, w)
		}, "Wrote diagnostics table")
	}
}

// writeDiagnosticsTable renders one row per sample with the detector arrays lined up.
func writeDiagnosticsTable(diag schema.NodeDiagnostics, cfg *contract.Config, w io.Writer) error {
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)

	failAt := make(map[string]struct{}, len(diag.FailTimes))
	for _, t := range diag.FailTimes {
		failAt[contract.FormatHours(t, 3)] = struct{}{}
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Time", "Raw", "Smoothed", "D1", "D2", "Flag"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, row := range diag.Rows {
		flag := ""
		if _, ok := failAt[contract.FormatHours(row.Time, 3)]; ok {
			flag = "*"
		}
		data = append(data, []string{
			contract.FormatHours(row.Time, cfg.Precision),
			fmtFloat(row.Raw),
			fmtFloat(row.Smoothed),
			fmtOptional(row.FirstDerivative),
			fmtOptional(row.SecondDerivative),
			flag,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	status := contract.GetPlainLabel(diag.Status, false)
	if cfg.UseColors {
		status = contract.GetColorLabel(diag.Status, false)
	}
	_, err := fmt.Fprintf(w, "Node %s (%s): %s with %d flagged samples\n", diag.Node, diag.Kind, status, len(diag.FailTimes))
	return err
}
