package outwriter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/parquet"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// maxFailTimesShown caps the fail times listed in a single table cell.
const maxFailTimesShown = 4

// PrintStabilityResults outputs the verdicts of a run, dispatching based on the output format configured.
func PrintStabilityResults(result *schema.StabilityResult, cfg *contract.Config, duration time.Duration) error {
	report := schema.BuildReport(cfg.InputPath, result, cfg.ResultLimit)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteVerdictRows(parquet.ConvertSummaries(report.Kind, report.Nodes), w)
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStabilityTable(report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeStabilityTable generates and writes the human-readable verdict table.
func writeStabilityTable(report schema.RunReport, cfg *contract.Config, duration time.Duration, w io.Writer) error {
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)
	nameWidth := GetMaxTableNameWidth(cfg)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Node", "Index", "Status", "Fails", "First fail", "Last fail", "Fail times"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, n := range report.Nodes {
		label := contract.GetPlainLabel(n.Status, n.Flat)
		if cfg.UseColors {
			label = contract.GetColorLabel(n.Status, n.Flat)
		}
		data = append(data, []string{
			strconv.Itoa(n.Rank),
			contract.TruncateName(n.Node, nameWidth),
			strconv.Itoa(n.Index),
			label,
			strconv.Itoa(n.FailCount),
			fmtOptional(n.FirstFail),
			fmtOptional(n.LastFail),
			contract.FormatFailTimes(n.FailTimes, cfg.Precision, maxFailTimesShown),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d nodes (%s, failed: %d)\n",
		len(report.Nodes), report.TotalNodes, report.Kind, len(report.FailedNodes)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Windows: smoothing %s h = %d samples, scan %s h = %d samples\n",
		fmtFloat(report.Tolerances.SmoothingWindowHours), report.WindowLength,
		fmtFloat(report.Tolerances.ScanWindowHours), report.HourLength); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}
