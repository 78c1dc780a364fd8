package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/parquet"
)

// ExecuteHistoryExport writes the run history held by store to two Parquet files
// named after outputFile, reporting progress to out.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(out, "Total node verdicts: %d\n", status.TableSizes[nodeVerdictsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	verdicts, err := store.GetAllVerdicts()
	if err != nil {
		return fmt.Errorf("failed to retrieve node verdicts: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetVerdicts := parquet.ConvertNodeVerdictRecords(verdicts)
	verdictsFile := outputFile + ".node_verdicts.parquet"
	if err := parquet.WriteNodeVerdictsParquet(parquetVerdicts, verdictsFile); err != nil {
		return fmt.Errorf("failed to write node verdicts: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d node verdicts to: %s\n", len(parquetVerdicts), verdictsFile)

	_, _ = fmt.Fprintln(out, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(out, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(out, "  - DuckDB")
	_, _ = fmt.Fprintln(out, "  - Any other Parquet-compatible tool")
	return nil
}
