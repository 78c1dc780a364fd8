package cmd

import (
	"github.com/huangsam/hydrocheck/core"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/spf13/cobra"
)

// stabilityCmd performs node-level stability analysis.
var stabilityCmd = &cobra.Command{
	Use:   "stability <results-file>",
	Short: "Show nodes flagged as numerically unstable, failed nodes first.",
	Long: `Analyze the stage or flow series of every node in an exported results file.

Each series is smoothed with a trailing mean, differentiated twice, and scanned with a
sliding window. A sample is flagged when the second derivative swings much more than the
first derivative and exceeds the magnitude tolerance for the series kind.

Supported inputs: wide CSV (optionally .gz), JSON, and long-format Parquet.

Examples:
  # Analyze stage series with default tolerances
  hydrocheck stability results.csv

  # Analyze flow at two nodes only
  hydrocheck stability results.csv --kind flow --node "RIV_01,RIV_02"

  # Re-run whenever the model writes a new export
  hydrocheck stability results.csv --watch

  # Export verdicts for BI tools
  hydrocheck stability results.csv --output parquet --output-file verdicts.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStability(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run stability analysis", err)
		}
	},
}
