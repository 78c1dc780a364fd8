package cmd

import (
	"github.com/huangsam/hydrocheck/core"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/spf13/cobra"
)

// nodeCmd prints the detector trace of a single node.
var nodeCmd = &cobra.Command{
	Use:   "node <results-file> <node-name>",
	Short: "Show the per-sample detector trace of one node",
	Long: `Print time, raw value, smoothed value, first and second derivative for one node.
Samples flagged by the detector are marked with '*'.

Use JSON output to feed a plotting tool.

Examples:
  # Inspect why a node failed
  hydrocheck node results.csv RIV_01

  # Dump the flow trace for plotting
  hydrocheck node results.csv RIV_01 --kind flow --output json --output-file riv01.json`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteNode(rootCtx, cfg, cacheManager, args[1]); err != nil {
			contract.LogFatal("Cannot trace node", err)
		}
	},
}
