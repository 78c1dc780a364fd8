package cmd

import (
	"github.com/huangsam/hydrocheck/core"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/spf13/cobra"
)

// tolerancesCmd displays the detector definition and thresholds in effect.
var tolerancesCmd = &cobra.Command{
	Use:   "tolerances",
	Short: "Display the detector rules and the tolerances in effect",
	Long: `Show how the stability detector classifies a node and which tolerances apply.

Values that differ from the defaults (through .hydrocheck.yaml, environment variables
or --tolerances-override) are marked.

No results are read - this is purely informational.

Examples:
  # Show default tolerances
  hydrocheck tolerances

  # Verify a config file
  hydrocheck tolerances --config .hydrocheck.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTolerances(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display tolerances", err)
		}
	},
}
