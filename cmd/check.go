package cmd

import (
	"errors"
	"os"

	"github.com/huangsam/hydrocheck/core"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/iocache"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD gating of model runs.
var checkCmd = &cobra.Command{
	Use:   "check <results-file>",
	Short: "Fail with a non-zero exit code when any node is unstable",
	Long: `Run the stability detector and exit with code 1 when at least one node is flagged.

Designed for batch model pipelines - a run that goes unstable is rejected before its
results are published or used as boundary conditions downstream.

Default tolerances: stage 0.2, flow 1.0, ratio 1.5, smoothing window 0.5h, scan window 1h

Examples:
  # Gate a model run on stage stability
  hydrocheck check results.csv

  # Gate on flow with a looser magnitude tolerance
  hydrocheck check results.csv --kind flow --tolerances-override "flow:2.5"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteCheck(rootCtx, cfg, cacheManager)
		if errors.Is(err, core.ErrUnstable) {
			iocache.CloseStores()
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Stability check failed", err)
		}
	},
}
