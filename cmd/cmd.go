// Package cmd defines the command-line interface for hydrocheck.
package cmd

import (
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(stabilityCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(tolerancesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("kind", "k", string(schema.StageKind), "Series to analyze: stage or flow")
	rootCmd.PersistentFlags().String("format", string(schema.AutoInput), "Results encoding: auto or csv or json or parquet")
	rootCmd.PersistentFlags().Float64("save-interval", 0, "Hours between samples (0 = derive from the time axis)")
	rootCmd.PersistentFlags().StringP("node", "n", "", "Comma-separated list of node names to analyze")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of nodes to display (0 = all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for times and derivatives")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("tolerances-override", "", "Detector tolerances (format: 'stage:0.2,flow:1,ratio:1.5,smoothing_window:0.5,scan_window:1')")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of stabilityCmd to Viper
	stabilityCmd.Flags().BoolP("watch", "w", false, "Re-run the analysis whenever the results file changes")
	stabilityCmd.Flags().String("debounce", contract.DefaultDebounce.String(), "Quiet period after a change before re-running")
	if err := viper.BindPFlags(stabilityCmd.Flags()); err != nil {
		contract.LogFatal("Error binding stability flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
