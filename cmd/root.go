package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/iocache"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	// Start CPU profiling
	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	// Write memory profile
	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "hydrocheck",
	Short:              "Detect numerical instability in FMP hydraulic model results.",
	Long:               `Hydrocheck scans exported stage and flow series of a 1D flood model run and flags nodes whose smoothed derivatives oscillate like a numerically unstable solution.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigFile points viper at an explicit config file or the default search paths.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".hydrocheck") // Name of config file (without extension)
	viper.SetConfigType("yaml")        // We'll use YAML format
	viper.AddConfigPath(".")           // Look in the current directory
	viper.AddConfigPath("$HOME")       // Look in the home directory
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("HYDROCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("kind", schema.StageKind)
	viper.SetDefault("format", schema.AutoInput)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "yes")
	viper.SetDefault("emoji", "no")
}

// readConfigFile merges the config file into viper. A missing file is fine.
func readConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
// The first positional argument, when present, is the results file.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// Handle profiling flag
	profilePrefix := viper.GetString("profile")
	if err := contract.ProcessProfilingConfig(profile, profilePrefix); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if profile.Enabled {
		if err := startProfiling(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := readConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.InputPathStr = ""
	if len(args) > 0 {
		input.InputPathStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to the store commands.
func loadConfigFile() error {
	setConfigFile()
	return readConfigFile()
}

// backendFromViper reads a backend key, treating an empty value as disabled.
func backendFromViper(key string) schema.DatabaseBackend {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString(key)))
	if backend == "" {
		return schema.NoneBackend
	}
	return backend
}

// sqliteFilePath resolves the SQLite file of a store, preferring an explicit connection string.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
