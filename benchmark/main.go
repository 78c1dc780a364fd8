// Package main provides a performance benchmarking tool for the Hydrocheck CLI.
// It generates synthetic results exports of increasing size, runs the stability
// command against each one several times, treats the first successful cached run as
// cold and averages the rest as warm, and writes a CSV for performance analysis.
//
// Prerequisites:
// - hydrocheck binary installed and available in PATH
//
// Usage: go run ./benchmark [work-dir]
//
//	work-dir: Directory for the generated results files (defaults to a temp dir)
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/hydrocheck/internal/parquet"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Format      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one synthetic results export.
type Dataset struct {
	Name    string
	Nodes   int
	Samples int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
	Formats     []string
}

func main() {
	workDir := ""
	switch len(os.Args) {
	case 1:
		dir, err := os.MkdirTemp("", "hydrocheck-benchmark-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	case 2:
		workDir = os.Args[1]
	default:
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Nodes: 50, Samples: 241},     // 1 day at 6 min
			{Name: "medium", Nodes: 500, Samples: 721},   // 3 days at 6 min
			{Name: "large", Nodes: 2000, Samples: 1441},  // 6 days at 6 min
			{Name: "xlarge", Nodes: 5000, Samples: 2881}, // 12 days at 6 min
		},
		Formats: []string{"csv", "parquet"},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using hydrocheck cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("hydrocheck", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config.Formats)
}

// checkPrerequisites verifies that the hydrocheck binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("hydrocheck"); err != nil {
		return fmt.Errorf("hydrocheck binary not found in PATH")
	}
	return nil
}

// runBenchmarks generates every dataset and benchmarks it in every format
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Benchmarking %s (%d nodes x %d samples)\n", ds.Name, ds.Nodes, ds.Samples)
		for _, format := range config.Formats {
			path := filepath.Join(config.WorkDir, fmt.Sprintf("%s.%s", ds.Name, format))
			if err := generateDataset(ds, format, path); err != nil {
				return nil, fmt.Errorf("failed to generate %s: %w", path, err)
			}
			results = append(results, runBenchmarkSuite(config, ds, format, path))
		}
	}

	return results, nil
}

// generateDataset writes a synthetic export where every tenth node oscillates.
func generateDataset(ds Dataset, format, path string) error {
	const dx = 0.1
	value := func(node, i int) (stage, flow float64) {
		t := float64(i) * dx
		stage = 10 + math.Sin(t/4+float64(node))
		flow = 50 + 5*math.Cos(t/6)
		if node%10 == 0 && i%7 == 0 {
			stage += 0.8 // Sawtooth that the detector flags
		}
		return stage, flow
	}

	if format == "parquet" {
		samples := make([]parquet.SeriesSample, 0, ds.Nodes*ds.Samples)
		for n := range ds.Nodes {
			for i := range ds.Samples {
				stage, flow := value(n, i)
				samples = append(samples, parquet.SeriesSample{Node: fmt.Sprintf("N%05d", n), Time: float64(i) * dx, Stage: stage, Flow: flow})
			}
		}
		return parquet.WriteSeriesSamplesParquet(samples, path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	header := make([]string, 0, 1+2*ds.Nodes)
	header = append(header, "time")
	for n := range ds.Nodes {
		header = append(header, fmt.Sprintf("N%05d.stage", n), fmt.Sprintf("N%05d.flow", n))
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i := range ds.Samples {
		row[0] = strconv.FormatFloat(float64(i)*dx, 'f', 1, 64)
		for n := range ds.Nodes {
			stage, flow := value(n, i)
			row[1+2*n] = strconv.FormatFloat(stage, 'f', 4, 64)
			row[2+2*n] = strconv.FormatFloat(flow, 'f', 4, 64)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a dataset
func runBenchmarkSuite(config BenchmarkConfig, ds Dataset, format, path string) BenchmarkResult {
	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s %s phase (%d runs)\n", format, phaseName, numRuns)
		cold, times := runBenchmark(config, path, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     ds.Name,
		Format:      format,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes the stability command multiple times with the specified cache backend
// and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, path, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{"stability", path, "--cache-backend", cacheBackend, "--workers", strconv.Itoa(config.Workers), "--limit", "5"}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("hydrocheck", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("hydrocheck_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"dataset", "format", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Format, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, formats []string) {
	fmt.Printf("Benchmark complete\n")
	for _, format := range formats {
		fmt.Printf("%s input:\n", strings.ToUpper(format))
		for _, result := range results {
			if result.Format == format {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
