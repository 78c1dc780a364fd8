// Package core has the orchestration logic that loads results, runs the
// stability analysis, records history and writes verdicts.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/outwriter"
	"github.com/huangsam/hydrocheck/internal/watch"
	"github.com/huangsam/hydrocheck/schema"
)

// ErrUnstable is returned by ExecuteCheck when at least one node fails.
var ErrUnstable = errors.New("stability check failed")

// ExecutorFunc defines the function signature for executing the commands that analyze a results file.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteStability analyzes the configured results file and prints the verdicts.
// With watch mode enabled it re-runs whenever the file changes, until ctx is cancelled.
func ExecuteStability(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	writer := outwriter.NewOutWriter()
	runOnce := func(ctx context.Context) error {
		start := time.Now()
		output, err := runStabilityCore(ctx, cfg, mgr)
		if err != nil {
			return err
		}
		return writer.WriteStability(output.Result, cfg, time.Since(start))
	}

	if !cfg.Watch {
		return runOnce(ctx)
	}

	if err := runOnce(ctx); err != nil {
		contract.LogWarn("Initial analysis failed", err)
	}
	return watch.Watch(ctx, cfg.InputPath, cfg.Debounce, func(ctx context.Context) error {
		logRerunHeader(cfg)
		if err := runOnce(ctx); err != nil {
			// Keep watching; the next save may fix the file
			contract.LogWarn("Re-analysis failed", err)
		}
		return nil
	})
}

// ExecuteCheck runs the analysis as a CI gate and returns ErrUnstable when any node fails.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	output, err := runStabilityCore(withSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return err
	}
	printCheckResult(os.Stdout, cfg, output.Result, time.Since(start))
	if !output.Result.Passed() {
		return ErrUnstable
	}
	return nil
}

// ExecuteNode prints the per-sample detector trace of one node.
func ExecuteNode(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, node string) error {
	diag, err := GetNodeDiagnostics(withSuppressHeader(ctx), cfg, mgr, node)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteDiagnostics(diag, cfg)
}

// ExecuteTolerances prints the detector definition and thresholds. No results are read.
func ExecuteTolerances(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.NewOutWriter().WriteTolerances(cfg)
}

// GetStabilityResults runs the analysis without printing anything.
// It is used by the MCP server.
func GetStabilityResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.StabilityResult, error) {
	output, err := runStabilityCore(withSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return nil, err
	}
	return output.Result, nil
}

// GetNodeDiagnostics runs the analysis on a single node and lines up its detector arrays.
// The analysis is not recorded in history.
func GetNodeDiagnostics(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, node string) (schema.NodeDiagnostics, error) {
	if node == "" {
		return schema.NodeDiagnostics{}, errors.New("node name is required")
	}
	nodeCfg := cfg.Clone()
	nodeCfg.NodeFilter = []string{node}

	set, err := cachedLoadNodeSet(nodeCfg, mgr)
	if err != nil {
		return schema.NodeDiagnostics{}, err
	}
	result, err := analyze(withSuppressHeader(ctx), nodeCfg, set)
	if err != nil {
		return schema.NodeDiagnostics{}, err
	}
	verdict, ok := result.Verdict(node)
	if !ok {
		return schema.NodeDiagnostics{}, fmt.Errorf("node %q could not be analyzed", node)
	}
	raw := set.Nodes[0].Values(nodeCfg.Kind)
	return schema.BuildDiagnostics(set.Times, raw, nodeCfg.Kind, verdict), nil
}
