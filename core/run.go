package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/hydrocheck/core/stability"
	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// progressMinNodes is the batch size from which progress lines are printed.
const progressMinNodes = 50

// runOutput is everything one analysis pass produced.
type runOutput struct {
	Set    schema.NodeSet
	Result *schema.StabilityResult
	RunID  int64
}

// runStabilityCore performs the common load, analyze and record steps.
func runStabilityCore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*runOutput, error) {
	// --- 1. Load Phase (with caching) ---
	set, err := cachedLoadNodeSet(cfg, mgr)
	if err != nil {
		return nil, err
	}
	if len(set.Nodes) == 0 {
		return nil, errors.New("no nodes found in results")
	}
	// Machine-readable output keeps stdout clean
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		logStabilityHeader(cfg, set)
	}

	// --- 2. Begin History Tracking (if configured) ---
	startTime := time.Now()
	runID := beginRun(mgr, cfg, startTime)

	// --- 3. Core Analysis ---
	result, err := analyze(ctx, cfg, set)
	if err != nil {
		return nil, err
	}

	// --- 4. Record and End History Tracking ---
	recordRun(mgr, runID, cfg.Kind, result, startTime, time.Now())

	return &runOutput{Set: set, Result: result, RunID: runID}, nil
}

// analyze runs the detector. Per-node failures are reported as warnings and
// the partial result is kept; anything else aborts.
func analyze(ctx context.Context, cfg *contract.Config, set schema.NodeSet) (*schema.StabilityResult, error) {
	opts := []stability.Option{
		stability.WithTolerances(cfg.Tolerances),
		stability.WithWorkers(cfg.Workers),
	}
	if !shouldSuppressHeader(ctx) && len(set.Nodes) >= progressMinNodes {
		opts = append(opts, stability.WithProgress(func(done, total int) {
			_, _ = fmt.Fprintf(os.Stderr, "\rAnalyzed %d/%d nodes", done, total)
			if done == total {
				_, _ = fmt.Fprintln(os.Stderr)
			}
		}))
	}

	result, err := stability.New(opts...).Analyze(ctx, cfg.Kind, set)
	if result == nil {
		return nil, fmt.Errorf("stability analysis failed: %w", err)
	}
	if err != nil {
		contract.LogWarn("Some nodes were skipped", err)
	}
	return result, nil
}
