package core

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// maxFailuresShown caps the failed nodes listed by the check command.
const maxFailuresShown = 10

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(w io.Writer, cfg *contract.Config, result *schema.StabilityResult, duration time.Duration) {
	printCheckHeader(w, cfg, result, duration)

	if result.Passed() {
		printCheckSuccess(w, cfg, result)
	} else {
		printCheckFailure(w, cfg, result)
	}
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(w io.Writer, cfg *contract.Config, result *schema.StabilityResult, duration time.Duration) {
	_, _ = fmt.Fprintln(w, "Stability Check Results:")

	tol := result.Tolerances
	labels := []string{"Results:", "Kind:", "Tolerances:", "Windows:"}
	values := []any{
		cfg.InputPath,
		result.Kind,
		fmt.Sprintf("stage=%g, flow=%g, ratio=%g", tol.StageSecondDerivative, tol.FlowSecondDerivative, tol.Ratio),
		fmt.Sprintf("smoothing=%gh (%d samples), scan=%gh (%d samples)",
			tol.SmoothingWindowHours, result.WindowLength, tol.ScanWindowHours, result.HourLength),
	}

	// Find the longest label for consistent padding
	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}
	for i, label := range labels {
		_, _ = fmt.Fprintf(w, "  %-*s %v\n", maxLabelLen+1, label, values[i])
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Checked %d nodes in %v\n\n", len(result.Verdicts), duration)
}

// printCheckSuccess prints the success case output.
func printCheckSuccess(w io.Writer, cfg *contract.Config, result *schema.StabilityResult) {
	prefix := ""
	if cfg.UseEmojis {
		prefix = "✅ "
	}
	_, _ = fmt.Fprintf(w, "%sAll %d nodes passed the stability check\n", prefix, len(result.Verdicts))

	flat := 0
	for i := range result.Verdicts {
		if result.Verdicts[i].Flat {
			flat++
		}
	}
	if flat > 0 {
		_, _ = fmt.Fprintf(w, "  %d node(s) have a flat series\n", flat)
	}
}

// printCheckFailure prints the failure case output.
func printCheckFailure(w io.Writer, cfg *contract.Config, result *schema.StabilityResult) {
	prefix := ""
	if cfg.UseEmojis {
		prefix = "❌ "
	}
	_, _ = fmt.Fprintf(w, "%sStability check failed: %d of %d nodes unstable\n\n",
		prefix, len(result.FailedNodes), len(result.Verdicts))

	for i, failed := range result.FailedNodes {
		if i >= maxFailuresShown {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(result.FailedNodes)-i)
			break
		}
		v, ok := result.Verdict(failed.Name)
		if !ok {
			continue
		}
		first, _ := v.FirstFail()
		last, _ := v.LastFail()
		_, _ = fmt.Fprintf(w, "  - %s (index %d): first fail %sh, last fail %sh (%d flagged samples)\n",
			failed.Name, failed.Index,
			contract.FormatHours(first, cfg.Precision), contract.FormatHours(last, cfg.Precision),
			len(v.FailTimes))
	}
}
