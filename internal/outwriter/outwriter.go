// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteStability prints stability verdicts using the configured output format.
func (ow *OutWriter) WriteStability(result *schema.StabilityResult, cfg *contract.Config, duration time.Duration) error {
	return PrintStabilityResults(result, cfg, duration)
}

// WriteDiagnostics prints the detector trace of one node using the configured output format.
func (ow *OutWriter) WriteDiagnostics(diag schema.NodeDiagnostics, cfg *contract.Config) error {
	return PrintNodeDiagnostics(diag, cfg)
}

// GetMaxTableNameWidth calculates the maximum width for node names in table output
// based on terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Index + Status + Fails + First/Last fail + Fail times, with borders/padding
	baseWidth := 95

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 48 {
		return 48
	}
	return available
}

// WriteTolerances prints the detector definition and thresholds in effect.
func (ow *OutWriter) WriteTolerances(cfg *contract.Config) error {
	return PrintTolerances(cfg)
}
