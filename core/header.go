package core

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/schema"
)

// logStabilityHeader prints a concise, 2-line header for each analysis.
func logStabilityHeader(cfg *contract.Config, set schema.NodeSet) {
	name := filepath.Base(cfg.InputPath)
	first, last := 0.0, 0.0
	if len(set.Times) > 0 {
		first, last = set.Times[0], set.Times[len(set.Times)-1]
	}

	if cfg.UseEmojis {
		fmt.Printf("🌊 Results: %s (Kind: %s, %d nodes)\n", name, cfg.Kind, len(set.Nodes))
		fmt.Printf("⏱️  Span: %sh → %sh (%d samples every %sh)\n",
			contract.FormatHours(first, cfg.Precision), contract.FormatHours(last, cfg.Precision),
			len(set.Times), contract.FormatHours(set.SaveInterval, cfg.Precision))
		return
	}
	fmt.Printf("Results: %s (Kind: %s, %d nodes)\n", name, cfg.Kind, len(set.Nodes))
	fmt.Printf("Span: %sh -> %sh (%d samples every %sh)\n",
		contract.FormatHours(first, cfg.Precision), contract.FormatHours(last, cfg.Precision),
		len(set.Times), contract.FormatHours(set.SaveInterval, cfg.Precision))
}

// logRerunHeader announces a watch-triggered re-analysis.
func logRerunHeader(cfg *contract.Config) {
	if cfg.UseEmojis {
		fmt.Printf("\n🔄 %s changed, re-analyzing...\n", filepath.Base(cfg.InputPath))
		return
	}
	fmt.Printf("\n%s changed, re-analyzing...\n", filepath.Base(cfg.InputPath))
}
