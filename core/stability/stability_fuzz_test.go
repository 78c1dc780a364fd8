package stability

import (
	"context"
	"math"
	"testing"

	"github.com/huangsam/hydrocheck/schema"
)

// FuzzAnalyze feeds a single node built from fuzzed samples through the analyzer.
func FuzzAnalyze(f *testing.F) {
	f.Add(0.0, 10.0, 10, 0.1)
	f.Add(3.0, 0.25, 4, 0.25)
	f.Add(-1.5, -8.0, 0, 0.05)
	f.Fuzz(func(t *testing.T, base, height float64, at int, dx float64) {
		if math.IsNaN(base) || math.IsInf(base, 0) || math.IsNaN(height) || math.IsInf(height, 0) {
			return
		}
		if !(dx >= 0.01 && dx <= 1) {
			return
		}
		n := int(math.Ceil(1.5/dx)) + 3
		times := uniformTimes(n, dx)
		values := constant(n, base)
		values[((at%n)+n)%n] += height

		set := schema.NodeSet{Times: times, SaveInterval: dx, Nodes: []schema.NodeSeries{{Name: "f", Stage: values, Flow: values}}}
		result, err := New().Analyze(context.Background(), schema.StageKind, set)
		if err != nil {
			return
		}
		v := result.Verdicts[0]
		if len(v.SecondDerivative) != n-2 || len(v.FirstDerivative) != n-1 {
			t.Fatalf("unexpected derivative lengths %d/%d for n=%d", len(v.FirstDerivative), len(v.SecondDerivative), n)
		}
		if v.Failed() != (len(result.FailedNodes) == 1) {
			t.Fatalf("failed node list out of sync with verdict status")
		}
		for i := 1; i < len(v.FailTimes); i++ {
			if v.FailTimes[i] < v.FailTimes[i-1] {
				t.Fatalf("fail times out of order: %v", v.FailTimes)
			}
		}
	})
}
