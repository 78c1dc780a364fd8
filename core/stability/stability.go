// Package stability flags result series that show numerical instability.
//
// Each node series is smoothed with a trailing moving average, differentiated
// twice, and scanned with a fixed window. A node fails at a sample when the
// second derivative swings further than the first derivative scaled by the
// ratio tolerance and also leaves the magnitude band for its kind.
package stability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/huangsam/hydrocheck/schema"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// flatEpsilon bounds the raw spread below which a series is reported as flat.
const flatEpsilon = 1e-9

// progressEvery is how many nodes pass between progress callbacks.
const progressEvery = 5

// ProgressFunc receives the number of analyzed nodes and the batch size.
type ProgressFunc func(done, total int)

// Analyzer runs the stability check over a batch of nodes.
type Analyzer struct {
	tol      schema.ToleranceConfig
	workers  int
	progress ProgressFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTolerances overrides the default thresholds.
func WithTolerances(tol schema.ToleranceConfig) Option {
	return func(a *Analyzer) { a.tol = tol }
}

// WithWorkers bounds how many nodes are analyzed at once. Values below 1 use the CPU count.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// New creates an Analyzer with default tolerances.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{tol: schema.DefaultTolerances(), workers: 1}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	return a
}

// Tolerances returns the thresholds in use.
func (a *Analyzer) Tolerances() schema.ToleranceConfig {
	return a.tol
}

// Analyze checks every node of set for the given series kind.
//
// Structural problems abort with an InputShapeError or WindowEstablishmentError.
// Nodes with non-finite samples are skipped and reported as NodeError values
// joined into the returned error; the result still holds every other verdict.
func (a *Analyzer) Analyze(ctx context.Context, kind schema.SeriesKind, set schema.NodeSet) (*schema.StabilityResult, error) {
	if err := validate(kind, set); err != nil {
		return nil, err
	}
	windowLength, hourLength, err := Windows(set.Times, a.tol.SmoothingWindowHours, a.tol.ScanWindowHours)
	if err != nil {
		return nil, err
	}

	total := len(set.Nodes)
	verdicts := make([]*schema.StabilityVerdict, total)
	nodeErrs := make([]error, total)

	var mu sync.Mutex
	done := 0
	report := func() {
		if a.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		if done%progressEvery == 0 || done == total {
			a.progress(done, total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range set.Nodes {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			node := set.Nodes[i]
			v, err := a.analyzeNode(kind, set, node, i, windowLength, hourLength)
			if err != nil {
				nodeErrs[i] = &NodeError{Node: node.Name, Index: i, Err: err}
			} else {
				verdicts[i] = v
			}
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &schema.StabilityResult{
		Kind:         kind,
		Tolerances:   a.tol,
		WindowLength: windowLength,
		HourLength:   hourLength,
		Verdicts:     make([]schema.StabilityVerdict, 0, total),
		FailedNodes:  []schema.FailedNode{},
	}
	for _, v := range verdicts {
		if v == nil {
			continue
		}
		result.Verdicts = append(result.Verdicts, *v)
		if v.Failed() {
			result.FailedNodes = append(result.FailedNodes, schema.FailedNode{Name: v.Node, Index: v.Index})
		}
	}
	return result, errors.Join(nodeErrs...)
}

func (a *Analyzer) analyzeNode(kind schema.SeriesKind, set schema.NodeSet, node schema.NodeSeries, index, windowLength, hourLength int) (*schema.StabilityVerdict, error) {
	raw := node.Values(kind)
	for _, x := range raw {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, ErrNonFinite
		}
	}

	smoothed := Smooth(raw, windowLength)
	first, second := Derivatives(smoothed, set.SaveInterval)
	tol := a.tol.SecondDerivativeFor(kind)

	failTimes := []float64{}
	for j := hourLength + 1; j < len(second); j++ {
		hi2, lo2, range2 := windowRange(second[j-hourLength : j])
		_, _, range1 := windowRange(first[j-hourLength : j])
		ratioExceeded := range2 > range1*a.tol.Ratio
		magnitudeExceeded := hi2 > tol || lo2 < -tol
		if ratioExceeded && magnitudeExceeded {
			failTimes = append(failTimes, round3(set.Times[j]))
		}
	}

	status := schema.PassedStatus
	if len(failTimes) > 0 {
		status = schema.FailedStatus
	}
	return &schema.StabilityVerdict{
		Node:             node.Name,
		Index:            index,
		Status:           status,
		FailTimes:        failTimes,
		Flat:             floats.Max(raw)-floats.Min(raw) <= flatEpsilon,
		Smoothed:         smoothed,
		FirstDerivative:  first,
		SecondDerivative: second,
	}, nil
}

func validate(kind schema.SeriesKind, set schema.NodeSet) error {
	if _, ok := schema.ValidSeriesKinds[kind]; !ok {
		return &InputShapeError{Reason: fmt.Sprintf("unknown series kind %q", kind)}
	}
	if len(set.Times) < 3 {
		return &InputShapeError{Reason: fmt.Sprintf("need at least 3 samples, got %d", len(set.Times))}
	}
	if !(set.SaveInterval > 0) || math.IsInf(set.SaveInterval, 0) {
		return &InputShapeError{Reason: fmt.Sprintf("save interval must be positive, got %g", set.SaveInterval)}
	}
	for i, t := range set.Times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return &InputShapeError{Reason: fmt.Sprintf("time at index %d is not finite", i)}
		}
		if i > 0 && t <= set.Times[i-1] {
			return &InputShapeError{Reason: fmt.Sprintf("times must be strictly increasing at index %d", i)}
		}
	}
	for _, n := range set.Nodes {
		if len(n.Stage) != len(set.Times) {
			return &InputShapeError{Node: n.Name, Reason: fmt.Sprintf("stage has %d samples, times has %d", len(n.Stage), len(set.Times))}
		}
		if len(n.Flow) != len(set.Times) {
			return &InputShapeError{Node: n.Name, Reason: fmt.Sprintf("flow has %d samples, times has %d", len(n.Flow), len(set.Times))}
		}
	}
	return nil
}
