package stability

import (
	"errors"
	"fmt"
)

// ErrNonFinite marks a node series holding NaN or infinite samples.
var ErrNonFinite = errors.New("series contains non-finite samples")

// InputShapeError reports a structural problem with the batch input.
// It aborts the whole analysis.
type InputShapeError struct {
	Node   string // empty when the problem is with the shared time axis
	Reason string
}

func (e *InputShapeError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("invalid input shape: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input shape for node %q: %s", e.Node, e.Reason)
}

// WindowEstablishmentError reports that a window duration cannot be
// expressed in samples because the series is too short.
type WindowEstablishmentError struct {
	Window   string  // "smoothing" or "scan"
	Hours    float64 // requested window duration
	Duration float64 // total duration covered by the time axis
}

func (e *WindowEstablishmentError) Error() string {
	return fmt.Sprintf("cannot establish %s window of %gh: series only spans %gh", e.Window, e.Hours, e.Duration)
}

// NodeError identifies a node whose own data could not be analyzed.
// Other nodes in the batch are still analyzed.
type NodeError struct {
	Node  string
	Index int
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (index %d): %v", e.Node, e.Index, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
