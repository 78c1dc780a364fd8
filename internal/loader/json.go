package loader

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/huangsam/hydrocheck/schema"
)

// DecodeJSON reads a node set document:
// {"times": [...], "save_interval": 0.1, "nodes": [{"name", "stage", "flow"}]}.
func DecodeJSON(r io.Reader) (schema.NodeSet, error) {
	var set schema.NodeSet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&set); err != nil {
		return schema.NodeSet{}, fmt.Errorf("failed to decode JSON results: %w", err)
	}
	if set.Times == nil {
		set.Times = []float64{}
	}
	if set.Nodes == nil {
		set.Nodes = []schema.NodeSeries{}
	}
	return set, nil
}
