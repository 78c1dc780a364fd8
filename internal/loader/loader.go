// Package loader decodes exported result series into a schema.NodeSet.
package loader

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/huangsam/hydrocheck/internal/parquet"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/klauspost/compress/gzip"
)

// Options controls how a results file is decoded.
type Options struct {
	Format       schema.InputFormat
	Compressed   bool
	SaveInterval float64  // Overrides the interval stored in or derived from the file when > 0
	Nodes        []string // Keep only these nodes, in file order
}

// Load reads and decodes the results file at path.
func Load(path string, opts Options) (schema.NodeSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return schema.NodeSet{}, fmt.Errorf("failed to open results file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var set schema.NodeSet
	switch opts.Format {
	case schema.ParquetInput:
		info, err := file.Stat()
		if err != nil {
			return schema.NodeSet{}, err
		}
		set, err = DecodeParquet(file, info.Size())
		if err != nil {
			return schema.NodeSet{}, err
		}
	case schema.CSVInput, schema.JSONInput:
		var r io.Reader = file
		if opts.Compressed {
			gz, err := gzip.NewReader(file)
			if err != nil {
				return schema.NodeSet{}, fmt.Errorf("failed to create gzip reader: %w", err)
			}
			defer func() { _ = gz.Close() }()
			r = gz
		}
		if opts.Format == schema.CSVInput {
			set, err = DecodeCSV(r)
		} else {
			set, err = DecodeJSON(r)
		}
		if err != nil {
			return schema.NodeSet{}, err
		}
	default:
		return schema.NodeSet{}, fmt.Errorf("unsupported input format: %q", opts.Format)
	}

	set.Source = path
	return Finalize(set, opts)
}

// Finalize applies the node filter and resolves the save interval.
func Finalize(set schema.NodeSet, opts Options) (schema.NodeSet, error) {
	if len(opts.Nodes) > 0 {
		filtered, err := FilterNodes(set.Nodes, opts.Nodes)
		if err != nil {
			return schema.NodeSet{}, err
		}
		set.Nodes = filtered
	}
	switch {
	case opts.SaveInterval > 0:
		set.SaveInterval = opts.SaveInterval
	case set.SaveInterval <= 0 && len(set.Times) >= 2:
		set.SaveInterval = set.Times[1] - set.Times[0]
	}
	return set, nil
}

// FilterNodes keeps the named nodes in their original order.
// Naming a node that is not present is an error.
func FilterNodes(nodes []schema.NodeSeries, names []string) ([]schema.NodeSeries, error) {
	kept := make([]schema.NodeSeries, 0, len(names))
	found := make(map[string]bool, len(names))
	for _, n := range nodes {
		if slices.Contains(names, n.Name) {
			kept = append(kept, n)
			found[n.Name] = true
		}
	}
	for _, name := range names {
		if !found[name] {
			return nil, fmt.Errorf("node %q not found in results", name)
		}
	}
	return kept, nil
}

// DecodeParquet groups long-format rows into a node set.
// Every node must report the same time axis.
func DecodeParquet(r io.ReaderAt, size int64) (schema.NodeSet, error) {
	rows, err := parquet.ReadSeriesSamples(r, size)
	if err != nil {
		return schema.NodeSet{}, err
	}

	order := []string{}
	byNode := map[string][]parquet.SeriesSample{}
	for _, row := range rows {
		if _, ok := byNode[row.Node]; !ok {
			order = append(order, row.Node)
		}
		byNode[row.Node] = append(byNode[row.Node], row)
	}

	set := schema.NodeSet{Times: []float64{}, Nodes: make([]schema.NodeSeries, 0, len(order))}
	for i, name := range order {
		samples := byNode[name]
		slices.SortStableFunc(samples, func(a, b parquet.SeriesSample) int {
			switch {
			case a.Time < b.Time:
				return -1
			case a.Time > b.Time:
				return 1
			default:
				return 0
			}
		})
		node := schema.NodeSeries{
			Name:  name,
			Stage: make([]float64, len(samples)),
			Flow:  make([]float64, len(samples)),
		}
		times := make([]float64, len(samples))
		for j, s := range samples {
			times[j] = s.Time
			node.Stage[j] = s.Stage
			node.Flow[j] = s.Flow
		}
		if i == 0 {
			set.Times = times
		} else if !slices.Equal(times, set.Times) {
			return schema.NodeSet{}, fmt.Errorf("node %q does not share the time axis of node %q", name, order[0])
		}
		set.Nodes = append(set.Nodes, node)
	}
	return set, nil
}
