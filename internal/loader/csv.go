package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/hydrocheck/schema"
)

// Column suffixes of the wide CSV layout.
const (
	stageSuffix = ".stage"
	flowSuffix  = ".flow"
)

// DecodeCSV reads the wide layout: a leading time column followed by
// <node>.stage and <node>.flow columns. Nodes keep the order of their first column.
func DecodeCSV(r io.Reader) (schema.NodeSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return schema.NodeSet{}, errors.New("results file is empty")
	}
	if err != nil {
		return schema.NodeSet{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "time") {
		return schema.NodeSet{}, fmt.Errorf("first CSV column must be 'time', got %q", header[0])
	}

	type target struct {
		node int
		kind schema.SeriesKind
	}
	targets := make([]target, len(header))
	nodeIndex := map[string]int{}
	seen := map[string]bool{}
	var names []string
	for col := 1; col < len(header); col++ {
		name := strings.TrimSpace(header[col])
		var kind schema.SeriesKind
		switch lower := strings.ToLower(name); {
		case strings.HasSuffix(lower, stageSuffix):
			kind = schema.StageKind
			name = name[:len(name)-len(stageSuffix)]
		case strings.HasSuffix(lower, flowSuffix):
			kind = schema.FlowKind
			name = name[:len(name)-len(flowSuffix)]
		default:
			return schema.NodeSet{}, fmt.Errorf("column %q must end in %s or %s", header[col], stageSuffix, flowSuffix)
		}
		if name == "" {
			return schema.NodeSet{}, fmt.Errorf("column %q has no node name", header[col])
		}
		if seen[name+"/"+string(kind)] {
			return schema.NodeSet{}, fmt.Errorf("duplicate column for node %q %s", name, kind)
		}
		seen[name+"/"+string(kind)] = true
		idx, ok := nodeIndex[name]
		if !ok {
			idx = len(names)
			nodeIndex[name] = idx
			names = append(names, name)
		}
		targets[col] = target{node: idx, kind: kind}
	}
	for _, name := range names {
		for _, kind := range schema.AllSeriesKinds {
			if !seen[name+"/"+string(kind)] {
				return schema.NodeSet{}, fmt.Errorf("node %q is missing a %s column", name, kind)
			}
		}
	}

	set := schema.NodeSet{Times: []float64{}, Nodes: make([]schema.NodeSeries, len(names))}
	for i, name := range names {
		set.Nodes[i] = schema.NodeSeries{Name: name, Stage: []float64{}, Flow: []float64{}}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schema.NodeSet{}, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		t, err := parseCell(record[0])
		if err != nil {
			return schema.NodeSet{}, fmt.Errorf("line %d column time: %w", line, err)
		}
		set.Times = append(set.Times, t)
		for col := 1; col < len(record); col++ {
			v, err := parseCell(record[col])
			if err != nil {
				return schema.NodeSet{}, fmt.Errorf("line %d column %q: %w", line, header[col], err)
			}
			tg := targets[col]
			node := &set.Nodes[tg.node]
			if tg.kind == schema.StageKind {
				node.Stage = append(node.Stage, v)
			} else {
				node.Flow = append(node.Flow, v)
			}
		}
	}
	return set, nil
}

func parseCell(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
