/*
Copyright 2020 Monlab Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dataframe

import (
	"math"
	"sort"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

// Reserved header part names. Any other name selects a resource or metric
// label of the series.
const (
	LevelMetricType   = "metric_type"
	LevelMetricKind   = "metric_kind"
	LevelResourceType = "resource_type"
)

// topResourceLabels are placed ahead of other resource labels in the
// default level ordering, in this order.
var topResourceLabels = []string{"project_id", "aws_account", "region", "zone"}

// Build converts time series into a single time-indexed table, one column
// per series.
//
// label selects a flat single-part header; labels selects a composite
// header with those parts in that order. With neither, the header defaults
// to metric_type, metric_kind and resource_type followed by all resource
// label keys (top labels first) and all metric label keys alphabetically.
// Specifying both, or a non-nil empty labels, is an InvalidArgument error.
func Build(series []monitoring.TimeSeries, label string, labels []string) (*Table, error) {
	if labels != nil {
		if label != "" {
			return nil, errors.NewInvalidArgument(`cannot specify both "label" and "labels"`)
		}
		if len(labels) == 0 {
			return nil, errors.NewInvalidArgument(`"labels" must be non-empty or nil`)
		}
	}

	var names []string
	switch {
	case label != "":
		// A single label keeps the header flat: one unnamed part.
		names = nil
	case labels != nil:
		names = append([]string(nil), labels...)
	default:
		names = defaultLevels(series)
	}

	keyLevels := names
	if keyLevels == nil {
		keyLevels = []string{label}
	}

	// Row index: union of all timestamps, ascending and deduplicated.
	index := unionIndex(series)
	rowOf := make(map[time.Time]int, len(index))
	for i, ts := range index {
		rowOf[ts] = i
	}

	table := &Table{Names: names, Index: index}
	for _, s := range series {
		col := Column{Key: makeKey(s, keyLevels), Values: make([]float64, len(index))}
		for i := range col.Values {
			col.Values[i] = math.NaN()
		}
		for _, p := range s.Points {
			col.Values[rowOf[p.Time()]] = p.Value()
		}
		table.Columns = append(table.Columns, col)
	}

	table.sortColumns()
	return table, nil
}

func unionIndex(series []monitoring.TimeSeries) []time.Time {
	seen := map[time.Time]bool{}
	var index []time.Time
	for _, s := range series {
		for _, p := range s.Points {
			t := p.Time()
			if !seen[t] {
				seen[t] = true
				index = append(index, t)
			}
		}
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	return index
}

func makeKey(s monitoring.TimeSeries, levels []string) Key {
	merged := s.Labels()
	key := make(Key, len(levels))
	for i, level := range levels {
		switch level {
		case LevelMetricType:
			key[i] = s.Metric.Type
		case LevelMetricKind:
			key[i] = s.MetricKind
		case LevelResourceType:
			key[i] = s.Resource.Type
		default:
			// Missing label values stay as the empty string.
			key[i] = merged[level]
		}
	}
	return key
}

// defaultLevels computes the smart default: the reserved parts followed by
// every label key seen across the input.
func defaultLevels(series []monitoring.TimeSeries) []string {
	resourceKeys := map[string]bool{}
	metricKeys := map[string]bool{}
	for _, s := range series {
		for k := range s.Resource.Labels {
			resourceKeys[k] = true
		}
		for k := range s.Metric.Labels {
			metricKeys[k] = true
		}
	}

	levels := []string{LevelMetricType, LevelMetricKind, LevelResourceType}
	levels = append(levels, sortedResourceLabels(resourceKeys)...)
	levels = append(levels, sortedStringSet(metricKeys)...)
	return levels
}

// sortedResourceLabels orders resource label keys with the well-known
// project/account/location keys first, the rest alphabetical.
func sortedResourceLabels(keys map[string]bool) []string {
	var ordered []string
	rest := map[string]bool{}
	for k, v := range keys {
		rest[k] = v
	}
	for _, top := range topResourceLabels {
		if rest[top] {
			ordered = append(ordered, top)
			delete(rest, top)
		}
	}
	return append(ordered, sortedStringSet(rest)...)
}

func sortedStringSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
