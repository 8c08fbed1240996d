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

// Package metadata presents the headers of a query result without its
// points: one row per time series, one column per resource or metric
// label. It also filters descriptor and group listings by shell-style
// patterns.
package metadata

import (
	"sort"

	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

// column groups mirror the monitoring filter namespaces.
const (
	GroupResourceType  = "resource.type"
	GroupResourceLabel = "resource.labels"
	GroupMetricLabel   = "metric.labels"
)

var topResourceLabels = []string{"project_id", "aws_account", "region", "zone"}

// ColumnKey identifies one metadata column by namespace and label key.
// The resource type column has an empty Key.
type ColumnKey struct {
	Group string
	Key   string
}

// QueryMetadata is a small row-major table of series headers. Rows are
// sorted by their cell values, columns by namespace with well-known
// resource labels first.
type QueryMetadata struct {
	Columns []ColumnKey
	Rows    [][]string
}

// New collects the headers of the given series into a sorted table.
// Missing label values render as empty strings.
func New(series []monitoring.TimeSeries) *QueryMetadata {
	if len(series) == 0 {
		return &QueryMetadata{}
	}

	resourceKeys := map[string]bool{}
	metricKeys := map[string]bool{}
	for _, ts := range series {
		for k := range ts.Resource.Labels {
			resourceKeys[k] = true
		}
		for k := range ts.Metric.Labels {
			metricKeys[k] = true
		}
	}

	columns := []ColumnKey{{Group: GroupResourceType}}
	for _, k := range orderedResourceKeys(resourceKeys) {
		columns = append(columns, ColumnKey{Group: GroupResourceLabel, Key: k})
	}
	for _, k := range sortedKeys(metricKeys) {
		columns = append(columns, ColumnKey{Group: GroupMetricLabel, Key: k})
	}

	rows := make([][]string, 0, len(series))
	for _, ts := range series {
		row := make([]string, len(columns))
		for i, col := range columns {
			switch col.Group {
			case GroupResourceType:
				row[i] = ts.Resource.Type
			case GroupResourceLabel:
				row[i] = ts.Resource.Labels[col.Key]
			default:
				row[i] = ts.Metric.Labels[col.Key]
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		for c := range rows[i] {
			if rows[i][c] != rows[j][c] {
				return rows[i][c] < rows[j][c]
			}
		}
		return false
	})

	return &QueryMetadata{Columns: columns, Rows: rows}
}

func (m *QueryMetadata) Empty() bool {
	return m == nil || len(m.Rows) == 0
}

// Header renders the column keys as flat strings, the resource type column
// as its bare namespace.
func (m *QueryMetadata) Header() []string {
	header := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		if col.Key == "" {
			header[i] = col.Group
		} else {
			header[i] = col.Group + "." + col.Key
		}
	}
	return header
}

func orderedResourceKeys(keys map[string]bool) []string {
	var ordered []string
	rest := map[string]bool{}
	for k := range keys {
		rest[k] = true
	}
	for _, top := range topResourceLabels {
		if rest[top] {
			ordered = append(ordered, top)
			delete(rest, top)
		}
	}
	return append(ordered, sortedKeys(rest)...)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
