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

// Package results wraps a dataframe table with the operations exposed to
// notebook users: arithmetic between result sets, aggregation over header
// levels, ranking, and calendar interval splitting.
package results

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

// QueryResults contains the results of executing a query: a time-indexed
// table plus the metric type (or derived expression) it represents.
// QueryResults are values; every operation returns a new instance.
type QueryResults struct {
	table      *dataframe.Table
	metricType string
}

func New(table *dataframe.Table, metricType string) *QueryResults {
	return &QueryResults{table: table.Copy(), metricType: metricType}
}

// FromSeries builds results from raw series using the default header
// levels. With useShortName, only the last path segment of the metric
// type names the result, eg. "utilization".
func FromSeries(series []monitoring.TimeSeries, metricType string, useShortName bool) (*QueryResults, error) {
	table, err := dataframe.Build(series, "", nil)
	if err != nil {
		return nil, err
	}
	name := metricType
	if useShortName {
		parts := strings.Split(metricType, "/")
		name = parts[len(parts)-1]
	}
	return &QueryResults{table: table, metricType: name}, nil
}

func (r *QueryResults) MetricType() string {
	return r.metricType
}

// Table returns an independent copy of the underlying table.
func (r *QueryResults) Table() *dataframe.Table {
	return r.table.Copy()
}

func (r *QueryResults) Empty() bool {
	return r.table.Empty()
}

// Frequency is the spacing of data points in seconds, NaN with fewer than
// two rows.
func (r *QueryResults) Frequency() float64 {
	if r.table.NumRows() < 2 {
		return math.NaN()
	}
	return r.table.Index[1].Sub(r.table.Index[0]).Seconds()
}

func (r *QueryResults) Timestamps() []time.Time {
	return append([]time.Time(nil), r.table.Index...)
}

// LabelKeys returns the header part names of the underlying table.
func (r *QueryResults) LabelKeys() []string {
	return append([]string(nil), r.table.Names...)
}

func (r *QueryResults) String() string {
	rep := fmt.Sprintf("<QueryResults for metric=%q:", r.metricType)
	if r.Empty() {
		return rep + " empty>"
	}
	return fmt.Sprintf("%s\n%d resources\n%d timestamps with 1 point every %.0f seconds>",
		rep, r.table.NumColumns(), r.table.NumRows(), r.Frequency())
}

// unaryOperation applies fn to every cell and derives the name
// "op(metric)".
func (r *QueryResults) unaryOperation(name string, fn func(float64) float64) *QueryResults {
	table := r.table.Copy()
	for c := range table.Columns {
		for i, v := range table.Columns[c].Values {
			table.Columns[c].Values[i] = fn(v)
		}
	}
	return &QueryResults{table: table, metricType: fmt.Sprintf("%s(%s)", name, r.metricType)}
}

func (r *QueryResults) Abs() *QueryResults {
	return r.unaryOperation("abs", math.Abs)
}

func (r *QueryResults) Floor() *QueryResults {
	return r.unaryOperation("floor", math.Floor)
}

func (r *QueryResults) Ceil() *QueryResults {
	return r.unaryOperation("ceil", math.Ceil)
}

// Round rounds half to even, matching the numerical convention of the
// notebooks this feeds.
func (r *QueryResults) Round() *QueryResults {
	return r.unaryOperation("round", math.RoundToEven)
}

func (r *QueryResults) Log10() *QueryResults {
	return r.unaryOperation("log10", math.Log10)
}

func (r *QueryResults) Log2() *QueryResults {
	return r.unaryOperation("log2", math.Log2)
}

func (r *QueryResults) Sqrt() *QueryResults {
	return r.unaryOperation("sqrt", math.Sqrt)
}

// Delta returns the change of the metric between consecutive timestamps.
// The first row is NaN.
func (r *QueryResults) Delta() *QueryResults {
	table := r.table.Copy()
	for c := range table.Columns {
		values := table.Columns[c].Values
		for i := len(values) - 1; i > 0; i-- {
			values[i] -= values[i-1]
		}
		if len(values) > 0 {
			values[0] = math.NaN()
		}
	}
	return &QueryResults{table: table, metricType: fmt.Sprintf("delta(%s)", r.metricType)}
}

// RateOfChange is the delta divided by the point frequency in seconds.
func (r *QueryResults) RateOfChange() *QueryResults {
	freq := r.Frequency()
	delta := r.Delta()
	for c := range delta.table.Columns {
		for i := range delta.table.Columns[c].Values {
			delta.table.Columns[c].Values[i] /= freq
		}
	}
	delta.metricType = fmt.Sprintf("rate_of_change(%s)", r.metricType)
	return delta
}

// Integrate multiplies values by the point frequency in seconds, turning
// rates back into totals per interval.
func (r *QueryResults) Integrate() *QueryResults {
	freq := r.Frequency()
	out := r.unaryOperation("integrate", func(v float64) float64 { return v * freq })
	out.metricType = fmt.Sprintf("integrate(%s)", r.metricType)
	return out
}

// Timesplit splits the result into calendar-aligned intervals, most recent
// first; all older results are time-shifted to line up with it. See
// dataframe.Split for the freq format and dropping semantics.
func (r *QueryResults) Timesplit(freq string, useAverage bool, minPoints int) ([]*QueryResults, error) {
	partitions, err := dataframe.Split(r.table, freq, useAverage, minPoints)
	if err != nil {
		return nil, err
	}
	out := make([]*QueryResults, 0, len(partitions))
	for _, p := range partitions {
		out = append(out, &QueryResults{table: p.Table, metricType: p.Name})
	}
	return out, nil
}
