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

package results

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/server/errors"
)

// AggKind enumerates the supported aggregation functions. The fixed set
// replaces lookup of functions by name: callers pick a kind, not a string.
type AggKind int

const (
	AggMean AggKind = iota
	AggMin
	AggMax
	AggSum
	AggStd
	AggVar
	AggPercentile
)

var aggNames = map[AggKind]string{
	AggMean:       "mean",
	AggMin:        "min",
	AggMax:        "max",
	AggSum:        "sum",
	AggStd:        "std",
	AggVar:        "var",
	AggPercentile: "percentile",
}

// Aggregation pairs a kind with its parameter; only AggPercentile uses
// Quantile.
type Aggregation struct {
	Kind     AggKind
	Quantile float64
}

func Mean() Aggregation       { return Aggregation{Kind: AggMean} }
func Min() Aggregation        { return Aggregation{Kind: AggMin} }
func Max() Aggregation        { return Aggregation{Kind: AggMax} }
func Sum() Aggregation        { return Aggregation{Kind: AggSum} }
func Std() Aggregation        { return Aggregation{Kind: AggStd} }
func Var() Aggregation        { return Aggregation{Kind: AggVar} }
func Percentile(q float64) Aggregation {
	return Aggregation{Kind: AggPercentile, Quantile: q}
}

// Name is the function name used in derived metric types, eg.
// "percentile_95".
func (a Aggregation) Name() string {
	if a.Kind == AggPercentile {
		return fmt.Sprintf("percentile_%v", a.Quantile)
	}
	return aggNames[a.Kind]
}

func (a Aggregation) validate() error {
	if _, ok := aggNames[a.Kind]; !ok {
		return errors.NewInvalidArgument("unknown aggregation kind %d", int(a.Kind))
	}
	if a.Kind == AggPercentile && (a.Quantile < 0 || a.Quantile > 100) {
		return errors.NewInvalidArgument(`"quantile" must be a number between 0 and 100`)
	}
	return nil
}

// apply reduces a slice of cells to one value. The moment functions
// propagate NaN like their numpy counterparts; percentile skips missing
// cells.
func (a Aggregation) apply(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	switch a.Kind {
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			min = math.Min(min, v)
		}
		return min
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			max = math.Max(max, v)
		}
		return max
	case AggSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case AggStd:
		return math.Sqrt(variance(values))
	case AggVar:
		return variance(values)
	case AggPercentile:
		return nanPercentile(values, a.Quantile)
	default: // AggMean
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}

// variance is the population variance (ddof=0).
func variance(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return sq / float64(len(values))
}

// nanPercentile computes the q-th percentile over non-NaN values with
// linear interpolation between closest ranks.
func nanPercentile(values []float64, q float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	rank := q / 100 * float64(len(clean)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return clean[lo]
	}
	frac := rank - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// Aggregate reduces columns that share a value of the given header level,
// producing one column per distinct value. An empty level aggregates every
// column into a single "global" column.
func (r *QueryResults) Aggregate(by string, agg Aggregation) (*QueryResults, error) {
	if err := agg.validate(); err != nil {
		return nil, err
	}

	if by == "" {
		values := make([]float64, r.table.NumRows())
		row := make([]float64, 0, r.table.NumColumns())
		for i := range r.table.Index {
			row = row[:0]
			for _, col := range r.table.Columns {
				row = append(row, col.Values[i])
			}
			values[i] = agg.apply(row)
		}
		table := &dataframe.Table{
			Index:   append([]time.Time(nil), r.table.Index...),
			Columns: []dataframe.Column{{Key: dataframe.Key{"global"}, Values: values}},
		}
		name := fmt.Sprintf("%s.%s()", r.metricType, agg.Name())
		return &QueryResults{table: table, metricType: name}, nil
	}

	idx := r.table.LevelIndex(by)
	if idx < 0 {
		return nil, errors.NewInvalidArgument("level %q not found in header %v", by, r.table.Names)
	}

	groups := map[string][]int{}
	var order []string
	for c, col := range r.table.Columns {
		v := col.Key[idx]
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], c)
	}
	sort.Strings(order)

	table := &dataframe.Table{
		Names: []string{by},
		Index: append([]time.Time(nil), r.table.Index...),
	}
	for _, v := range order {
		values := make([]float64, r.table.NumRows())
		cells := make([]float64, 0, len(groups[v]))
		for i := range r.table.Index {
			cells = cells[:0]
			for _, c := range groups[v] {
				cells = append(cells, r.table.Columns[c].Values[i])
			}
			values[i] = agg.apply(cells)
		}
		table.Columns = append(table.Columns, dataframe.Column{Key: dataframe.Key{v}, Values: values})
	}

	name := fmt.Sprintf("%s.%s(%s)", r.metricType, agg.Name(), by)
	return &QueryResults{table: table, metricType: name}, nil
}

// Mean aggregates by a header level with the mean function. An empty level
// reduces all columns to one.
func (r *QueryResults) Mean(by string) (*QueryResults, error) {
	return r.Aggregate(by, Mean())
}

func (r *QueryResults) Minimum(by string) (*QueryResults, error) {
	return r.Aggregate(by, Min())
}

func (r *QueryResults) Maximum(by string) (*QueryResults, error) {
	return r.Aggregate(by, Max())
}

func (r *QueryResults) Total(by string) (*QueryResults, error) {
	return r.Aggregate(by, Sum())
}

func (r *QueryResults) StdDev(by string) (*QueryResults, error) {
	return r.Aggregate(by, Std())
}

func (r *QueryResults) Variance(by string) (*QueryResults, error) {
	return r.Aggregate(by, Var())
}

func (r *QueryResults) PercentileOf(by string, quantile float64) (*QueryResults, error) {
	return r.Aggregate(by, Percentile(quantile))
}

// Top keeps the count (or percentage) of columns ranking highest by the
// aggregation. A non-zero percentage wins over count and must lie in
// (0, 100]. The kept columns are ordered by ascending aggregate value.
func (r *QueryResults) Top(count int, percentage float64, agg Aggregation) (*QueryResults, error) {
	return r.rank(count, percentage, agg, true)
}

// Bottom keeps the columns ranking lowest, ordered by descending
// aggregate value.
func (r *QueryResults) Bottom(count int, percentage float64, agg Aggregation) (*QueryResults, error) {
	return r.rank(count, percentage, agg, false)
}

func (r *QueryResults) rank(count int, percentage float64, agg Aggregation, isTop bool) (*QueryResults, error) {
	if err := agg.validate(); err != nil {
		return nil, err
	}
	number := fmt.Sprintf("%d", count)
	if percentage != 0 {
		if percentage <= 0 || percentage > 100 {
			return nil, errors.NewInvalidArgument(`"percentage" must be a number between 0 and 100`)
		}
		count = int(math.Ceil(percentage / 100 * float64(r.table.NumColumns())))
		number = fmt.Sprintf("%v%%", percentage)
	} else if count < 0 {
		return nil, errors.NewInvalidArgument(`"count" must not be negative, got %d`, count)
	} else if count == 0 {
		// A zero count keeps every column.
		count = r.table.NumColumns()
	}

	type ranked struct {
		col   int
		value float64
	}
	scores := make([]ranked, r.table.NumColumns())
	for c, col := range r.table.Columns {
		scores[c] = ranked{col: c, value: agg.apply(col.Values)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if isTop {
			return scores[i].value < scores[j].value
		}
		return scores[i].value > scores[j].value
	})

	if count > len(scores) {
		count = len(scores)
	}
	keep := scores[len(scores)-count:]

	table := &dataframe.Table{
		Names: append([]string(nil), r.table.Names...),
		Index: append([]time.Time(nil), r.table.Index...),
	}
	for _, s := range keep {
		col := r.table.Columns[s.col]
		table.Columns = append(table.Columns, dataframe.Column{
			Key:    append(dataframe.Key(nil), col.Key...),
			Values: append([]float64(nil), col.Values...),
		})
	}

	caller := "top"
	if !isTop {
		caller = "bottom"
	}
	name := fmt.Sprintf("%s_%s_%s(%s)", caller, number, agg.Name(), r.metricType)
	return &QueryResults{table: table, metricType: name}, nil
}
