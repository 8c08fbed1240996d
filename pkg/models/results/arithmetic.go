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
	"strings"
	"time"

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/server/errors"
)

type binaryOp struct {
	name   string
	symbol string
	apply  func(a, b float64) float64
}

var (
	opAdd      = binaryOp{"add", "+", func(a, b float64) float64 { return a + b }}
	opSub      = binaryOp{"sub", "-", func(a, b float64) float64 { return a - b }}
	opMul      = binaryOp{"mul", "*", func(a, b float64) float64 { return a * b }}
	opDiv      = binaryOp{"div", "/", func(a, b float64) float64 { return a / b }}
	opFloorDiv = binaryOp{"floordiv", "//", func(a, b float64) float64 { return math.Floor(a / b) }}
	opPow      = binaryOp{"pow", "**", math.Pow}
	opMod      = binaryOp{"mod", "%", math.Mod}
)

// IsCompatible reports whether other can be combined with r: the header
// part names must match and the row and column sets must overlap.
func (r *QueryResults) IsCompatible(other *QueryResults) bool {
	if other == nil {
		return false
	}
	if !sameStrings(r.table.Names, other.table.Names) {
		return false
	}
	if !timesOverlap(r.table.Index, other.table.Index) {
		return false
	}
	return keysOverlap(r.table.Columns, other.table.Columns)
}

// Add combines with another QueryResults or a numeric scalar (int,
// float64). Any other operand is a TypeMismatch error.
func (r *QueryResults) Add(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opAdd, false)
}

func (r *QueryResults) Sub(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opSub, false)
}

// RSub computes other - r, for scalar-first expressions.
func (r *QueryResults) RSub(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opSub, true)
}

func (r *QueryResults) Mul(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opMul, false)
}

func (r *QueryResults) Div(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opDiv, false)
}

func (r *QueryResults) RDiv(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opDiv, true)
}

func (r *QueryResults) FloorDiv(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opFloorDiv, false)
}

func (r *QueryResults) Pow(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opPow, false)
}

func (r *QueryResults) Mod(other interface{}) (*QueryResults, error) {
	return r.binaryOperation(other, opMod, false)
}

func (r *QueryResults) binaryOperation(other interface{}, op binaryOp, reverseOrder bool) (*QueryResults, error) {
	apply := op.apply
	if reverseOrder {
		apply = func(a, b float64) float64 { return op.apply(b, a) }
	}

	var table *dataframe.Table
	var otherName string

	switch operand := other.(type) {
	case *QueryResults:
		if !r.IsCompatible(operand) {
			return nil, errors.NewIncompatibleOperands(
				"the other QueryResults is not compatible for a binary operation")
		}
		table = alignedApply(r.table, operand.table, apply)
		otherName = operand.metricType
	case int:
		table = scalarApply(r.table, float64(operand), apply)
		otherName = fmt.Sprintf("%d", operand)
	case int64:
		table = scalarApply(r.table, float64(operand), apply)
		otherName = fmt.Sprintf("%d", operand)
	case float64:
		table = scalarApply(r.table, operand, apply)
		otherName = fmt.Sprintf("%v", operand)
	default:
		return nil, errors.NewTypeMismatch(
			"%T is not a valid operand for combining with QueryResults", other)
	}

	left, right := r.metricType, otherName
	if reverseOrder {
		left, right = right, left
	}
	name := fmt.Sprintf("(%s %s %s)", left, op.symbol, right)
	return &QueryResults{table: table, metricType: name}, nil
}

func scalarApply(t *dataframe.Table, scalar float64, apply func(a, b float64) float64) *dataframe.Table {
	out := t.Copy()
	for c := range out.Columns {
		for i, v := range out.Columns[c].Values {
			out.Columns[c].Values[i] = apply(v, scalar)
		}
	}
	return out
}

// alignedApply combines two tables on the union of their rows and columns.
// Cells present on only one side are missing in the result.
func alignedApply(a, b *dataframe.Table, apply func(x, y float64) float64) *dataframe.Table {
	index := unionTimes(a.Index, b.Index)
	rowOf := make(map[time.Time]int, len(index))
	for i, ts := range index {
		rowOf[ts] = i
	}

	type side struct {
		table *dataframe.Table
		col   int
	}
	columns := map[string][2]*side{}
	var keys []dataframe.Key
	for c := range a.Columns {
		k := a.Columns[c].Key
		columns[keyID(k)] = [2]*side{{a, c}, nil}
		keys = append(keys, k)
	}
	for c := range b.Columns {
		k := b.Columns[c].Key
		if entry, ok := columns[keyID(k)]; ok {
			entry[1] = &side{b, c}
			columns[keyID(k)] = entry
		} else {
			columns[keyID(k)] = [2]*side{nil, {b, c}}
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := &dataframe.Table{
		Names: append([]string(nil), a.Names...),
		Index: index,
	}
	for _, k := range keys {
		sides := columns[keyID(k)]
		values := make([]float64, len(index))
		for i := range values {
			values[i] = math.NaN()
		}
		if sides[0] != nil && sides[1] != nil {
			cells := make(map[time.Time]float64, len(sides[0].table.Index))
			for r, ts := range sides[0].table.Index {
				cells[ts] = sides[0].table.Columns[sides[0].col].Values[r]
			}
			for r, ts := range sides[1].table.Index {
				if x, ok := cells[ts]; ok {
					values[rowOf[ts]] = apply(x, sides[1].table.Columns[sides[1].col].Values[r])
				}
			}
		}
		out.Columns = append(out.Columns, dataframe.Column{Key: append(dataframe.Key(nil), k...), Values: values})
	}
	return out
}

func unionTimes(a, b []time.Time) []time.Time {
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, set := range [][]time.Time{a, b} {
		for _, ts := range set {
			if !seen[ts] {
				seen[ts] = true
				out = append(out, ts)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func timesOverlap(a, b []time.Time) bool {
	set := make(map[time.Time]bool, len(a))
	for _, ts := range a {
		set[ts] = true
	}
	for _, ts := range b {
		if set[ts] {
			return true
		}
	}
	return false
}

func keysOverlap(a, b []dataframe.Column) bool {
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[keyID(c.Key)] = true
	}
	for _, c := range b {
		if set[keyID(c.Key)] {
			return true
		}
	}
	return false
}

// keyID is an unambiguous map key for a column key. Key.String would
// collide when a label value itself contains ", ".
func keyID(k dataframe.Key) string {
	return strings.Join(k, "\x00")
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
