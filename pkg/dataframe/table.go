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

// Package dataframe reshapes labeled time series into time-indexed tables
// with composite column headers, projects headers between representations,
// and partitions tables into calendar-aligned intervals.
package dataframe

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Key is one column's composite header: one value per header part, in the
// order of the table's Names.
type Key []string

func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Less compares keys as tuples, left to right.
func (k Key) Less(other Key) bool {
	for i := range k {
		if i >= len(other) {
			return false
		}
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}

// String joins the parts with ", ", the flat-header rendering of a
// composite key.
func (k Key) String() string {
	return strings.Join(k, ", ")
}

func (k Key) copy() Key {
	return append(Key(nil), k...)
}

// Column holds one time series worth of cells. Values is parallel to the
// table's Index; missing cells are NaN.
type Column struct {
	Key    Key
	Values []float64
}

func (c Column) copy() Column {
	return Column{Key: c.Key.copy(), Values: append([]float64(nil), c.Values...)}
}

// Table is a 2-D structure with a strictly increasing timestamp row index
// and a composite column header. Names holds the header part names, one per
// key element; a nil Names with single-element keys is a flat header (no
// named parts). Every operation in this package treats tables as values:
// inputs are never mutated and outputs share no memory with them.
type Table struct {
	Names   []string
	Index   []time.Time
	Columns []Column
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Index) == 0 || len(t.Columns) == 0
}

func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Arity is the number of header parts per column key.
func (t *Table) Arity() int {
	if len(t.Names) > 0 {
		return len(t.Names)
	}
	if len(t.Columns) > 0 {
		return len(t.Columns[0].Key)
	}
	return 0
}

// LevelIndex returns the position of the named header part, or -1.
func (t *Table) LevelIndex(name string) int {
	for i, n := range t.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// FlatNames renders every column key as a flat string.
func (t *Table) FlatNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Key.String()
	}
	return names
}

func (t *Table) Copy() *Table {
	if t == nil {
		return nil
	}
	dup := &Table{
		Names: append([]string(nil), t.Names...),
		Index: append([]time.Time(nil), t.Index...),
	}
	dup.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		dup.Columns[i] = c.copy()
	}
	return dup
}

// sortColumns orders columns lexicographically by key. The sort is stable
// so equal keys keep their relative order.
func (t *Table) sortColumns() {
	sort.SliceStable(t.Columns, func(i, j int) bool {
		return t.Columns[i].Key.Less(t.Columns[j].Key)
	})
}

// sliceRows returns a new table holding the rows with start <= ts < end.
func (t *Table) sliceRows(start, end time.Time) *Table {
	lo := sort.Search(len(t.Index), func(i int) bool { return !t.Index[i].Before(start) })
	hi := sort.Search(len(t.Index), func(i int) bool { return !t.Index[i].Before(end) })

	dup := &Table{Names: append([]string(nil), t.Names...)}
	dup.Index = append([]time.Time(nil), t.Index[lo:hi]...)
	dup.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		dup.Columns[i] = Column{
			Key:    c.Key.copy(),
			Values: append([]float64(nil), c.Values[lo:hi]...),
		}
	}
	return dup
}

// shiftIndex returns a copy with every timestamp moved by d.
func (t *Table) shiftIndex(d time.Duration) *Table {
	dup := t.Copy()
	for i := range dup.Index {
		dup.Index[i] = dup.Index[i].Add(d)
	}
	return dup
}

// IsNaN reports whether a cell holds the missing-value marker.
func IsNaN(v float64) bool {
	return math.IsNaN(v)
}
