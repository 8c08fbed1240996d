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
	"fmt"
	"math"
	"sort"
	"time"
)

// Partition is one calendar-aligned sub-window of a split table. Start is
// the period boundary the window begins on; the table of every partition
// except the most recent is time-shifted onto the most recent partition's
// axis.
type Partition struct {
	Name  string
	Start time.Time
	Table *Table
}

// Split partitions a table into fixed-frequency windows aligned to
// calendar boundaries and returns them most recent first.
//
// freq is "<count><unit>" with unit one of H, D, W, M, Q, A. A trailing
// window with fewer than minPoints rows is dropped. Older partitions are
// shifted so their rows overlay the most recent partition's time axis;
// with useAverage and two or more of them, they are merged into a single
// row-wise average.
func Split(t *Table, freq string, useAverage bool, minPoints int) ([]Partition, error) {
	if t.Empty() {
		return nil, nil
	}

	frequency, err := ParseFrequency(freq)
	if err != nil {
		return nil, err
	}

	// Zero out anything below one hour, and the hour itself for units
	// coarser than hourly, then back up onto a period boundary.
	first := t.Index[0]
	start := time.Date(first.Year(), first.Month(), first.Day(), first.Hour(), 0, 0, 0, first.Location())
	if frequency.Unit != UnitHour {
		start = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	}
	start = frequency.AlignStart(start)

	last := t.Index[len(t.Index)-1]
	var windows []Partition
	for !start.After(last) {
		next := frequency.Next(start)
		windows = append(windows, Partition{Start: start, Table: t.sliceRows(start, next)})
		start = next
	}

	// The trailing window may hold just the tail of a period, eg. a
	// single point past the boundary when querying mid-week.
	if windows[len(windows)-1].Table.NumRows() < minPoints {
		windows = windows[:len(windows)-1]
	}
	if len(windows) == 0 {
		return nil, nil
	}

	latest := windows[len(windows)-1]

	// Shift every older window so its first row lines up with the first
	// row of the most recent window.
	if latest.Table.NumRows() > 0 {
		reference := latest.Table.Index[0]
		for i, w := range windows[:len(windows)-1] {
			if w.Table.NumRows() == 0 {
				continue
			}
			windows[i].Table = w.Table.shiftIndex(reference.Sub(w.Table.Index[0]))
		}
	}

	latest.Name = latestName(frequency)
	result := []Partition{latest}

	// Older windows, most recent first.
	older := make([]Partition, 0, len(windows)-1)
	for i := len(windows) - 2; i >= 0; i-- {
		older = append(older, windows[i])
	}

	if useAverage && len(older) > 1 {
		tables := make([]*Table, len(older))
		for i, w := range older {
			tables[i] = w.Table
		}
		result = append(result, Partition{
			Name:  fmt.Sprintf("Avg of previous %d intervals", len(older)),
			Start: latest.Start,
			Table: averageTables(tables),
		})
		return result, nil
	}

	for i, w := range older {
		count := (i + 1) * frequency.Count
		unit := frequency.UnitName()
		if count != 1 {
			unit += "s"
		}
		w.Name = fmt.Sprintf("%d %s ago", count, unit)
		result = append(result, w)
	}
	return result, nil
}

func latestName(f Frequency) string {
	if f.Count == 1 {
		return "Latest " + f.UnitName()
	}
	return fmt.Sprintf("Latest %d %ss", f.Count, f.UnitName())
}

// averageTables merges tables sharing one column schema into a single
// table whose cells are the mean over all rows with the same (shifted)
// timestamp. Missing cells are skipped, not counted as zero.
func averageTables(tables []*Table) *Table {
	seen := map[time.Time]bool{}
	var index []time.Time
	for _, t := range tables {
		for _, ts := range t.Index {
			if !seen[ts] {
				seen[ts] = true
				index = append(index, ts)
			}
		}
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	rowOf := make(map[time.Time]int, len(index))
	for i, ts := range index {
		rowOf[ts] = i
	}

	out := &Table{
		Names: append([]string(nil), tables[0].Names...),
		Index: index,
	}
	for c, col := range tables[0].Columns {
		sums := make([]float64, len(index))
		counts := make([]int, len(index))
		for _, t := range tables {
			for r, ts := range t.Index {
				v := t.Columns[c].Values[r]
				if math.IsNaN(v) {
					continue
				}
				sums[rowOf[ts]] += v
				counts[rowOf[ts]]++
			}
		}
		values := make([]float64, len(index))
		for i := range values {
			if counts[i] == 0 {
				values[i] = math.NaN()
			} else {
				values[i] = sums[i] / float64(counts[i])
			}
		}
		out.Columns = append(out.Columns, Column{Key: col.Key.copy(), Values: values})
	}
	return out
}
