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

	"github.com/yebrahim/monlab/pkg/server/errors"
)

// ExtractLevels projects a table's composite header down to the requested
// parts, in the requested order.
//
// With neither label nor labels, or when the request already matches the
// table's header part names in order, an independent copy is returned
// unchanged. A single name extracts that one part. With several names,
// parts missing from the table are synthesized as empty strings. Columns
// are re-sorted lexicographically by their new key.
func ExtractLevels(t *Table, label string, labels []string) (*Table, error) {
	if label != "" && labels != nil {
		return nil, errors.NewInvalidArgument(`exactly one of "label" and "labels" must be specified`)
	}
	if label != "" {
		labels = []string{label}
	}

	if len(labels) == 0 || sameNames(labels, t.Names) {
		return t.Copy(), nil
	}

	dup := t.Copy()
	if len(labels) == 1 {
		idx := t.LevelIndex(labels[0])
		if idx < 0 {
			return nil, errors.NewInvalidArgument("level %q not found in header %v", labels[0], t.Names)
		}
		dup.Names = []string{labels[0]}
		for i := range dup.Columns {
			dup.Columns[i].Key = Key{t.Columns[i].Key[idx]}
		}
	} else {
		// Positions of the requested parts; -1 synthesizes an empty part.
		positions := make([]int, len(labels))
		for i, name := range labels {
			positions[i] = t.LevelIndex(name)
		}
		dup.Names = append([]string(nil), labels...)
		for i := range dup.Columns {
			key := make(Key, len(labels))
			for j, pos := range positions {
				if pos >= 0 {
					key[j] = t.Columns[i].Key[pos]
				}
			}
			dup.Columns[i].Key = key
		}
	}

	dup.sortColumns()
	return dup, nil
}

// ExtractSingleLevel projects like ExtractLevels, then flattens the header
// to one string per column. A still-composite header is joined with ", ";
// repeated flat names are deduplicated with "#2", "#3", ... suffixes.
func ExtractSingleLevel(t *Table, label string, labels []string) (*Table, error) {
	single, err := ExtractLevels(t, label, labels)
	if err != nil {
		return nil, err
	}

	if single.Arity() > 1 {
		for i := range single.Columns {
			single.Columns[i].Key = Key{single.Columns[i].Key.String()}
		}
		single.Names = nil
	}

	dedupeColumnNames(single)
	return single, nil
}

// dedupeColumnNames suffixes consecutive runs of equal flat names. Only
// adjacent duplicates form a run: after the lexicographic column sort equal
// names are adjacent, and a run interrupted by a different name starts
// over. The first occurrence keeps its bare name; the k-th in a run gets
// "#k".
func dedupeColumnNames(t *Table) {
	if t.Arity() != 1 {
		return
	}
	count := 1
	var prev string
	for i := range t.Columns {
		name := t.Columns[i].Key[0]
		if i > 0 && name == prev {
			count++
			t.Columns[i].Key[0] = fmt.Sprintf("%s#%d", name, count)
		} else {
			count = 1
		}
		prev = name
	}
}

func sameNames(a, b []string) bool {
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
