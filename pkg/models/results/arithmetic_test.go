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
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/server/errors"
)

func TestScalarArithmetic(t *testing.T) {
	r := zoneResults("x", map[string][]float64{"us-central1-a": {2, 4, 6}})

	tests := []struct {
		name     string
		apply    func() (*QueryResults, error)
		expected []float64
		metric   string
	}{
		{"add int", func() (*QueryResults, error) { return r.Add(2) }, []float64{4, 6, 8}, "(x + 2)"},
		{"sub float", func() (*QueryResults, error) { return r.Sub(0.5) }, []float64{1.5, 3.5, 5.5}, "(x - 0.5)"},
		{"rsub reverses order", func() (*QueryResults, error) { return r.RSub(10) }, []float64{8, 6, 4}, "(10 - x)"},
		{"mul", func() (*QueryResults, error) { return r.Mul(3) }, []float64{6, 12, 18}, "(x * 3)"},
		{"div", func() (*QueryResults, error) { return r.Div(2) }, []float64{1, 2, 3}, "(x / 2)"},
		{"rdiv", func() (*QueryResults, error) { return r.RDiv(12) }, []float64{6, 3, 2}, "(12 / x)"},
		{"floordiv", func() (*QueryResults, error) { return r.FloorDiv(4) }, []float64{0, 1, 1}, "(x // 4)"},
		{"pow", func() (*QueryResults, error) { return r.Pow(2) }, []float64{4, 16, 36}, "(x ** 2)"},
		{"mod", func() (*QueryResults, error) { return r.Mod(4) }, []float64{2, 0, 2}, "(x % 4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.apply()
			if err != nil {
				t.Fatal(err)
			}
			if out.MetricType() != tt.metric {
				t.Fatalf("expected metric %q, got %q", tt.metric, out.MetricType())
			}
			got := out.Table().Columns[0].Values
			if diff := cmp.Diff(got, tt.expected); diff != "" {
				t.Fatalf("values differ (-got, +want): %s", diff)
			}
		})
	}
}

func TestResultsArithmeticAligns(t *testing.T) {
	a := zoneResults("x", map[string][]float64{
		"us-central1-a": {1, 2, 3},
		"us-central1-b": {10, 20, 30},
	})

	// b shares two timestamps and one column with a.
	table := &dataframe.Table{
		Names: []string{"zone"},
		Index: []time.Time{testStart.Add(time.Minute), testStart.Add(2 * time.Minute), testStart.Add(3 * time.Minute)},
		Columns: []dataframe.Column{
			{Key: dataframe.Key{"us-central1-a"}, Values: []float64{5, 5, 5}},
			{Key: dataframe.Key{"us-east1-c"}, Values: []float64{7, 7, 7}},
		},
	}
	b := New(table, "y")

	out, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if out.MetricType() != "(x + y)" {
		t.Fatalf("unexpected metric %q", out.MetricType())
	}

	got := out.Table()
	// Union of rows and columns; cells present on only one side are
	// missing.
	if got.NumRows() != 4 || got.NumColumns() != 3 {
		t.Fatalf("expected 4x3, got %dx%d", got.NumRows(), got.NumColumns())
	}
	nan := math.NaN()
	expected := map[string][]float64{
		"us-central1-a": {nan, 7, 8, nan},
		"us-central1-b": {nan, nan, nan, nan},
		"us-east1-c":    {nan, nan, nan, nan},
	}
	for _, col := range got.Columns {
		if diff := cmp.Diff(col.Values, expected[col.Key.String()], cmpopts.EquateNaNs()); diff != "" {
			t.Fatalf("column %v differs (-got, +want): %s", col.Key, diff)
		}
	}
}

func TestArithmeticAlignsAmbiguousKeys(t *testing.T) {
	// Both keys flatten to "a, b, c"; alignment must still treat them as
	// distinct columns.
	index := []time.Time{testStart, testStart.Add(time.Minute)}
	names := []string{"zone", "instance_id"}
	a := New(&dataframe.Table{
		Names: names,
		Index: index,
		Columns: []dataframe.Column{
			{Key: dataframe.Key{"a, b", "c"}, Values: []float64{1, 2}},
			{Key: dataframe.Key{"a", "b, c"}, Values: []float64{10, 20}},
		},
	}, "x")
	b := New(&dataframe.Table{
		Names: names,
		Index: index,
		Columns: []dataframe.Column{
			{Key: dataframe.Key{"a, b", "c"}, Values: []float64{3, 4}},
			{Key: dataframe.Key{"a", "b, c"}, Values: []float64{30, 40}},
		},
	}, "y")

	out, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}

	got := out.Table()
	if got.NumColumns() != 2 {
		t.Fatalf("expected 2 columns, got %d", got.NumColumns())
	}
	expected := []dataframe.Column{
		{Key: dataframe.Key{"a", "b, c"}, Values: []float64{40, 60}},
		{Key: dataframe.Key{"a, b", "c"}, Values: []float64{4, 6}},
	}
	if diff := cmp.Diff(got.Columns, expected); diff != "" {
		t.Fatalf("columns differ (-got, +want): %s", diff)
	}
}

func TestIsCompatible(t *testing.T) {
	a := zoneResults("x", map[string][]float64{"us-central1-a": {1, 2}})

	tests := []struct {
		name     string
		other    *QueryResults
		expected bool
	}{
		{"same shape", zoneResults("y", map[string][]float64{"us-central1-a": {3, 4}}), true},
		{"nil", nil, false},
		{
			name: "different header names",
			other: New(&dataframe.Table{
				Names:   []string{"instance_id"},
				Index:   []time.Time{testStart},
				Columns: []dataframe.Column{{Key: dataframe.Key{"us-central1-a"}, Values: []float64{1}}},
			}, "y"),
			expected: false,
		},
		{
			name: "disjoint rows",
			other: New(&dataframe.Table{
				Names:   []string{"zone"},
				Index:   []time.Time{testStart.Add(time.Hour)},
				Columns: []dataframe.Column{{Key: dataframe.Key{"us-central1-a"}, Values: []float64{1}}},
			}, "y"),
			expected: false,
		},
		{
			name:     "disjoint columns",
			other:    zoneResults("y", map[string][]float64{"us-east1-c": {1, 2}}),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.IsCompatible(tt.other); got != tt.expected {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	a := zoneResults("x", map[string][]float64{"us-central1-a": {1, 2}})
	b := zoneResults("y", map[string][]float64{"us-east1-c": {1, 2}})

	if _, err := a.Add(b); !errors.IsIncompatibleOperands(err) {
		t.Fatalf("expected an incompatible operands error, got %v", err)
	}
	if _, err := a.Add("not a number"); !errors.IsTypeMismatch(err) {
		t.Fatalf("expected a type mismatch error, got %v", err)
	}
}
