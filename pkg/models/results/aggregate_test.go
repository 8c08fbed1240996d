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

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/server/errors"
)

// regionTable has two columns per region so region aggregation has
// something to reduce.
func regionResults() *QueryResults {
	table := &dataframe.Table{
		Names: []string{"region", "instance_id"},
		Index: []time.Time{testStart, testStart.Add(time.Minute)},
		Columns: []dataframe.Column{
			{Key: dataframe.Key{"us-central1", "1234"}, Values: []float64{1, 2}},
			{Key: dataframe.Key{"us-central1", "5678"}, Values: []float64{3, 6}},
			{Key: dataframe.Key{"us-east1", "9999"}, Values: []float64{10, 20}},
		},
	}
	return New(table, "x")
}

func TestAggregateByLevel(t *testing.T) {
	out, err := regionResults().Mean("region")
	if err != nil {
		t.Fatal(err)
	}

	if out.MetricType() != "x.mean(region)" {
		t.Fatalf("unexpected metric %q", out.MetricType())
	}
	if got := out.LabelKeys(); !cmp.Equal(got, []string{"region"}) {
		t.Fatalf("unexpected label keys %v", got)
	}

	table := out.Table()
	if got := table.FlatNames(); !cmp.Equal(got, []string{"us-central1", "us-east1"}) {
		t.Fatalf("unexpected columns %v", got)
	}
	if diff := cmp.Diff(table.Columns[0].Values, []float64{2, 4}); diff != "" {
		t.Fatalf("values differ (-got, +want): %s", diff)
	}
	if diff := cmp.Diff(table.Columns[1].Values, []float64{10, 20}); diff != "" {
		t.Fatalf("values differ (-got, +want): %s", diff)
	}
}

func TestAggregateGlobal(t *testing.T) {
	out, err := regionResults().Total("")
	if err != nil {
		t.Fatal(err)
	}

	if out.MetricType() != "x.sum()" {
		t.Fatalf("unexpected metric %q", out.MetricType())
	}
	table := out.Table()
	if got := table.FlatNames(); !cmp.Equal(got, []string{"global"}) {
		t.Fatalf("unexpected columns %v", got)
	}
	if diff := cmp.Diff(table.Columns[0].Values, []float64{14, 28}); diff != "" {
		t.Fatalf("values differ (-got, +want): %s", diff)
	}
}

func TestAggregateMoments(t *testing.T) {
	// One row, values 1, 3, 10: population variance is ddof=0.
	r := regionResults()

	variance, err := r.Variance("")
	if err != nil {
		t.Fatal(err)
	}
	mean := (1.0 + 3 + 10) / 3
	expected := ((1-mean)*(1-mean) + (3-mean)*(3-mean) + (10-mean)*(10-mean)) / 3
	if got := variance.Table().Columns[0].Values[0]; math.Abs(got-expected) > 1e-9 {
		t.Fatalf("expected %v, got %v", expected, got)
	}

	std, err := r.StdDev("")
	if err != nil {
		t.Fatal(err)
	}
	if got := std.Table().Columns[0].Values[0]; math.Abs(got-math.Sqrt(expected)) > 1e-9 {
		t.Fatalf("expected %v, got %v", math.Sqrt(expected), got)
	}
}

func TestAggregateNaNPropagation(t *testing.T) {
	r := zoneResults("x", map[string][]float64{
		"us-central1-a": {1, math.NaN()},
		"us-central1-b": {3, 5},
	})

	// The moment functions propagate NaN; percentile skips it.
	mean, err := r.Mean("")
	if err != nil {
		t.Fatal(err)
	}
	got := mean.Table().Columns[0].Values
	if got[0] != 2 || !math.IsNaN(got[1]) {
		t.Fatalf("unexpected mean values %v", got)
	}

	median, err := r.PercentileOf("", 50)
	if err != nil {
		t.Fatal(err)
	}
	got = median.Table().Columns[0].Values
	if got[0] != 2 || got[1] != 5 {
		t.Fatalf("unexpected percentile values %v", got)
	}
}

func TestPercentileInterpolates(t *testing.T) {
	if got := nanPercentile([]float64{1, 2, 3, 4}, 25); got != 1.75 {
		t.Fatalf("expected 1.75, got %v", got)
	}
	if got := nanPercentile([]float64{1, 2, 3, 4}, 100); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
	if got := nanPercentile([]float64{math.NaN()}, 50); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestAggregateValidation(t *testing.T) {
	r := regionResults()

	if _, err := r.PercentileOf("", 101); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	if _, err := r.Mean("no_such_level"); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	if _, err := r.Aggregate("", Aggregation{Kind: AggKind(42)}); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}

func TestTopAndBottom(t *testing.T) {
	r := regionResults()

	top, err := r.Top(2, 0, Mean())
	if err != nil {
		t.Fatal(err)
	}
	if top.MetricType() != "top_2_mean(x)" {
		t.Fatalf("unexpected metric %q", top.MetricType())
	}
	// Kept columns are ordered by ascending aggregate value.
	expected := []string{"us-central1, 5678", "us-east1, 9999"}
	if got := top.Table().FlatNames(); !cmp.Equal(got, expected) {
		t.Fatalf("unexpected columns %v", got)
	}

	bottom, err := r.Bottom(1, 0, Max())
	if err != nil {
		t.Fatal(err)
	}
	if bottom.MetricType() != "bottom_1_max(x)" {
		t.Fatalf("unexpected metric %q", bottom.MetricType())
	}
	if got := bottom.Table().FlatNames(); !cmp.Equal(got, []string{"us-central1, 1234"}) {
		t.Fatalf("unexpected columns %v", got)
	}
}

func TestRankCountValidation(t *testing.T) {
	r := regionResults()

	if _, err := r.Top(-1, 0, Mean()); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	if _, err := r.Bottom(-3, 0, Mean()); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}

	// A zero count keeps every column.
	top, err := r.Top(0, 0, Mean())
	if err != nil {
		t.Fatal(err)
	}
	if got := top.Table().NumColumns(); got != r.Table().NumColumns() {
		t.Fatalf("expected %d columns, got %d", r.Table().NumColumns(), got)
	}
}

func TestTopByPercentage(t *testing.T) {
	r := regionResults()

	top, err := r.Top(0, 50, Mean())
	if err != nil {
		t.Fatal(err)
	}
	if top.MetricType() != "top_50%_mean(x)" {
		t.Fatalf("unexpected metric %q", top.MetricType())
	}
	// ceil(50% of 3) = 2 columns.
	if got := top.Table().NumColumns(); got != 2 {
		t.Fatalf("expected 2 columns, got %d", got)
	}

	if _, err := r.Top(0, 150, Mean()); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	if _, err := r.Bottom(0, -5, Mean()); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}
