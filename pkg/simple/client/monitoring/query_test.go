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

package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

const cpuMetric = "compute.googleapis.com/instance/cpu/utilization"

func TestQueryFilter(t *testing.T) {
	q := NewQuery(cpuMetric).
		SelectResourceType("gce_instance").
		SelectResourceLabel("zone", "us-central1-a").
		SelectResourceLabel("project_id", "my-project").
		SelectMetricLabel("state", "running").
		SelectGroup("12345")

	expected := `metric.type = "compute.googleapis.com/instance/cpu/utilization"` +
		` AND group.id = "12345"` +
		` AND resource.type = "gce_instance"` +
		` AND resource.label.project_id = "my-project"` +
		` AND resource.label.zone = "us-central1-a"` +
		` AND metric.label.state = "running"`
	if got := q.Filter(); got != expected {
		t.Fatalf("expected filter\n%s\ngot\n%s", expected, got)
	}
}

func TestQueryIsImmutable(t *testing.T) {
	base := NewQuery(cpuMetric)
	derived := base.SelectResourceLabel("zone", "us-central1-a").
		Align(AlignRate, 5*time.Minute).
		Reduce(ReduceMean, "zone")

	if len(base.ResourceLabels()) != 0 {
		t.Fatal("base query gained resource labels")
	}
	if base.Aligner() != AlignNone || base.Reducer() != ReduceNone {
		t.Fatal("base query gained alignment or reduction")
	}
	if derived.Aligner() != AlignRate || derived.Reducer() != ReduceMean {
		t.Fatal("derived query lost alignment or reduction")
	}

	// Mutating an accessor's return value must not leak into the query.
	labels := derived.ResourceLabels()
	labels["zone"] = "mutated"
	if derived.ResourceLabels()["zone"] != "us-central1-a" {
		t.Fatal("accessor leaked internal state")
	}
}

func TestSelectInterval(t *testing.T) {
	end := time.Date(2016, 3, 2, 14, 0, 0, 0, time.UTC)

	q, err := NewQuery(cpuMetric).SelectInterval(end, end.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !q.StartTime().Equal(end.Add(-time.Hour)) || !q.EndTime().Equal(end) {
		t.Fatalf("unexpected interval %v - %v", q.StartTime(), q.EndTime())
	}

	// A zero start is a point-in-time query.
	if _, err := NewQuery(cpuMetric).SelectInterval(end, time.Time{}); err != nil {
		t.Fatal(err)
	}

	if _, err := NewQuery(cpuMetric).SelectInterval(end, end); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}

func TestSelectOffset(t *testing.T) {
	end := time.Date(2016, 3, 2, 14, 0, 0, 0, time.UTC)

	q, err := NewQuery(cpuMetric).SelectOffset(end, 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !q.StartTime().Equal(end.Add(-2 * time.Hour)) {
		t.Fatalf("unexpected start %v", q.StartTime())
	}

	if _, err := NewQuery(cpuMetric).SelectOffset(end, -time.Hour); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}

type fakeGroupClient struct {
	Interface
	groups []Group
}

func (f fakeGroupClient) ListGroups(ctx context.Context) ([]Group, error) {
	return f.groups, nil
}

func TestSelectGroupByDisplayName(t *testing.T) {
	client := fakeGroupClient{groups: []Group{
		{Name: "1", DisplayName: "frontend"},
		{Name: "2", DisplayName: "backend"},
		{Name: "3", DisplayName: "backend"},
	}}

	q, err := NewQuery(cpuMetric).SelectGroupByDisplayName(context.Background(), client, "frontend")
	if err != nil {
		t.Fatal(err)
	}
	if q.GroupName() != "1" {
		t.Fatalf("unexpected group %q", q.GroupName())
	}

	// Zero or several matches are both errors.
	if _, err := NewQuery(cpuMetric).SelectGroupByDisplayName(context.Background(), client, "backend"); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
	if _, err := NewQuery(cpuMetric).SelectGroupByDisplayName(context.Background(), client, "no-such-group"); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}
