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
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

func TestPointRoundTrip(t *testing.T) {
	p := NewPoint(time.Unix(1585658599, 0), 0.528)

	data, err := jsoniter.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[1585658599,"0.528"]` {
		t.Fatalf("unexpected encoding %s", data)
	}

	var back Point
	if err := jsoniter.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Fatalf("round trip changed the point: %v != %v", back, p)
	}
	if !back.Time().Equal(time.Unix(1585658599, 0)) {
		t.Fatalf("unexpected time %v", back.Time())
	}
}

func TestTimeSeriesLabels(t *testing.T) {
	ts := TimeSeries{
		Metric:   Metric{Type: "m", Labels: map[string]string{"shared": "metric", "state": "running"}},
		Resource: Resource{Type: "r", Labels: map[string]string{"shared": "resource", "zone": "us-central1-a"}},
	}

	labels := ts.Labels()
	// Metric labels win on key collision.
	if labels["shared"] != "metric" {
		t.Fatalf("expected metric label to win, got %q", labels["shared"])
	}
	if labels["zone"] != "us-central1-a" || labels["state"] != "running" {
		t.Fatalf("unexpected merged labels %v", labels)
	}
}

func TestMarshalTimeSeriesCSV(t *testing.T) {
	series := []TimeSeries{
		{
			Metric:     Metric{Type: "node_load1"},
			Resource:   Resource{Type: "prometheus_instance", Labels: map[string]string{"instance": "node1:9100"}},
			MetricKind: MetricKindGauge,
			ValueType:  ValueTypeDouble,
			Points:     []Point{NewPoint(time.Unix(1585658599, 0), 0.5)},
		},
	}

	data, err := MarshalTimeSeriesCSV(series)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and one row, got %d lines", len(lines))
	}
	if lines[0] != "metric_type,resource_type,metric_kind,value_type,series" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "node_load1,prometheus_instance,GAUGE,DOUBLE,") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
