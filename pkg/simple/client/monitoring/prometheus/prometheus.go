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

package prometheus

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/api"
	apiv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"k8s.io/klog/v2"

	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

const (
	// ResourceTypeInstance is the resource type reported for every series,
	// since Prometheus has no monitored-resource hierarchy of its own.
	ResourceTypeInstance = "prometheus_instance"

	defaultStep = time.Minute
)

// resource labels recognized on Prometheus series; everything else is
// treated as a metric label.
var resourceLabelNames = map[model.LabelName]bool{
	"instance": true,
	"job":      true,
}

// prometheus implements the monitoring interface backed by Prometheus
type prometheus struct {
	client apiv1.API
	step   time.Duration
}

func NewPrometheus(options *monitoring.Options) (monitoring.Interface, error) {
	cfg := api.Config{
		Address: options.Endpoint,
	}

	step := defaultStep
	if options.Step != "" {
		if d, err := time.ParseDuration(options.Step); err == nil {
			step = d
		} else {
			klog.Warningf("invalid step %q, falling back to %v: %v", options.Step, defaultStep, err)
		}
	}

	client, err := api.NewClient(cfg)
	return prometheus{client: apiv1.NewAPI(client), step: step}, err
}

func (p prometheus) ListTimeSeries(ctx context.Context, query monitoring.Query) ([]monitoring.TimeSeries, error) {
	step := query.AlignmentPeriod()
	if step <= 0 {
		step = p.step
	}

	expr := makeExpr(query, step)

	if query.StartTime().IsZero() {
		end := query.EndTime()
		if end.IsZero() {
			end = time.Now()
		}
		value, _, err := p.client.Query(ctx, expr, end)
		if err != nil {
			return nil, err
		}
		return parseVector(value)
	}

	timeRange := apiv1.Range{
		Start: query.StartTime(),
		End:   query.EndTime(),
		Step:  step,
	}
	value, _, err := p.client.QueryRange(ctx, expr, timeRange)
	if err != nil {
		return nil, err
	}
	return parseMatrix(value)
}

func (p prometheus) ListMetricDescriptors(ctx context.Context, typePrefix string) ([]monitoring.MetricDescriptor, error) {
	metadata, err := p.client.Metadata(ctx, "", "")
	if err != nil {
		return nil, err
	}

	var descriptors []monitoring.MetricDescriptor
	for name, entries := range metadata {
		if typePrefix != "" && !strings.HasPrefix(name, typePrefix) {
			continue
		}
		if len(entries) == 0 {
			continue
		}
		descriptors = append(descriptors, monitoring.MetricDescriptor{
			Type:        name,
			MetricKind:  metricKind(string(entries[0].Type)),
			ValueType:   monitoring.ValueTypeDouble,
			Unit:        entries[0].Unit,
			Description: entries[0].Help,
		})
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Type < descriptors[j].Type
	})
	return descriptors, nil
}

func (p prometheus) ListResourceDescriptors(ctx context.Context) ([]monitoring.ResourceDescriptor, error) {
	return []monitoring.ResourceDescriptor{
		{
			Type:        ResourceTypeInstance,
			DisplayName: "Prometheus Instance",
			Description: "A target scraped by Prometheus.",
			Labels: []monitoring.LabelDescriptor{
				{Key: "instance", Description: "The <host>:<port> of the scraped target."},
				{Key: "job", Description: "The configured job name of the target."},
			},
		},
	}, nil
}

// ListGroups returns an empty list: Prometheus has no group tree.
func (p prometheus) ListGroups(ctx context.Context) ([]monitoring.Group, error) {
	return nil, nil
}

func metricKind(metadataType string) string {
	switch metadataType {
	case "counter":
		return monitoring.MetricKindCumulative
	case "histogram", "summary":
		return monitoring.MetricKindDelta
	default:
		return monitoring.MetricKindGauge
	}
}

func parseVector(value model.Value) ([]monitoring.TimeSeries, error) {
	vector, ok := value.(model.Vector)
	if !ok {
		return nil, errors.Errorf("expected a vector result, got %T", value)
	}

	var series []monitoring.TimeSeries
	for _, sample := range vector {
		ts := seriesFromMetric(sample.Metric)
		ts.Points = []monitoring.Point{{float64(sample.Timestamp.Unix()), float64(sample.Value)}}
		series = append(series, ts)
	}
	sortSeries(series)
	return series, nil
}

func parseMatrix(value model.Value) ([]monitoring.TimeSeries, error) {
	matrix, ok := value.(model.Matrix)
	if !ok {
		return nil, errors.Errorf("expected a matrix result, got %T", value)
	}

	var series []monitoring.TimeSeries
	for _, stream := range matrix {
		ts := seriesFromMetric(stream.Metric)
		for _, pair := range stream.Values {
			ts.Points = append(ts.Points, monitoring.Point{float64(pair.Timestamp.Unix()), float64(pair.Value)})
		}
		series = append(series, ts)
	}
	sortSeries(series)
	return series, nil
}

func seriesFromMetric(metric model.Metric) monitoring.TimeSeries {
	ts := monitoring.TimeSeries{
		Metric:     monitoring.Metric{Type: string(metric[model.MetricNameLabel]), Labels: map[string]string{}},
		Resource:   monitoring.Resource{Type: ResourceTypeInstance, Labels: map[string]string{}},
		MetricKind: monitoring.MetricKindGauge,
		ValueType:  monitoring.ValueTypeDouble,
	}
	for name, value := range metric {
		if name == model.MetricNameLabel {
			continue
		}
		if resourceLabelNames[name] {
			ts.Resource.Labels[string(name)] = string(value)
		} else {
			ts.Metric.Labels[string(name)] = string(value)
		}
	}
	return ts
}

func sortSeries(series []monitoring.TimeSeries) {
	sort.Slice(series, func(i, j int) bool {
		a, b := series[i], series[j]
		if a.Metric.Type != b.Metric.Type {
			return a.Metric.Type < b.Metric.Type
		}
		return labelSignature(a) < labelSignature(b)
	})
}

func labelSignature(ts monitoring.TimeSeries) string {
	labels := ts.Labels()
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
		sb.WriteByte(',')
	}
	return sb.String()
}
