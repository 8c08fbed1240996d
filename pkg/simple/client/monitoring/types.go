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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/jszwec/csvutil"
)

const (
	MetricKindGauge      = "GAUGE"
	MetricKindDelta      = "DELTA"
	MetricKindCumulative = "CUMULATIVE"

	ValueTypeInt64        = "INT64"
	ValueTypeDouble       = "DOUBLE"
	ValueTypeDistribution = "DISTRIBUTION"
)

// The first element is the timestamp in unix seconds, the second is the
// metric value. eg, [1585658599, 0.528]
type Point [2]float64

func NewPoint(ts time.Time, value float64) Point {
	return Point{float64(ts.Unix()), value}
}

func (p Point) Timestamp() float64 {
	return p[0]
}

func (p Point) Time() time.Time {
	sec, frac := int64(p[0]), p[0]-float64(int64(p[0]))
	return time.Unix(sec, int64(frac*float64(time.Second))).UTC()
}

func (p Point) Value() float64 {
	return p[1]
}

// MarshalJSON implements json.Marshaler. The value is encoded as a string
// to survive round trips through JSON without losing precision.
// Inspired by prometheus/client_golang
func (p Point) MarshalJSON() ([]byte, error) {
	t, err := jsoniter.Marshal(p.Timestamp())
	if err != nil {
		return nil, err
	}
	v, err := jsoniter.Marshal(strconv.FormatFloat(p.Value(), 'f', -1, 64))
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("[%s,%s]", t, v)), nil
}

// UnmarshalJSON implements json.Unmarshaler. This is for unmarshaling test data.
func (p *Point) UnmarshalJSON(b []byte) error {
	var v []interface{}
	if err := jsoniter.Unmarshal(b, &v); err != nil {
		return err
	}

	if v == nil {
		return nil
	}

	if len(v) != 2 {
		return errors.New("unsupported array length")
	}

	ts, ok := v[0].(float64)
	if !ok {
		return errors.New("failed to unmarshal [timestamp]")
	}
	valstr, ok := v[1].(string)
	if !ok {
		return errors.New("failed to unmarshal [value]")
	}
	valf, err := strconv.ParseFloat(valstr, 64)
	if err != nil {
		return err
	}

	p[0] = ts
	p[1] = valf
	return nil
}

func (p Point) Format() string {
	return p.Time().Format("2006-01-02 03:04:05 PM") + " " +
		strconv.FormatFloat(p.Value(), 'f', -1, 64)
}

// Metric identifies the measured quantity of a time series.
type Metric struct {
	Type   string            `json:"type" description:"metric type, eg. compute.googleapis.com/instance/cpu/utilization"`
	Labels map[string]string `json:"labels,omitempty" description:"metric labels"`
}

// Resource identifies the monitored entity a time series was collected from.
type Resource struct {
	Type   string            `json:"type" description:"resource type, eg. gce_instance"`
	Labels map[string]string `json:"labels,omitempty" description:"resource labels"`
}

// TimeSeries is a stream of points for one metric/resource combination.
// It is immutable once fetched.
type TimeSeries struct {
	Metric     Metric   `json:"metric" description:"metric identifier"`
	Resource   Resource `json:"resource" description:"monitored resource identifier"`
	MetricKind string   `json:"metricKind,omitempty" description:"metric kind, one of GAUGE, DELTA, CUMULATIVE"`
	ValueType  string   `json:"valueType,omitempty" description:"value type, one of INT64, DOUBLE, DISTRIBUTION"`
	Points     []Point  `json:"points,omitempty" description:"data points in chronological order"`
}

// Labels merges resource and metric labels into one map. Metric labels win
// on key collision.
func (ts TimeSeries) Labels() map[string]string {
	merged := make(map[string]string, len(ts.Resource.Labels)+len(ts.Metric.Labels))
	for k, v := range ts.Resource.Labels {
		merged[k] = v
	}
	for k, v := range ts.Metric.Labels {
		merged[k] = v
	}
	return merged
}

func (ts TimeSeries) MarshalCSV() ([]byte, error) {
	// time series format:
	// 	{label=value|...},point|point|...
	var targetList []string
	for k, v := range ts.Labels() {
		targetList = append(targetList, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(targetList)

	var pointList []string
	for _, p := range ts.Points {
		pointList = append(pointList, p.Format())
	}

	return []byte(fmt.Sprintf("{%s},%s",
		strings.Join(targetList, "|"),
		strings.Join(pointList, "|"))), nil
}

type timeSeriesRow struct {
	MetricType   string     `csv:"metric_type"`
	ResourceType string     `csv:"resource_type"`
	MetricKind   string     `csv:"metric_kind"`
	ValueType    string     `csv:"value_type"`
	Series       TimeSeries `csv:"series"`
}

// MarshalTimeSeriesCSV exports a fetch result as CSV, one row per series.
func MarshalTimeSeriesCSV(series []TimeSeries) ([]byte, error) {
	rows := make([]timeSeriesRow, 0, len(series))
	for _, ts := range series {
		rows = append(rows, timeSeriesRow{
			MetricType:   ts.Metric.Type,
			ResourceType: ts.Resource.Type,
			MetricKind:   ts.MetricKind,
			ValueType:    ts.ValueType,
			Series:       ts,
		})
	}
	return csvutil.Marshal(rows)
}

// LabelDescriptor describes one label key of a descriptor.
type LabelDescriptor struct {
	Key         string `json:"key" description:"label key"`
	Description string `json:"description,omitempty" description:"label description"`
}

// MetricDescriptor describes a metric type exposed by the monitored project.
type MetricDescriptor struct {
	Type        string            `json:"type" description:"metric type name"`
	DisplayName string            `json:"displayName,omitempty" description:"human readable name"`
	MetricKind  string            `json:"metricKind,omitempty" description:"metric kind"`
	ValueType   string            `json:"valueType,omitempty" description:"value type"`
	Unit        string            `json:"unit,omitempty" description:"metric unit"`
	Description string            `json:"description,omitempty" description:"metric description"`
	Labels      []LabelDescriptor `json:"labels,omitempty" description:"labels the metric carries"`
}

// ResourceDescriptor describes a monitored resource type.
type ResourceDescriptor struct {
	Type        string            `json:"type" description:"resource type name"`
	DisplayName string            `json:"displayName,omitempty" description:"human readable name"`
	Description string            `json:"description,omitempty" description:"resource description"`
	Labels      []LabelDescriptor `json:"labels,omitempty" description:"labels the resource carries"`
}

// Group is a named collection of resources defined by a filter. Groups form
// a tree via ParentName.
type Group struct {
	Name        string `json:"name" description:"unique group name, assigned by the service"`
	DisplayName string `json:"displayName,omitempty" description:"user assigned name"`
	ParentName  string `json:"parentName,omitempty" description:"name of the parent group, empty for roots"`
	Filter      string `json:"filter,omitempty" description:"filter defining group membership"`
	IsCluster   bool   `json:"isCluster,omitempty" description:"whether group members are considered a cluster"`
}
