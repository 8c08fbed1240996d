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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

// Aligner is the approach used to align individual time series in time.
type Aligner string

const (
	AlignNone  Aligner = "ALIGN_NONE"
	AlignDelta Aligner = "ALIGN_DELTA"
	AlignRate  Aligner = "ALIGN_RATE"
	AlignMean  Aligner = "ALIGN_MEAN"
	AlignMin   Aligner = "ALIGN_MIN"
	AlignMax   Aligner = "ALIGN_MAX"
	AlignSum   Aligner = "ALIGN_SUM"
)

// Reducer is the approach used to combine time series across a group.
type Reducer string

const (
	ReduceNone Reducer = "REDUCE_NONE"
	ReduceMean Reducer = "REDUCE_MEAN"
	ReduceMin  Reducer = "REDUCE_MIN"
	ReduceMax  Reducer = "REDUCE_MAX"
	ReduceSum  Reducer = "REDUCE_SUM"
)

// Query holds the parameters of a time series fetch. It is a value: the
// Select/Align/Reduce methods return modified copies and never mutate the
// receiver, so queries can be shared and refined freely.
type Query struct {
	metricType   string
	resourceType string
	groupName    string

	startTime time.Time
	endTime   time.Time

	resourceLabels map[string]string
	metricLabels   map[string]string

	perSeriesAligner Aligner
	alignmentPeriod  time.Duration

	crossSeriesReducer Reducer
	groupByFields      []string
}

func NewQuery(metricType string) Query {
	return Query{metricType: metricType, perSeriesAligner: AlignNone, crossSeriesReducer: ReduceNone}
}

func (q Query) copy() Query {
	dup := q
	dup.resourceLabels = copyMap(q.resourceLabels)
	dup.metricLabels = copyMap(q.metricLabels)
	dup.groupByFields = append([]string(nil), q.groupByFields...)
	return dup
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	dup := make(map[string]string, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}

func (q Query) MetricType() string        { return q.metricType }
func (q Query) ResourceType() string      { return q.resourceType }
func (q Query) GroupName() string         { return q.groupName }
func (q Query) ResourceLabels() map[string]string { return copyMap(q.resourceLabels) }
func (q Query) MetricLabels() map[string]string   { return copyMap(q.metricLabels) }
func (q Query) StartTime() time.Time      { return q.startTime }
func (q Query) EndTime() time.Time        { return q.endTime }
func (q Query) Aligner() Aligner          { return q.perSeriesAligner }
func (q Query) AlignmentPeriod() time.Duration { return q.alignmentPeriod }
func (q Query) Reducer() Reducer          { return q.crossSeriesReducer }
func (q Query) GroupByFields() []string   { return append([]string(nil), q.groupByFields...) }

func (q Query) SelectMetricType(metricType string) Query {
	dup := q.copy()
	dup.metricType = metricType
	return dup
}

func (q Query) SelectResourceType(resourceType string) Query {
	dup := q.copy()
	dup.resourceType = resourceType
	return dup
}

// SelectInterval sets the query time interval. A zero start time makes the
// interval a point in time containing only the end time.
func (q Query) SelectInterval(end, start time.Time) (Query, error) {
	if !start.IsZero() && !end.After(start) {
		return q, errors.NewInvalidArgument("end time %v must be after start time %v", end, start)
	}
	dup := q.copy()
	dup.endTime = end
	dup.startTime = start
	return dup, nil
}

// SelectOffset sets the interval to the given duration ending at end. A
// zero end time means now.
func (q Query) SelectOffset(end time.Time, offset time.Duration) (Query, error) {
	if offset <= 0 {
		return q, errors.NewInvalidArgument("offset must be positive, got %v", offset)
	}
	if end.IsZero() {
		end = time.Now().UTC().Truncate(time.Minute)
	}
	return q.SelectInterval(end, end.Add(-offset))
}

// SelectTimeInterval sets the interval from a named preset such as
// TimeIntervalLastWeek, evaluated against the current time.
func (q Query) SelectTimeInterval(interval TimeInterval) (Query, error) {
	start, end, err := interval.Timestamps(time.Now().UTC())
	if err != nil {
		return q, err
	}
	return q.SelectInterval(end, start)
}

func (q Query) SelectResourceLabel(key, value string) Query {
	dup := q.copy()
	if dup.resourceLabels == nil {
		dup.resourceLabels = map[string]string{}
	}
	dup.resourceLabels[key] = value
	return dup
}

func (q Query) SelectMetricLabel(key, value string) Query {
	dup := q.copy()
	if dup.metricLabels == nil {
		dup.metricLabels = map[string]string{}
	}
	dup.metricLabels[key] = value
	return dup
}

// SelectGroup restricts the query to members of the group with the given
// service-assigned name.
func (q Query) SelectGroup(groupName string) Query {
	dup := q.copy()
	dup.groupName = groupName
	return dup
}

// SelectGroupByDisplayName looks up a group by its display name and
// restricts the query to its members. The display name must match exactly
// one group.
func (q Query) SelectGroupByDisplayName(ctx context.Context, client Interface, displayName string) (Query, error) {
	groups, err := client.ListGroups(ctx)
	if err != nil {
		return q, err
	}
	var matches []Group
	for _, g := range groups {
		if g.DisplayName == displayName {
			matches = append(matches, g)
		}
	}
	if len(matches) != 1 {
		return q, errors.NewInvalidArgument("%d groups have the display name %q", len(matches), displayName)
	}
	return q.SelectGroup(matches[0].Name), nil
}

// Align requests per-series temporal alignment. With an aligner other than
// AlignNone, each series contains points only on period boundaries.
func (q Query) Align(aligner Aligner, period time.Duration) Query {
	dup := q.copy()
	dup.perSeriesAligner = aligner
	dup.alignmentPeriod = period
	return dup
}

// Reduce requests cross-series reduction, optionally grouped by fields,
// eg. "resource.zone".
func (q Query) Reduce(reducer Reducer, groupByFields ...string) Query {
	dup := q.copy()
	dup.crossSeriesReducer = reducer
	dup.groupByFields = append([]string(nil), groupByFields...)
	return dup
}

// Filter renders the monitoring filter expression for this query.
func (q Query) Filter() string {
	terms := []string{fmt.Sprintf("metric.type = %q", q.metricType)}
	if q.groupName != "" {
		terms = append(terms, fmt.Sprintf("group.id = %q", q.groupName))
	}
	if q.resourceType != "" {
		terms = append(terms, fmt.Sprintf("resource.type = %q", q.resourceType))
	}
	for _, k := range sortedKeys(q.resourceLabels) {
		terms = append(terms, fmt.Sprintf("resource.label.%s = %q", k, q.resourceLabels[k]))
	}
	for _, k := range sortedKeys(q.metricLabels) {
		terms = append(terms, fmt.Sprintf("metric.label.%s = %q", k, q.metricLabels[k]))
	}
	return strings.Join(terms, " AND ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
