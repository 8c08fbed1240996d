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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/common/model"
	"k8s.io/klog/v2"

	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

// makeExpr translates a Query into a PromQL expression. The metric type is
// used as the series name; label filters become matchers; alignment and
// reduction map onto *_over_time and aggregation operators.
func makeExpr(q monitoring.Query, step time.Duration) string {
	expr := makeSelector(q)

	if q.GroupName() != "" {
		klog.V(4).Infof("group %q ignored: prometheus has no group tree", q.GroupName())
	}

	window := model.Duration(step)
	switch q.Aligner() {
	case monitoring.AlignRate:
		expr = fmt.Sprintf("rate(%s[%s])", expr, window)
	case monitoring.AlignDelta:
		expr = fmt.Sprintf("delta(%s[%s])", expr, window)
	case monitoring.AlignMean:
		expr = fmt.Sprintf("avg_over_time(%s[%s])", expr, window)
	case monitoring.AlignMin:
		expr = fmt.Sprintf("min_over_time(%s[%s])", expr, window)
	case monitoring.AlignMax:
		expr = fmt.Sprintf("max_over_time(%s[%s])", expr, window)
	case monitoring.AlignSum:
		expr = fmt.Sprintf("sum_over_time(%s[%s])", expr, window)
	}

	var op string
	switch q.Reducer() {
	case monitoring.ReduceMean:
		op = "avg"
	case monitoring.ReduceMin:
		op = "min"
	case monitoring.ReduceMax:
		op = "max"
	case monitoring.ReduceSum:
		op = "sum"
	default:
		return expr
	}

	fields := make([]string, 0, len(q.GroupByFields()))
	for _, f := range q.GroupByFields() {
		fields = append(fields, labelFromField(f))
	}
	if len(fields) == 0 {
		return fmt.Sprintf("%s(%s)", op, expr)
	}
	return fmt.Sprintf("%s by (%s) (%s)", op, strings.Join(fields, ", "), expr)
}

func makeSelector(q monitoring.Query) string {
	var matchers []string
	for k, v := range q.ResourceLabels() {
		matchers = append(matchers, fmt.Sprintf("%s=%q", k, v))
	}
	for k, v := range q.MetricLabels() {
		matchers = append(matchers, fmt.Sprintf("%s=%q", k, v))
	}
	if len(matchers) == 0 {
		return q.MetricType()
	}
	sort.Strings(matchers)
	return fmt.Sprintf("%s{%s}", q.MetricType(), strings.Join(matchers, ","))
}

// labelFromField strips the monitoring field prefixes, eg.
// "resource.label.zone" and "metric.label.state" both select by the bare
// label name.
func labelFromField(field string) string {
	field = strings.TrimPrefix(field, "resource.label.")
	field = strings.TrimPrefix(field, "metric.label.")
	return field
}
