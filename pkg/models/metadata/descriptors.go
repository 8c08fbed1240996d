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

package metadata

import (
	"path"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

// match applies a shell-style wildcard pattern, eg. "compute*" or
// "*/cpu/load_??m". A malformed pattern matches nothing.
func match(pattern, name string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// FilterMetricDescriptors keeps descriptors whose type matches the
// pattern.
func FilterMetricDescriptors(descriptors []monitoring.MetricDescriptor, pattern string) []monitoring.MetricDescriptor {
	var out []monitoring.MetricDescriptor
	for _, d := range descriptors {
		if match(pattern, d.Type) {
			out = append(out, d)
		}
	}
	return out
}

// FilterResourceDescriptors keeps descriptors whose type matches the
// pattern.
func FilterResourceDescriptors(descriptors []monitoring.ResourceDescriptor, pattern string) []monitoring.ResourceDescriptor {
	var out []monitoring.ResourceDescriptor
	for _, d := range descriptors {
		if match(pattern, d.Type) {
			out = append(out, d)
		}
	}
	return out
}

// FilterGroups keeps groups whose display name matches the pattern.
func FilterGroups(groups []monitoring.Group, pattern string) []monitoring.Group {
	var out []monitoring.Group
	for _, g := range groups {
		if match(pattern, g.DisplayName) {
			out = append(out, g)
		}
	}
	return out
}

type metricDescriptorRow struct {
	Type        string `csv:"metric_type"`
	DisplayName string `csv:"display_name"`
	Kind        string `csv:"kind"`
	ValueType   string `csv:"value"`
	Unit        string `csv:"unit"`
	Labels      string `csv:"labels"`
}

// MarshalMetricDescriptorsCSV exports descriptors the way the notebook
// table view lists them.
func MarshalMetricDescriptorsCSV(descriptors []monitoring.MetricDescriptor) ([]byte, error) {
	rows := make([]metricDescriptorRow, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, metricDescriptorRow{
			Type:        d.Type,
			DisplayName: d.DisplayName,
			Kind:        d.MetricKind,
			ValueType:   d.ValueType,
			Unit:        d.Unit,
			Labels:      joinLabelKeys(d.Labels),
		})
	}
	return csvutil.Marshal(rows)
}

type resourceDescriptorRow struct {
	Type   string `csv:"resource_type"`
	Labels string `csv:"labels"`
}

func MarshalResourceDescriptorsCSV(descriptors []monitoring.ResourceDescriptor) ([]byte, error) {
	rows := make([]resourceDescriptorRow, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, resourceDescriptorRow{
			Type:   d.Type,
			Labels: joinLabelKeys(d.Labels),
		})
	}
	return csvutil.Marshal(rows)
}

type groupRow struct {
	Name        string `csv:"group_id"`
	DisplayName string `csv:"group_name"`
	ParentName  string `csv:"parent_id"`
	IsCluster   bool   `csv:"is_cluster"`
	Filter      string `csv:"filter"`
}

func MarshalGroupsCSV(groups []monitoring.Group) ([]byte, error) {
	rows := make([]groupRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, groupRow{
			Name:        g.Name,
			DisplayName: g.DisplayName,
			ParentName:  g.ParentName,
			IsCluster:   g.IsCluster,
			Filter:      g.Filter,
		})
	}
	return csvutil.Marshal(rows)
}

func joinLabelKeys(labels []monitoring.LabelDescriptor) string {
	keys := make([]string, 0, len(labels))
	for _, l := range labels {
		keys = append(keys, l.Key)
	}
	return strings.Join(keys, ", ")
}
