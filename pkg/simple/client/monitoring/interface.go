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

import "context"

// Interface defines all the abstract behaviors of a monitoring backend.
// Implementations own pagination, retries and authentication; callers get
// fully materialized results.
type Interface interface {
	// ListTimeSeries fetches all time series matching the query, ordered
	// oldest point first within each series.
	ListTimeSeries(ctx context.Context, query Query) ([]TimeSeries, error)

	// ListMetricDescriptors lists metric descriptors, optionally
	// constrained to types starting with typePrefix.
	ListMetricDescriptors(ctx context.Context, typePrefix string) ([]MetricDescriptor, error)

	// ListResourceDescriptors lists monitored resource descriptors.
	ListResourceDescriptors(ctx context.Context) ([]ResourceDescriptor, error)

	// ListGroups lists all groups of the monitored project.
	ListGroups(ctx context.Context) ([]Group, error)
}
