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

// Package visualization renders query results as notebook-embeddable HTML
// charts.
package visualization

import (
	"github.com/yebrahim/monlab/pkg/server/errors"
)

// Kind selects the chart type.
type Kind string

const (
	KindLinechart Kind = "linechart"
	KindHeatmap   Kind = "heatmap"
)

// PlotOptions carries the display options recognized by the rendering
// sink. Zero values pick sensible defaults.
type PlotOptions struct {
	Kind  Kind
	Title string

	// PartitionBy splits the columns into one chart per distinct value
	// tuple of these header levels. Levels absent from the table are
	// ignored.
	PartitionBy []string

	// AnnotateBy names the header levels that label each series in the
	// legend. Empty keeps the full flattened header.
	AnnotateBy []string

	// SortLegend orders linechart series by descending maximum.
	SortLegend bool

	// Width and Height are in pixels; zero picks the chart defaults.
	Width  int
	Height int

	// ZRange clamps the heatmap colormap; nil computes it from the data.
	ZRange *[2]float64

	// Colorscale names a built-in colormap. Empty picks GnBu, or RdBu
	// when the data is divergent.
	Colorscale  string
	IsLogscale  bool
	IsDivergent bool
}

func (o PlotOptions) Validate() error {
	switch o.Kind {
	case "", KindLinechart, KindHeatmap:
	default:
		return errors.NewInvalidArgument("unknown chart kind %q", string(o.Kind))
	}
	if o.ZRange != nil && o.ZRange[0] > o.ZRange[1] {
		return errors.NewInvalidArgument("zrange lower bound %v exceeds upper bound %v", o.ZRange[0], o.ZRange[1])
	}
	if o.Colorscale != "" {
		if _, ok := colorscales[o.Colorscale]; !ok {
			return errors.NewInvalidArgument("unknown colorscale %q", o.Colorscale)
		}
	}
	return nil
}

func (o PlotOptions) kind() Kind {
	if o.Kind == "" {
		return KindLinechart
	}
	return o.Kind
}
