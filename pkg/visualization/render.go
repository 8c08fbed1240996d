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

package visualization

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/yebrahim/monlab/pkg/dataframe"
	"github.com/yebrahim/monlab/pkg/models/results"
	"github.com/yebrahim/monlab/pkg/server/errors"
)

const (
	defaultLineHeight = 600
	maxHeatmapHeight  = 800
	timestampFormat   = "2006-01-02 15:04:05"
)

// Render writes the charts for one query result as a standalone HTML
// page. The result's columns are partitioned into one chart per distinct
// value of the PartitionBy levels.
func Render(w io.Writer, r *results.QueryResults, o PlotOptions) error {
	return RenderAll(w, []*results.QueryResults{r}, o)
}

// RenderAll writes the charts for several results, eg. the partitions of
// a timesplit, on one page.
func RenderAll(w io.Writer, rs []*results.QueryResults, o PlotOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	var all []components.Charter
	for _, r := range rs {
		cs, err := chartsFor(r, o)
		if err != nil {
			return err
		}
		all = append(all, cs...)
	}
	if len(all) == 0 {
		return errors.NewInvalidArgument("no data to plot")
	}

	page := components.NewPage()
	page.AddCharts(all...)
	return page.Render(w)
}

// chartsFor builds one chart per column partition of the result.
func chartsFor(r *results.QueryResults, o PlotOptions) ([]components.Charter, error) {
	if r == nil || r.Empty() {
		return nil, nil
	}

	partitionBy := o.PartitionBy
	if partitionBy == nil {
		partitionBy = []string{dataframe.LevelMetricType}
	}

	var out []components.Charter
	for _, part := range partitionTable(r.Table(), partitionBy) {
		flat, err := annotate(part.table, o.AnnotateBy)
		if err != nil {
			return nil, err
		}

		title := o.Title
		if title == "" {
			title = r.MetricType()
		}
		if part.name != "" {
			title = fmt.Sprintf("%s [%s]", title, part.name)
		}

		var chart components.Charter
		switch o.kind() {
		case KindHeatmap:
			chart = buildHeatmap(flat, title, o)
		default:
			chart, err = buildLinechart(flat, title, o)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, chart)
	}
	return out, nil
}

type tablePartition struct {
	name  string
	table *dataframe.Table
}

// partitionTable splits the columns by their values of the given header
// levels. Levels absent from the header are ignored; with none left the
// whole table forms a single unnamed partition. Partitions appear in the
// column order of the table.
func partitionTable(t *dataframe.Table, levels []string) []tablePartition {
	var positions []int
	for _, level := range levels {
		if idx := t.LevelIndex(level); idx >= 0 {
			positions = append(positions, idx)
		}
	}
	if len(positions) == 0 {
		return []tablePartition{{table: t}}
	}

	groups := map[string]*dataframe.Table{}
	var order []string
	for _, col := range t.Columns {
		parts := make(dataframe.Key, 0, len(positions))
		for _, pos := range positions {
			parts = append(parts, col.Key[pos])
		}
		name := parts.String()
		sub, ok := groups[name]
		if !ok {
			sub = &dataframe.Table{
				Names: append([]string(nil), t.Names...),
				Index: append([]time.Time(nil), t.Index...),
			}
			groups[name] = sub
			order = append(order, name)
		}
		sub.Columns = append(sub.Columns, dataframe.Column{
			Key:    append(dataframe.Key(nil), col.Key...),
			Values: append([]float64(nil), col.Values...),
		})
	}

	out := make([]tablePartition, 0, len(order))
	for _, name := range order {
		out = append(out, tablePartition{name: name, table: groups[name]})
	}
	return out
}

// annotate flattens the header down to the series labels shown in the
// legend. With no annotation levels the full header is joined flat.
func annotate(t *dataframe.Table, annotateBy []string) (*dataframe.Table, error) {
	switch len(annotateBy) {
	case 0:
		return dataframe.ExtractSingleLevel(t, "", nil)
	case 1:
		return dataframe.ExtractSingleLevel(t, annotateBy[0], nil)
	default:
		return dataframe.ExtractSingleLevel(t, "", annotateBy)
	}
}

func buildLinechart(t *dataframe.Table, title string, o PlotOptions) (*charts.Line, error) {
	names := t.FlatNames()
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			return nil, errors.NewInvalidArgument("duplicate series name %q; annotate by more labels", name)
		}
		seen[name] = true
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(o, defaultLineHeight)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	line.SetXAxis(formatIndex(t.Index))

	for _, c := range seriesOrder(t, o.SortLegend) {
		col := t.Columns[c]
		data := make([]opts.LineData, len(col.Values))
		for i, v := range col.Values {
			if dataframe.IsNaN(v) {
				// echarts renders "-" as a gap in the line.
				data[i] = opts.LineData{Value: "-"}
			} else {
				data[i] = opts.LineData{Value: v}
			}
		}
		line.AddSeries(names[c], data)
	}
	return line, nil
}

func buildHeatmap(t *dataframe.Table, title string, o PlotOptions) *charts.HeatMap {
	zmin, zmax := valueRange(t)
	if o.ZRange != nil {
		zmin, zmax = o.ZRange[0], o.ZRange[1]
	}
	colors := pickColorscale(o.Colorscale, zmin, zmax, o.IsDivergent)

	transform := func(v float64) float64 { return v }
	if o.IsLogscale {
		// Positive cells only; the rest become gaps.
		transform = math.Log10
		zmax = math.Log10(zmax)
		zmin = math.Log10(zmin)
		if math.IsNaN(zmin) || math.IsInf(zmin, -1) {
			zmin = zmax - 10
		}
		title += " (log10)"
	}

	names := t.FlatNames()
	var data []opts.HeatMapData
	for c, col := range t.Columns {
		for i, v := range col.Values {
			v = transform(v)
			if dataframe.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, c, v}})
		}
	}

	height := 200 + 25*t.NumColumns()
	if height > maxHeatmapHeight {
		height = maxHeatmapHeight
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(o, height)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: formatIndex(t.Index)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: names}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        float32(zmin),
			Max:        float32(zmax),
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	heatmap.AddSeries("value", data)
	return heatmap
}

func initOpts(o PlotOptions, defaultHeight int) opts.Initialization {
	width, height := o.Width, o.Height
	if width == 0 {
		width = 900
	}
	if height == 0 {
		height = defaultHeight
	}
	return opts.Initialization{
		Width:  fmt.Sprintf("%dpx", width),
		Height: fmt.Sprintf("%dpx", height),
	}
}

// seriesOrder yields the column indices to plot. Sorting puts the series
// with the largest maximum first so the legend mirrors the chart.
func seriesOrder(t *dataframe.Table, sorted bool) []int {
	order := make([]int, t.NumColumns())
	for i := range order {
		order[i] = i
	}
	if !sorted {
		return order
	}
	maxes := make([]float64, len(order))
	for c, col := range t.Columns {
		max := math.Inf(-1)
		for _, v := range col.Values {
			if !dataframe.IsNaN(v) && v > max {
				max = v
			}
		}
		maxes[c] = max
	}
	sort.SliceStable(order, func(i, j int) bool { return maxes[order[i]] > maxes[order[j]] })
	return order
}

// valueRange scans all cells for the finite min and max. An all-missing
// table ranges over [0, 1].
func valueRange(t *dataframe.Table) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, col := range t.Columns {
		for _, v := range col.Values {
			if dataframe.IsNaN(v) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if min > max {
		return 0, 1
	}
	return min, max
}

func formatIndex(index []time.Time) []string {
	out := make([]string, len(index))
	for i, ts := range index {
		out[i] = ts.Format(timestampFormat)
	}
	return out
}
