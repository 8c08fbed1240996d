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

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/yebrahim/monlab/cmd/monlab/app/options"
	"github.com/yebrahim/monlab/pkg/models/metadata"
	"github.com/yebrahim/monlab/pkg/models/results"
	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
	"github.com/yebrahim/monlab/pkg/simple/client/monitoring/prometheus"
	"github.com/yebrahim/monlab/pkg/visualization"
)

func NewMonlabCommand() *cobra.Command {
	s := options.NewMonlabOptions()

	cmd := &cobra.Command{
		Use: "monlab",
		Long: `Monlab fetches monitoring time series, reshapes them into
time-indexed tables and renders them as CSV or HTML charts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.TryLoadFromDisk()
		},
	}
	s.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(newQueryCommand(s))
	cmd.AddCommand(newMetricsCommand(s))
	cmd.AddCommand(newResourcesCommand(s))
	cmd.AddCommand(newGroupsCommand(s))
	return cmd
}

func newClient(s *options.Options) (monitoring.Interface, error) {
	if errs := s.Validate(); len(errs) != 0 {
		return nil, errs[0]
	}
	return prometheus.NewPrometheus(s.MonitoringOptions)
}

type queryFlags struct {
	metricType   string
	resourceType string
	group        string

	interval string
	start    string
	end      string
	offset   time.Duration

	resourceLabels map[string]string
	metricLabels   map[string]string

	aligner         string
	alignmentPeriod time.Duration
	reducer         string
	groupBy         []string

	output    string
	outFile   string
	shortName bool

	splitFreq      string
	splitAverage   bool
	splitMinPoints int

	chart       string
	partitionBy []string
	annotateBy  []string
	sortLegend  bool
	colorscale  string
	logscale    bool
}

func newQueryCommand(s *options.Options) *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch time series and print them as a summary, CSV or HTML chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), s, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.metricType, "metric-type", "", "Metric type to query, required.")
	fs.StringVar(&f.resourceType, "resource-type", "", "Restrict to one monitored resource type.")
	fs.StringVar(&f.group, "group", "", "Restrict to members of the group with this display name.")
	fs.StringVar(&f.interval, "interval", "", "Named time interval, eg. LAST_WEEK or MONTH_TO_DATE.")
	fs.StringVar(&f.start, "start", "", "Interval start in RFC3339.")
	fs.StringVar(&f.end, "end", "", "Interval end in RFC3339, defaults to now.")
	fs.DurationVar(&f.offset, "offset", 0, "Interval as a duration ending at --end, eg. 2h.")
	fs.StringToStringVar(&f.resourceLabels, "resource-label", nil, "Resource label equality filter, repeatable as key=value.")
	fs.StringToStringVar(&f.metricLabels, "metric-label", nil, "Metric label equality filter, repeatable as key=value.")
	fs.StringVar(&f.aligner, "aligner", "", "Per-series aligner, eg. ALIGN_RATE.")
	fs.DurationVar(&f.alignmentPeriod, "alignment-period", 5*time.Minute, "Alignment period for --aligner.")
	fs.StringVar(&f.reducer, "reducer", "", "Cross-series reducer, eg. REDUCE_MEAN.")
	fs.StringSliceVar(&f.groupBy, "group-by", nil, "Fields to group by when reducing, eg. resource.label.zone.")
	fs.StringVar(&f.output, "output", "summary", "Output format: summary, csv or chart.")
	fs.StringVar(&f.outFile, "out", "", "Write output to this file instead of stdout.")
	fs.BoolVar(&f.shortName, "short-name", false, "Name the result by the last metric type path segment.")
	fs.StringVar(&f.splitFreq, "split", "", "Split into calendar intervals of this frequency, eg. W or 2D.")
	fs.BoolVar(&f.splitAverage, "split-average", false, "Average all but the most recent interval into one.")
	fs.IntVar(&f.splitMinPoints, "split-min-points", 0, "Drop a trailing interval with fewer rows than this.")
	fs.StringVar(&f.chart, "chart", string(visualization.KindLinechart), "Chart kind for --output chart: linechart or heatmap.")
	fs.StringSliceVar(&f.partitionBy, "partition-by", nil, "Header levels to partition charts by.")
	fs.StringSliceVar(&f.annotateBy, "annotate-by", nil, "Header levels to label chart series by.")
	fs.BoolVar(&f.sortLegend, "sort-legend", false, "Order linechart series by descending maximum.")
	fs.StringVar(&f.colorscale, "colorscale", "", "Heatmap colormap: GnBu or RdBu.")
	fs.BoolVar(&f.logscale, "logscale", false, "Show heatmap values on a log10 scale.")
	cmd.MarkFlagRequired("metric-type")

	return cmd
}

func runQuery(ctx context.Context, s *options.Options, f queryFlags) error {
	client, err := newClient(s)
	if err != nil {
		return err
	}

	q, err := buildQuery(ctx, client, f)
	if err != nil {
		return err
	}

	klog.V(2).Infof("Fetching time series with filter %s", q.Filter())
	series, err := client.ListTimeSeries(ctx, q)
	if err != nil {
		return err
	}

	w, closer, err := outputWriter(f.outFile)
	if err != nil {
		return err
	}
	defer closer()

	if f.output == "csv" && f.splitFreq == "" {
		data, err := monitoring.MarshalTimeSeriesCSV(series)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	r, err := results.FromSeries(series, f.metricType, f.shortName)
	if err != nil {
		return err
	}

	rs := []*results.QueryResults{r}
	if f.splitFreq != "" {
		if rs, err = r.Timesplit(f.splitFreq, f.splitAverage, f.splitMinPoints); err != nil {
			return err
		}
	}

	switch f.output {
	case "chart":
		return visualization.RenderAll(w, rs, visualization.PlotOptions{
			Kind:        visualization.Kind(f.chart),
			PartitionBy: f.partitionBy,
			AnnotateBy:  f.annotateBy,
			SortLegend:  f.sortLegend,
			Colorscale:  f.colorscale,
			IsLogscale:  f.logscale,
		})
	case "csv":
		return errors.New("csv output does not support --split")
	case "summary":
		for _, part := range rs {
			fmt.Fprintln(w, part.String())
		}
		if meta := metadata.New(series); !meta.Empty() {
			fmt.Fprintln(w, strings.Join(meta.Header(), "\t"))
			for _, row := range meta.Rows {
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
		}
		return nil
	default:
		return errors.Errorf("unknown output format %q", f.output)
	}
}

func buildQuery(ctx context.Context, client monitoring.Interface, f queryFlags) (monitoring.Query, error) {
	q := monitoring.NewQuery(f.metricType)
	if f.resourceType != "" {
		q = q.SelectResourceType(f.resourceType)
	}
	for k, v := range f.resourceLabels {
		q = q.SelectResourceLabel(k, v)
	}
	for k, v := range f.metricLabels {
		q = q.SelectMetricLabel(k, v)
	}

	var err error
	if f.group != "" {
		if q, err = q.SelectGroupByDisplayName(ctx, client, f.group); err != nil {
			return q, err
		}
	}

	end := time.Now().UTC().Truncate(time.Minute)
	if f.end != "" {
		if end, err = time.Parse(time.RFC3339, f.end); err != nil {
			return q, errors.Wrap(err, "invalid --end")
		}
	}

	switch {
	case f.interval != "":
		q, err = q.SelectTimeInterval(monitoring.TimeInterval(f.interval))
	case f.offset != 0:
		q, err = q.SelectOffset(end, f.offset)
	case f.start != "":
		var start time.Time
		if start, err = time.Parse(time.RFC3339, f.start); err != nil {
			return q, errors.Wrap(err, "invalid --start")
		}
		q, err = q.SelectInterval(end, start)
	default:
		// Instant query at the end time.
		q, err = q.SelectInterval(end, time.Time{})
	}
	if err != nil {
		return q, err
	}

	if f.aligner != "" {
		q = q.Align(monitoring.Aligner(f.aligner), f.alignmentPeriod)
	}
	if f.reducer != "" {
		q = q.Reduce(monitoring.Reducer(f.reducer), f.groupBy...)
	}
	return q, nil
}

func newMetricsCommand(s *options.Options) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List metric descriptors as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(s)
			if err != nil {
				return err
			}
			descriptors, err := client.ListMetricDescriptors(cmd.Context(), "")
			if err != nil {
				return err
			}
			data, err := metadata.MarshalMetricDescriptorsCSV(
				metadata.FilterMetricDescriptors(descriptors, pattern))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "filter", "", `Shell-style pattern on the metric type, eg. "compute*".`)
	return cmd
}

func newResourcesCommand(s *options.Options) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List monitored resource descriptors as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(s)
			if err != nil {
				return err
			}
			descriptors, err := client.ListResourceDescriptors(cmd.Context())
			if err != nil {
				return err
			}
			data, err := metadata.MarshalResourceDescriptorsCSV(
				metadata.FilterResourceDescriptors(descriptors, pattern))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "filter", "", "Shell-style pattern on the resource type.")
	return cmd
}

func newGroupsCommand(s *options.Options) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List groups as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(s)
			if err != nil {
				return err
			}
			groups, err := client.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			data, err := metadata.MarshalGroupsCSV(metadata.FilterGroups(groups, pattern))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "filter", "", "Shell-style pattern on the group display name.")
	return cmd
}

func outputWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}
