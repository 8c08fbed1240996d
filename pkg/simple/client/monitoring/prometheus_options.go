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
	"fmt"

	"github.com/spf13/pflag"
)

type Options struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint"`
	Step     string `json:"step,omitempty" yaml:"step"`
}

func NewPrometheusOptions() *Options {
	return &Options{
		Endpoint: "",
		Step:     "1m",
	}
}

func (s *Options) Validate() []error {
	var errs []error
	if s.Endpoint == "" {
		errs = append(errs, fmt.Errorf("monitoring endpoint must not be empty"))
	}
	return errs
}

func (s *Options) ApplyTo(options *Options) {
	if s.Endpoint != "" {
		options.Endpoint = s.Endpoint
	}

	if s.Step != "" {
		options.Step = s.Step
	}
}

func (s *Options) AddFlags(fs *pflag.FlagSet, c *Options) {
	fs.StringVar(&s.Endpoint, "monitoring-endpoint", c.Endpoint, ""+
		"Prometheus service endpoint to fetch time series from.")

	fs.StringVar(&s.Step, "monitoring-step", c.Step, ""+
		"Default resolution step for range queries when the query carries no alignment period.")
}
