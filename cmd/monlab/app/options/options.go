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

package options

import (
	goflag "flag"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/yebrahim/monlab/pkg/simple/client/monitoring"
)

const defaultConfigFile = "monlab.yaml"

// Options aggregates the client configuration of all monlab subcommands.
type Options struct {
	ConfigFile        string
	MonitoringOptions *monitoring.Options
}

func NewMonlabOptions() *Options {
	return &Options{
		MonitoringOptions: monitoring.NewPrometheusOptions(),
	}
}

// config mirrors the on-disk configuration file.
type config struct {
	Monitoring *monitoring.Options `yaml:"monitoring"`
}

// TryLoadFromDisk merges settings from the config file, if one exists.
// Flags set on the command line take precedence over the file.
func (s *Options) TryLoadFromDisk() error {
	path := s.ConfigFile
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrapf(err, "error reading config file %s", path)
	}

	var c config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return errors.Wrapf(err, "error parsing config file %s", path)
	}
	if c.Monitoring != nil {
		c.Monitoring.ApplyTo(s.MonitoringOptions)
	}
	klog.V(2).Infof("Loaded configuration from %s", path)
	return nil
}

func (s *Options) Validate() []error {
	var errs []error
	errs = append(errs, s.MonitoringOptions.Validate()...)
	return errs
}

func (s *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.ConfigFile, "config", "",
		"Path to the monlab configuration file. Defaults to ./"+defaultConfigFile+" when present.")
	s.MonitoringOptions.AddFlags(fs, s.MonitoringOptions)

	local := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(local)
	local.VisitAll(func(fl *goflag.Flag) {
		fl.Name = strings.Replace(fl.Name, "_", "-", -1)
		fs.AddGoFlag(fl)
	})
}
