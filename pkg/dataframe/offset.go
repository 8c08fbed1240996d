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

package dataframe

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

// Unit is a calendar frequency unit. Hours and days are plain ticks; weeks
// anchor on Sunday, months, quarters and years on the first day of the
// period.
type Unit byte

const (
	UnitHour    Unit = 'H'
	UnitDay     Unit = 'D'
	UnitWeek    Unit = 'W'
	UnitMonth   Unit = 'M'
	UnitQuarter Unit = 'Q'
	UnitYear    Unit = 'A'
)

var unitNames = map[Unit]string{
	UnitHour:    "hour",
	UnitDay:     "day",
	UnitWeek:    "week",
	UnitMonth:   "month",
	UnitQuarter: "quarter",
	UnitYear:    "year",
}

// Frequency is a parsed "<count><unit>" specification such as "D" or "2W".
type Frequency struct {
	Count int
	Unit  Unit
}

var frequencyPattern = regexp.MustCompile(`^(\d*)([HDWMQA])$`)

// ParseFrequency parses a frequency string, case insensitively. The count
// defaults to 1.
func ParseFrequency(freq string) (Frequency, error) {
	m := frequencyPattern.FindStringSubmatch(strings.ToUpper(freq))
	if m == nil {
		return Frequency{}, errors.NewInvalidArgument(`"freq" does not have a valid value: %q`, freq)
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
		if count == 0 {
			return Frequency{}, errors.NewInvalidArgument(`"freq" must have a positive count: %q`, freq)
		}
	}
	return Frequency{Count: count, Unit: Unit(m[2][0])}, nil
}

// UnitName returns the singular unit name, eg. "week".
func (f Frequency) UnitName() string {
	return unitNames[f.Unit]
}

func (f Frequency) String() string {
	if f.Count == 1 {
		return string(f.Unit)
	}
	return strconv.Itoa(f.Count) + string(f.Unit)
}

// onBoundary reports whether t sits on a calendar anchor for the unit.
// Hour and day ticks have no anchor: any (truncated) time is a boundary.
func (f Frequency) onBoundary(t time.Time) bool {
	switch f.Unit {
	case UnitWeek:
		return t.Weekday() == time.Sunday
	case UnitMonth:
		return t.Day() == 1
	case UnitQuarter:
		return t.Day() == 1 && t.Month() == quarterStartMonth(t.Month())
	case UnitYear:
		return t.Day() == 1 && t.Month() == time.January
	default:
		return true
	}
}

// AlignStart moves a truncated timestamp back onto the nearest period
// boundary at or before it. Times already on a boundary stay put; anchored
// units otherwise roll back to the previous anchor, which counts as one
// period of the Count.
func (f Frequency) AlignStart(t time.Time) time.Time {
	if f.onBoundary(t) {
		return t
	}
	switch f.Unit {
	case UnitWeek:
		prev := t.AddDate(0, 0, -int(t.Weekday()))
		return prev.AddDate(0, 0, -7*(f.Count-1))
	case UnitMonth:
		prev := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return prev.AddDate(0, -(f.Count - 1), 0)
	case UnitQuarter:
		prev := time.Date(t.Year(), quarterStartMonth(t.Month()), 1, 0, 0, 0, 0, t.Location())
		return prev.AddDate(0, -3*(f.Count-1), 0)
	default: // UnitYear; ticks never reach here
		prev := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		return prev.AddDate(-(f.Count - 1), 0, 0)
	}
}

// Next advances a boundary-aligned timestamp by one full frequency step.
func (f Frequency) Next(t time.Time) time.Time {
	switch f.Unit {
	case UnitHour:
		return t.Add(time.Duration(f.Count) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, f.Count)
	case UnitWeek:
		return t.AddDate(0, 0, 7*f.Count)
	case UnitMonth:
		return t.AddDate(0, f.Count, 0)
	case UnitQuarter:
		return t.AddDate(0, 3*f.Count, 0)
	default: // UnitYear
		return t.AddDate(f.Count, 0, 0)
	}
}

func quarterStartMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)/3*3 + 1)
}
