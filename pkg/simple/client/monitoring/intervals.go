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
	"strings"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

// TimeInterval is a user friendly relative time interval. Week boundaries
// fall on Sunday; month, quarter and year intervals start on the first day
// of the period.
type TimeInterval string

const (
	TimeIntervalToday         TimeInterval = "TODAY"
	TimeIntervalYesterday     TimeInterval = "YESTERDAY"
	TimeIntervalWeekToDate    TimeInterval = "WEEK_TO_DATE"
	TimeIntervalLastWeek      TimeInterval = "LAST_WEEK"
	TimeIntervalMonthToDate   TimeInterval = "MONTH_TO_DATE"
	TimeIntervalLastMonth     TimeInterval = "LAST_MONTH"
	TimeIntervalQuarterToDate TimeInterval = "QUARTER_TO_DATE"
	TimeIntervalLastQuarter   TimeInterval = "LAST_QUARTER"
	TimeIntervalYearToDate    TimeInterval = "YEAR_TO_DATE"
	TimeIntervalLastYear      TimeInterval = "LAST_YEAR"
)

type calendarUnit int

const (
	unitDay calendarUnit = iota
	unitWeek
	unitMonth
	unitQuarter
	unitYear
)

var intervalUnits = map[TimeInterval]calendarUnit{
	TimeIntervalToday:         unitDay,
	TimeIntervalYesterday:     unitDay,
	TimeIntervalWeekToDate:    unitWeek,
	TimeIntervalLastWeek:      unitWeek,
	TimeIntervalMonthToDate:   unitMonth,
	TimeIntervalLastMonth:     unitMonth,
	TimeIntervalQuarterToDate: unitQuarter,
	TimeIntervalLastQuarter:   unitQuarter,
	TimeIntervalYearToDate:    unitYear,
	TimeIntervalLastYear:      unitYear,
}

// Timestamps resolves the interval to a (start, end) pair relative to now.
// A zero end time means the interval extends to the caller's query end.
func (ti TimeInterval) Timestamps(now time.Time) (start, end time.Time, err error) {
	interval := TimeInterval(strings.ToUpper(string(ti)))
	unit, ok := intervalUnits[interval]
	if !ok {
		return start, end, errors.NewInvalidArgument("interval %q does not have a valid value", string(ti))
	}

	now = now.Truncate(time.Minute)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Beginning of the current period for the interval's unit.
	currPeriodBegin := periodBegin(today, unit)

	endsNow := strings.HasSuffix(string(interval), "_TO_DATE") || interval == TimeIntervalToday
	if endsNow {
		end = now
	}

	switch {
	case interval == TimeIntervalToday:
		start = today
	case interval == TimeIntervalYesterday:
		end = today
		start = currPeriodBegin
	case endsNow:
		start = currPeriodBegin
	default:
		end = currPeriodBegin
		start = subtractPeriod(end, unit)
	}
	return start, end, nil
}

// periodBegin returns the start of the period containing t, stepping back a
// full period when t already sits on the boundary.
func periodBegin(t time.Time, unit calendarUnit) time.Time {
	switch unit {
	case unitDay:
		return t.AddDate(0, 0, -1)
	case unitWeek:
		if t.Weekday() == time.Sunday {
			return t.AddDate(0, 0, -7)
		}
		return t.AddDate(0, 0, -int(t.Weekday()))
	case unitMonth:
		if t.Day() == 1 {
			return t.AddDate(0, -1, 0)
		}
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case unitQuarter:
		qm := quarterStartMonth(t.Month())
		if t.Month() == qm && t.Day() == 1 {
			return t.AddDate(0, -3, 0)
		}
		return time.Date(t.Year(), qm, 1, 0, 0, 0, 0, t.Location())
	default: // unitYear
		if t.Month() == time.January && t.Day() == 1 {
			return t.AddDate(-1, 0, 0)
		}
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	}
}

// subtractPeriod steps a boundary-aligned time back by one full period.
func subtractPeriod(t time.Time, unit calendarUnit) time.Time {
	switch unit {
	case unitDay:
		return t.AddDate(0, 0, -1)
	case unitWeek:
		return t.AddDate(0, 0, -7)
	case unitMonth:
		return t.AddDate(0, -1, 0)
	case unitQuarter:
		return t.AddDate(0, -3, 0)
	default: // unitYear
		return t.AddDate(-1, 0, 0)
	}
}

func quarterStartMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)/3*3 + 1)
}
