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
	"testing"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

func TestTimeIntervalTimestamps(t *testing.T) {
	// Wednesday afternoon, mid-quarter.
	now := time.Date(2016, 3, 2, 15, 4, 30, 0, time.UTC)
	nowMinute := time.Date(2016, 3, 2, 15, 4, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		interval TimeInterval
		start    time.Time
		end      time.Time
	}{
		{TimeIntervalToday, day(2016, 3, 2), nowMinute},
		{TimeIntervalYesterday, day(2016, 3, 1), day(2016, 3, 2)},
		{TimeIntervalWeekToDate, day(2016, 2, 28), nowMinute},
		{TimeIntervalLastWeek, day(2016, 2, 21), day(2016, 2, 28)},
		{TimeIntervalMonthToDate, day(2016, 3, 1), nowMinute},
		{TimeIntervalLastMonth, day(2016, 2, 1), day(2016, 3, 1)},
		{TimeIntervalQuarterToDate, day(2016, 1, 1), nowMinute},
		{TimeIntervalLastQuarter, day(2015, 10, 1), day(2016, 1, 1)},
		{TimeIntervalYearToDate, day(2016, 1, 1), nowMinute},
		{TimeIntervalLastYear, day(2015, 1, 1), day(2016, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			start, end, err := tt.interval.Timestamps(now)
			if err != nil {
				t.Fatal(err)
			}
			if !start.Equal(tt.start) {
				t.Fatalf("expected start %v, got %v", tt.start, start)
			}
			if !end.Equal(tt.end) {
				t.Fatalf("expected end %v, got %v", tt.end, end)
			}
		})
	}
}

func TestTimeIntervalOnBoundary(t *testing.T) {
	// On a Sunday that is also the first of the month, the to-date
	// intervals reach back a full period rather than collapsing to now.
	now := time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC)

	start, _, err := TimeIntervalWeekToDate.Timestamps(now)
	if err != nil {
		t.Fatal(err)
	}
	if expected := time.Date(2016, 4, 24, 0, 0, 0, 0, time.UTC); !start.Equal(expected) {
		t.Fatalf("expected start %v, got %v", expected, start)
	}

	start, _, err = TimeIntervalMonthToDate.Timestamps(now)
	if err != nil {
		t.Fatal(err)
	}
	if expected := time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC); !start.Equal(expected) {
		t.Fatalf("expected start %v, got %v", expected, start)
	}
}

func TestTimeIntervalCaseInsensitive(t *testing.T) {
	now := time.Date(2016, 3, 2, 15, 4, 0, 0, time.UTC)
	start, _, err := TimeInterval("last_week").Timestamps(now)
	if err != nil {
		t.Fatal(err)
	}
	if expected := time.Date(2016, 2, 21, 0, 0, 0, 0, time.UTC); !start.Equal(expected) {
		t.Fatalf("expected start %v, got %v", expected, start)
	}
}

func TestTimeIntervalInvalid(t *testing.T) {
	if _, _, err := TimeInterval("FORTNIGHT").Timestamps(time.Now()); !errors.IsInvalidArgument(err) {
		t.Fatalf("expected an invalid argument error, got %v", err)
	}
}
