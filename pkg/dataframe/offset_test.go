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
	"testing"
	"time"

	"github.com/yebrahim/monlab/pkg/server/errors"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		freq     string
		expected Frequency
		wantErr  bool
	}{
		{freq: "D", expected: Frequency{Count: 1, Unit: UnitDay}},
		{freq: "w", expected: Frequency{Count: 1, Unit: UnitWeek}},
		{freq: "2W", expected: Frequency{Count: 2, Unit: UnitWeek}},
		{freq: "12h", expected: Frequency{Count: 12, Unit: UnitHour}},
		{freq: "3M", expected: Frequency{Count: 3, Unit: UnitMonth}},
		{freq: "Q", expected: Frequency{Count: 1, Unit: UnitQuarter}},
		{freq: "A", expected: Frequency{Count: 1, Unit: UnitYear}},
		{freq: "0D", wantErr: true},
		{freq: "", wantErr: true},
		{freq: "5X", wantErr: true},
		{freq: "W2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			got, err := ParseFrequency(tt.freq)
			if tt.wantErr {
				if !errors.IsInvalidArgument(err) {
					t.Fatalf("expected an invalid argument error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAlignStart(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		freq     Frequency
		in       time.Time
		expected time.Time
	}{
		// Hour and day are plain ticks and never roll back.
		{"hour tick", Frequency{1, UnitHour}, time.Date(2016, 3, 2, 14, 0, 0, 0, time.UTC), time.Date(2016, 3, 2, 14, 0, 0, 0, time.UTC)},
		{"day tick", Frequency{1, UnitDay}, day(2016, 3, 2), day(2016, 3, 2)},
		{"multi-day tick", Frequency{3, UnitDay}, day(2016, 3, 2), day(2016, 3, 2)},

		// Weeks anchor on Sunday. 2016-03-02 is a Wednesday.
		{"week rolls back to sunday", Frequency{1, UnitWeek}, day(2016, 3, 2), day(2016, 2, 28)},
		{"week on sunday stays", Frequency{1, UnitWeek}, day(2016, 2, 28), day(2016, 2, 28)},
		{"two weeks roll back further", Frequency{2, UnitWeek}, day(2016, 3, 2), day(2016, 2, 21)},

		{"month rolls back to first", Frequency{1, UnitMonth}, day(2016, 3, 15), day(2016, 3, 1)},
		{"month on first stays", Frequency{1, UnitMonth}, day(2016, 3, 1), day(2016, 3, 1)},
		{"quarter rolls back to period start", Frequency{1, UnitQuarter}, day(2016, 5, 10), day(2016, 4, 1)},
		{"year rolls back to january", Frequency{1, UnitYear}, day(2016, 5, 10), day(2016, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.freq.AlignStart(tt.in); !got.Equal(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFrequencyNext(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		freq     Frequency
		in       time.Time
		expected time.Time
	}{
		{"hours", Frequency{6, UnitHour}, day(2016, 3, 2), time.Date(2016, 3, 2, 6, 0, 0, 0, time.UTC)},
		{"days", Frequency{2, UnitDay}, day(2016, 3, 2), day(2016, 3, 4)},
		{"weeks", Frequency{1, UnitWeek}, day(2016, 2, 28), day(2016, 3, 6)},
		{"months", Frequency{1, UnitMonth}, day(2016, 3, 1), day(2016, 4, 1)},
		{"quarters", Frequency{1, UnitQuarter}, day(2016, 1, 1), day(2016, 4, 1)},
		{"years", Frequency{1, UnitYear}, day(2016, 1, 1), day(2017, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.freq.Next(tt.in); !got.Equal(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFrequencyString(t *testing.T) {
	if got := (Frequency{1, UnitWeek}).String(); got != "W" {
		t.Fatalf("expected W, got %q", got)
	}
	if got := (Frequency{2, UnitDay}).String(); got != "2D" {
		t.Fatalf("expected 2D, got %q", got)
	}
}
