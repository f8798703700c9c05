/*
DESCRIPTION
  schedule.go computes future publish times for batch uploads. Each
  item in a batch goes public a fixed number of days ahead, at a fixed
  local time of day, staggered by a per-item gap so that same-day items
  do not all appear at once.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This file is part of Dripfeed. Dripfeed is free software: you can
  redistribute it and/or modify it under the terms of the GNU
  General Public License as published by the Free Software
  Foundation, either version 3 of the License, or (at your option)
  any later version.

  Dripfeed is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see <http://www.gnu.org/licenses/>.
*/

// Package schedule plans the publish times of queued uploads. Times
// are computed on the operator's wall clock, expressed as a fixed UTC
// offset, and converted to UTC for the hosting API. The offset is
// explicit configuration; it is never inferred from the host clock.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults. The stock plan publishes three videos per day at 20:00
// operator time, 15 minutes apart, 180 days out, with the operator at
// UTC+6.
const (
	DefaultBatchSize  = 3
	DefaultTimeOfDay  = "20:00"
	DefaultGapMinutes = 15
	DefaultDaysAhead  = 180
	DefaultUTCOffset  = 6.0
)

// Planner computes the publish time for each item of a batch.
type Planner struct {
	BatchSize  int     // Items per batch; the stagger index wraps at this count.
	GapMinutes int     // Minutes between items published on the same day.
	DaysAhead  int     // Days from now until publication.
	UTCOffset  float64 // Operator's UTC offset in hours, e.g. 6 or 9.5.

	hour, minute int
	loc          *time.Location
}

// NewPlanner returns a Planner publishing at the given 24-hour
// time of day, hh:mm.
func NewPlanner(batchSize int, timeOfDay string, gapMinutes, daysAhead int, utcOffset float64) (*Planner, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("invalid batch size: %d", batchSize)
	}
	h, m, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}
	return &Planner{
		BatchSize:  batchSize,
		GapMinutes: gapMinutes,
		DaysAhead:  daysAhead,
		UTCOffset:  utcOffset,
		hour:       h,
		minute:     m,
		loc:        fixedZone(utcOffset),
	}, nil
}

// At returns the publish time of the batch item at index, given the
// current time. The local form is on the operator's wall clock; the
// UTC form, local minus the fixed offset, is what goes to the API.
// A minute overflow from the stagger gap rolls into the hour.
func (p *Planner) At(index int, now time.Time) (local, utc time.Time) {
	date := now.In(p.loc).AddDate(0, 0, p.DaysAhead)

	minute := p.minute + index%p.BatchSize*p.GapMinutes
	hour := p.hour + minute/60
	minute %= 60

	local = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, p.loc)
	return local, local.UTC()
}

// parseTimeOfDay parses a string representing a 24-hour time, hh:mm.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	split := strings.Split(s, ":")
	if len(split) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day: %s", s)
	}
	hour, err = strconv.Atoi(split[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in time of day: %s", s)
	}
	minute, err = strconv.Atoi(split[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in time of day: %s", s)
	}
	return hour, minute, nil
}

// fixedZone returns a time.Location corresponding to a timezone offset
// in hours, such as +10.5. No daylight saving rules apply.
func fixedZone(tz float64) *time.Location {
	return time.FixedZone(formatOffset(tz), int(tz*3600))
}

// formatOffset returns a string naming a timezone offset, tz.
func formatOffset(tz float64) string {
	if tz == 0 {
		return "Z"
	} else if float64(int(tz)) == tz {
		return fmt.Sprintf("%+d", int(tz))
	} else {
		return fmt.Sprintf("%+.1f", tz)
	}
}
