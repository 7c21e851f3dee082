package utils

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing user-supplied dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// ParseCalendarDate parses a user-supplied date and truncates it to a UTC
// calendar day. Times carried by RFC3339 values are dropped after the date
// is read in their own offset.
func ParseCalendarDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return CalendarDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unrecognised layout", value)
}

// CalendarDay returns midnight UTC of t's calendar date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the whole days from start to end; negative when end is
// earlier. Works across the full time.Time range, where Sub would saturate.
func DaysBetween(start, end time.Time) int {
	return int((CalendarDay(end).Unix() - CalendarDay(start).Unix()) / secondsPerDay)
}

// FullYearsBetween counts anniversaries of start reached on or before end.
// A Feb 29 start reaches its anniversary on Mar 1 in common years. Returns 0
// when end precedes start.
func FullYearsBetween(start, end time.Time) int {
	start, end = CalendarDay(start), CalendarDay(end)
	if end.Before(start) {
		return 0
	}
	years := end.Year() - start.Year()
	if years > 0 && AddYears(start, years).After(end) {
		years--
	}
	return years
}

// AverageYearsBetween floors the elapsed days divided by 365.25. Returns 0
// when end precedes start.
func AverageYearsBetween(start, end time.Time) int {
	days := DaysBetween(start, end)
	if days <= 0 {
		return 0
	}
	return int(float64(days) / 365.25)
}

// AddYears moves t forward by n calendar years, rolling Feb 29 to Mar 1 in
// common years.
func AddYears(t time.Time, n int) time.Time {
	return time.Date(t.Year()+n, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
