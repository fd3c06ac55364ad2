// Package dates provides the spreadsheet month-offset functions EDATE and EOMONTH.
//
// All results are calendar dates at midnight UTC. Month lengths follow the
// Gregorian calendar, so shifting into February of a leap year yields day 29.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the date format accepted and printed by the CLI.
const Layout = "2006-01-02"

// ErrInvalidOffset is returned when a month offset is not a whole number.
var ErrInvalidOffset = errors.New("invalid month offset")

// ErrInvalidDate is returned when a date string is not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date")

// EDate returns base shifted by months, keeping the day of month. When the day
// does not exist in the target month it is clamped to that month's last day:
// EDate(2021-01-31, 1) is 2021-02-28.
func EDate(base time.Time, months int) time.Time {
	year, month := shiftMonth(base.Year(), base.Month(), months)
	day := base.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EOMonth returns the last day of the month reached by shifting base by months.
// The day of month of base is ignored.
func EOMonth(base time.Time, months int) time.Time {
	year, month := shiftMonth(base.Year(), base.Month(), months)
	return time.Date(year, month, DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Truncate drops the time-of-day and location of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func shiftMonth(year int, month time.Month, months int) (int, time.Month) {
	idx := year*12 + int(month) - 1 + months
	y := idx / 12
	m := idx % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q — expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseOffset parses a whole-number month offset such as "3" or "-12".
// Fractional or non-numeric values are rejected.
func ParseOffset(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w %q — months must be a whole number", ErrInvalidOffset, s)
	}
	return n, nil
}
