package schedule

import (
	"fmt"
	"time"
)

// CalendarDate is a calendar day with no time component. All dates are
// interpreted in UTC.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) CalendarDate {
	u := t.UTC()
	return CalendarDate{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// Midnight returns the date at 00:00 UTC.
func (d CalendarDate) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At combines the date with a time of day into a UTC instant.
func (d CalendarDate) At(t TimeOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n calendar days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Midnight().AddDate(0, 0, n))
}

// Weekday reports the day of the week.
func (d CalendarDate) Weekday() time.Weekday {
	return d.Midnight().Weekday()
}

// Before reports whether d falls strictly before other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the date as an ISO 8601 day, e.g. "2026-02-23".
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Format renders the date the way it is read back to the user,
// e.g. "Monday, February 23, 2026".
func (d CalendarDate) Format() string {
	return d.Midnight().Format("Monday, January 2, 2006")
}
