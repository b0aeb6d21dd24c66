// Package timeutil provides a timezone-less calendar date for journal computations.
// A Date never carries a location, so weekday and month arithmetic is identical
// on every machine regardless of TZ or locale settings.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Date is a civil calendar date (no time of day, no timezone).
// The zero value is not a valid date; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a normalized Date. Out-of-range days roll over the same way
// time.Date does (e.g. 2025-02-30 becomes 2025-03-02).
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in the given location (UTC if nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(time.Now().In(loc))
}

// Time returns midnight UTC of the date. Only used for arithmetic.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// InRange reports whether from <= d <= to.
func (d Date) InRange(from, to Date) bool {
	return !d.Before(from) && !to.Before(d)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler. The zero Date is empty.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text is the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FormatDate is the canonical date layout (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(FormatDate, value)
	if err != nil {
		return Date{}, fmt.Errorf("timeutil: invalid date %q: %w", value, err)
	}
	return FromTime(t), nil
}

// StartOfWeek returns the Monday of the week containing d.
// Sunday belongs to the week that started the previous Monday.
func StartOfWeek(d Date) Date {
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDays(-(weekday - 1))
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d Date) Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d Date) Date {
	return FromTime(StartOfMonth(d).Time().AddDate(0, 1, -1))
}

// DaysInRange returns every date from..to inclusive. Empty if to is before from.
func DaysInRange(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	days := make([]Date, 0, 31)
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// WeekdayNameID returns the Indonesian name for a weekday.
func WeekdayNameID(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "Senin"
	case time.Tuesday:
		return "Selasa"
	case time.Wednesday:
		return "Rabu"
	case time.Thursday:
		return "Kamis"
	case time.Friday:
		return "Jumat"
	case time.Saturday:
		return "Sabtu"
	case time.Sunday:
		return "Minggu"
	default:
		return ""
	}
}

// ParseWeekdayID maps an Indonesian or English weekday name to time.Weekday.
func ParseWeekdayID(name string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "senin", "monday":
		return time.Monday, true
	case "selasa", "tuesday":
		return time.Tuesday, true
	case "rabu", "wednesday":
		return time.Wednesday, true
	case "kamis", "thursday":
		return time.Thursday, true
	case "jumat", "jum'at", "friday":
		return time.Friday, true
	case "sabtu", "saturday":
		return time.Saturday, true
	case "minggu", "sunday":
		return time.Sunday, true
	default:
		return 0, false
	}
}

