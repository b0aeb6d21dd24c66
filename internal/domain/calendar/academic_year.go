// Package calendar contains the academic calendar model: academic years,
// semesters, the semester clock and the holiday/event index.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER
// ══════════════════════════════════════════════════════════════════════════════

// Semester is the odd (Ganjil, Jul–Dec) or even (Genap, Jan–Jun) half of an academic year.
type Semester string

const (
	SemesterGanjil Semester = "ganjil"
	SemesterGenap  Semester = "genap"
)

// IsValid checks that the semester is known.
func (s Semester) IsValid() bool {
	return s == SemesterGanjil || s == SemesterGenap
}

// Label returns the printed name.
func (s Semester) Label() string {
	switch s {
	case SemesterGanjil:
		return "Ganjil"
	case SemesterGenap:
		return "Genap"
	default:
		return ""
	}
}

// FirstMonth returns the calendar month that is month index 1 of the semester.
func (s Semester) FirstMonth() time.Month {
	if s == SemesterGanjil {
		return time.July
	}
	return time.January
}

// ParseSemester accepts "ganjil"/"genap" as well as "odd"/"even" and "1"/"2".
func ParseSemester(value string) (Semester, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ganjil", "odd", "1":
		return SemesterGanjil, true
	case "genap", "even", "2":
		return SemesterGenap, true
	default:
		return "", false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC YEAR
// ══════════════════════════════════════════════════════════════════════════════

// AcademicYear is identified by its start year; the label is "YYYY/YYYY+1".
type AcademicYear struct {
	StartYear int
}

// ParseAcademicYear parses "2025/2026". The end year must be start+1.
func ParseAcademicYear(label string) (AcademicYear, error) {
	parts := strings.Split(strings.TrimSpace(label), "/")
	if len(parts) != 2 {
		return AcademicYear{}, shared.WrapError("calendar", "ParseAcademicYear", shared.ErrInvalidFormat,
			fmt.Sprintf("bad academic year %q", label), shared.ErrInvalidAcademicYear)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || end != start+1 || start < 1900 {
		return AcademicYear{}, shared.WrapError("calendar", "ParseAcademicYear", shared.ErrInvalidFormat,
			fmt.Sprintf("bad academic year %q", label), shared.ErrInvalidAcademicYear)
	}
	return AcademicYear{StartYear: start}, nil
}

// AcademicYearOf returns the academic year a date falls into (July starts a new year).
func AcademicYearOf(d timeutil.Date) AcademicYear {
	if d.Month >= time.July {
		return AcademicYear{StartYear: d.Year}
	}
	return AcademicYear{StartYear: d.Year - 1}
}

// EndYear returns the calendar year of the Genap semester.
func (y AcademicYear) EndYear() int {
	return y.StartYear + 1
}

// Label returns "YYYY/YYYY+1".
func (y AcademicYear) Label() string {
	return fmt.Sprintf("%d/%d", y.StartYear, y.EndYear())
}

// String implements fmt.Stringer.
func (y AcademicYear) String() string {
	return y.Label()
}

// SemesterSpan returns the first and last date of the given semester of this year.
func (y AcademicYear) SemesterSpan(s Semester) (timeutil.Date, timeutil.Date) {
	if s == SemesterGanjil {
		return timeutil.NewDate(y.StartYear, time.July, 1), timeutil.NewDate(y.StartYear, time.December, 31)
	}
	return timeutil.NewDate(y.EndYear(), time.January, 1), timeutil.NewDate(y.EndYear(), time.June, 30)
}

// Contains reports whether d lies inside Jul 1 of the start year .. Jun 30 of the end year.
func (y AcademicYear) Contains(d timeutil.Date) bool {
	from, _ := y.SemesterSpan(SemesterGanjil)
	_, to := y.SemesterSpan(SemesterGenap)
	return d.InRange(from, to)
}
