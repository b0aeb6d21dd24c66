package calendar

import (
	"time"

	"github.com/guruku/jurnal/pkg/timeutil"
)

// MaxWeekIndex is the highest week-of-month bucket. Days 29–31 fold into week 5.
const MaxWeekIndex = 5

// MonthsPerSemester is the number of month buckets in a semester.
const MonthsPerSemester = 6

// Position locates a date inside the semester curriculum grid.
type Position struct {
	Semester   Semester
	MonthIndex int // 1..6, first month of the semester = 1
	WeekIndex  int // 1..5
}

// SemesterOf derives the semester purely from the month of d.
func SemesterOf(d timeutil.Date) Semester {
	if d.Month >= time.July {
		return SemesterGanjil
	}
	return SemesterGenap
}

// Locate maps a date to its (semester, month index, week index) coordinate.
// It is total: the semester follows from the month alone, so a date outside the
// selected academic year still lands inside the grid.
func Locate(d timeutil.Date) Position {
	sem := SemesterOf(d)

	monthIndex := int(d.Month) - int(sem.FirstMonth()) + 1
	if monthIndex < 1 {
		monthIndex = 1
	}
	if monthIndex > MonthsPerSemester {
		monthIndex = MonthsPerSemester
	}

	return Position{
		Semester:   sem,
		MonthIndex: monthIndex,
		WeekIndex:  WeekOfMonth(d.Day),
	}
}

// WeekOfMonth returns ceil(day/7) clamped to [1, MaxWeekIndex].
func WeekOfMonth(day int) int {
	w := (day + 6) / 7
	if w < 1 {
		return 1
	}
	if w > MaxWeekIndex {
		return MaxWeekIndex
	}
	return w
}
