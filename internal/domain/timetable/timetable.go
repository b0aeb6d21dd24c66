// Package timetable adapts the weekly class timetable into ordered per-weekday periods.
package timetable

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guruku/jurnal/internal/domain/shared"
)

// breakMarkers are cell values that mark a non-teaching period.
var breakMarkers = map[string]bool{
	"break":     true,
	"istirahat": true,
}

// IsBreakCell reports whether a timetable cell marks a break.
func IsBreakCell(subject string) bool {
	return breakMarkers[strings.ToLower(strings.TrimSpace(subject))]
}

// Slot is one row of the timetable: a period number, its clock range and
// the subject taught in it on each weekday.
type Slot struct {
	PeriodNumber     int                     `json:"period_number" yaml:"period"`
	TimeRange        string                  `json:"time_range" yaml:"time"`
	SubjectByWeekday map[time.Weekday]string `json:"subject_by_weekday" yaml:"-"`
}

// Period is the view of one slot on one weekday.
type Period struct {
	Number    int
	TimeRange string
	Subject   string
}

// IsBreak reports whether the period is a break.
func (p Period) IsBreak() bool {
	return IsBreakCell(p.Subject)
}

// IsEmpty reports whether nothing is scheduled in the period.
func (p Period) IsEmpty() bool {
	return strings.TrimSpace(p.Subject) == ""
}

// IsLesson reports whether the period carries a teachable subject.
func (p Period) IsLesson() bool {
	return !p.IsEmpty() && !p.IsBreak()
}

// Weekly is the timetable of one class for one academic year.
type Weekly struct {
	Slots []Slot `json:"slots"`
}

// DayPeriods returns the periods scheduled on a weekday ordered by period number.
// Break and empty cells are included so callers can see where runs are interrupted.
// Duplicate period numbers make the day ambiguous and are reported as an error.
func (w Weekly) DayPeriods(day time.Weekday) ([]Period, error) {
	periods := make([]Period, 0, len(w.Slots))
	seen := make(map[int]bool, len(w.Slots))

	for _, s := range w.Slots {
		if s.PeriodNumber <= 0 {
			return nil, shared.WrapError("timetable", "DayPeriods", shared.ErrValueOutOfRange,
				fmt.Sprintf("period %d", s.PeriodNumber), shared.ErrInvalidPeriod)
		}
		if seen[s.PeriodNumber] {
			return nil, shared.WrapError("timetable", "DayPeriods", shared.ErrInvalidState,
				fmt.Sprintf("period %d defined twice", s.PeriodNumber), shared.ErrInvalidTimetable)
		}
		seen[s.PeriodNumber] = true

		periods = append(periods, Period{
			Number:    s.PeriodNumber,
			TimeRange: strings.TrimSpace(s.TimeRange),
			Subject:   strings.TrimSpace(s.SubjectByWeekday[day]),
		})
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Number < periods[j].Number
	})
	return periods, nil
}

// Subjects returns every distinct teachable subject in the week, keyed by subject key,
// keeping the first display spelling seen (in period order, Monday first).
func (w Weekly) Subjects() map[shared.SubjectKey]string {
	out := make(map[shared.SubjectKey]string)
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		periods, err := w.DayPeriods(day)
		if err != nil {
			continue
		}
		for _, p := range periods {
			if !p.IsLesson() {
				continue
			}
			key := shared.NewSubjectKey(p.Subject)
			if _, ok := out[key]; !ok {
				out[key] = p.Subject
			}
		}
	}
	return out
}

// IsEmpty reports whether the timetable has no slots at all.
func (w Weekly) IsEmpty() bool {
	return len(w.Slots) == 0
}

// JoinTimeRanges spans two "HH:MM-HH:MM" ranges: start of first to end of last.
// When either side is not a range the first value is returned unchanged.
func JoinTimeRanges(first, last string) string {
	if first == last {
		return first
	}
	fs := strings.SplitN(first, "-", 2)
	ls := strings.SplitN(last, "-", 2)
	if len(fs) != 2 || len(ls) != 2 {
		return first
	}
	return strings.TrimSpace(fs[0]) + "-" + strings.TrimSpace(ls[1])
}
