package journal

import (
	"sort"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// Inputs is everything needed to resolve the dates of one academic year for one class.
// Values are read only; the resolver never mutates them.
type Inputs struct {
	Year       calendar.AcademicYear
	Timetable  timetable.Weekly
	Calendar   *calendar.Index
	Curriculum map[calendar.Semester]*curriculum.Plan
	Toggles    Toggles
}

// Plan returns the curriculum plan of a semester (nil when none was loaded).
func (in Inputs) Plan(s calendar.Semester) *curriculum.Plan {
	return in.Curriculum[s]
}

// Snapshot groups the loaded inputs of every academic year a request touches.
type Snapshot struct {
	years map[int]Inputs
}

// NewSnapshot creates a snapshot. A later Inputs for the same year replaces an earlier one.
func NewSnapshot(inputs ...Inputs) *Snapshot {
	s := &Snapshot{years: make(map[int]Inputs, len(inputs))}
	for _, in := range inputs {
		s.years[in.Year.StartYear] = in
	}
	return s
}

// InputsFor returns the inputs of the academic year containing d.
func (s *Snapshot) InputsFor(d timeutil.Date) (Inputs, bool) {
	if s == nil {
		return Inputs{}, false
	}
	in, ok := s.years[calendar.AcademicYearOf(d).StartYear]
	return in, ok
}

// IsSemesterBreak reports whether d is marked as a semester break in its year's calendar.
func (s *Snapshot) IsSemesterBreak(d timeutil.Date) bool {
	in, ok := s.InputsFor(d)
	if !ok {
		return false
	}
	return in.Calendar.IsSemesterBreak(d)
}

// Years returns the loaded academic years.
func (s *Snapshot) Years() []calendar.AcademicYear {
	out := make([]calendar.AcademicYear, 0, len(s.years))
	for _, in := range s.years {
		out = append(out, in.Year)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartYear < out[j].StartYear })
	return out
}
