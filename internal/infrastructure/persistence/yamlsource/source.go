package yamlsource

import (
	"context"
	"fmt"
	"sort"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/internal/infrastructure/persistence/postgres"
)

// Source implements journal.Source over a parsed workbook.
type Source struct {
	wb *Workbook
}

var _ journal.Source = (*Source)(nil)

// NewSource wraps a workbook.
func NewSource(wb *Workbook) *Source {
	return &Source{wb: wb}
}

// Open loads a workbook file and returns a source backed by it.
func Open(path string) (*Source, error) {
	wb, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSource(wb), nil
}

func (s *Source) year(ctx context.Context, op string, ay calendar.AcademicYear) (Year, error) {
	if err := ctx.Err(); err != nil {
		return Year{}, err
	}
	y, ok := s.wb.Year(ay)
	if !ok {
		return Year{}, shared.NewDomainError("yamlsource", op, shared.ErrNotFound,
			fmt.Sprintf("academic year %s not in workbook", ay))
	}
	return y, nil
}

// GetWeeklyTimetable returns the class timetable; an unknown class is empty.
func (s *Source) GetWeeklyTimetable(ctx context.Context, ay calendar.AcademicYear, class shared.ClassName) (timetable.Weekly, error) {
	y, err := s.year(ctx, "GetWeeklyTimetable", ay)
	if err != nil {
		return timetable.Weekly{}, err
	}
	return y.Classes[class].Timetable, nil
}

// GetCurriculumPlan returns a copy of the rows so callers cannot alter the workbook.
func (s *Source) GetCurriculumPlan(ctx context.Context, ay calendar.AcademicYear, class shared.ClassName, subject shared.SubjectKey, semester calendar.Semester) ([]curriculum.Row, error) {
	y, err := s.year(ctx, "GetCurriculumPlan", ay)
	if err != nil {
		return nil, err
	}
	rows := y.Classes[class].Curriculum[semester][subject]
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]curriculum.Row, len(rows))
	copy(out, rows)
	return out, nil
}

// GetCalendarEvents returns the events of an academic year in date order.
func (s *Source) GetCalendarEvents(ctx context.Context, ay calendar.AcademicYear) ([]calendar.Event, error) {
	y, err := s.year(ctx, "GetCalendarEvents", ay)
	if err != nil {
		return nil, err
	}
	out := make([]calendar.Event, len(y.Events))
	copy(out, y.Events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// GetDisabledSubjects returns the subjects listed under manual_subjects.
func (s *Source) GetDisabledSubjects(ctx context.Context, ay calendar.AcademicYear, class shared.ClassName) ([]shared.SubjectKey, error) {
	y, err := s.year(ctx, "GetDisabledSubjects", ay)
	if err != nil {
		return nil, err
	}
	return append([]shared.SubjectKey(nil), y.Classes[class].Disabled...), nil
}

// ImportSets flattens the workbook into one import set per class and year,
// ordered by year then class.
func (w *Workbook) ImportSets() []postgres.ImportSet {
	var sets []postgres.ImportSet
	for _, y := range w.Years() {
		names := make([]shared.ClassName, 0, len(y.Classes))
		for name := range y.Classes {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

		for _, name := range names {
			c := y.Classes[name]
			sets = append(sets, postgres.ImportSet{
				Year:       y.AcademicYear,
				Class:      name,
				Timetable:  c.Timetable,
				Curriculum: c.Curriculum,
				Events:     y.Events,
				Disabled:   c.Disabled,
			})
		}
	}
	return sets
}
