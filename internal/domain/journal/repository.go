package journal

import (
	"context"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOURCE INTERFACE
// The journal only reads its inputs. They are owned by the timetable,
// curriculum and calendar editors; implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Source provides the inputs of journal resolution.
type Source interface {
	// GetWeeklyTimetable returns the class timetable of an academic year.
	// An unknown class yields an empty timetable, not an error.
	GetWeeklyTimetable(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) (timetable.Weekly, error)

	// GetCurriculumPlan returns the plan rows of one subject for one semester, in plan order.
	GetCurriculumPlan(ctx context.Context, year calendar.AcademicYear, class shared.ClassName, subject shared.SubjectKey, semester calendar.Semester) ([]curriculum.Row, error)

	// GetCalendarEvents returns every holiday/event of an academic year.
	GetCalendarEvents(ctx context.Context, year calendar.AcademicYear) ([]calendar.Event, error)

	// GetDisabledSubjects returns the subjects whose automation toggle is off.
	GetDisabledSubjects(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) ([]shared.SubjectKey, error)
}
