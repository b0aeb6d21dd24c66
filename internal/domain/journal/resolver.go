package journal

import (
	"fmt"
	"time"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ceremonyKeys are subjects that stand for the flag ceremony, not taught content.
var ceremonyKeys = map[shared.SubjectKey]bool{
	"upacara":         true,
	"upacara bendera": true,
}

// Resolver turns one date plus read-only inputs into a DayResolution.
// It keeps no state between calls, so resolving a date twice gives the same result.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve produces the journal of date d.
//
// Precedence: Sunday, then the calendar event of the day (the timetable is
// not read at all), then the timetable grouped into runs with curriculum content.
// An error is returned only for timetable data that cannot be ordered.
func (r *Resolver) Resolve(d timeutil.Date, in Inputs) (DayResolution, error) {
	res := DayResolution{
		Date:        d,
		WeekdayName: timeutil.WeekdayNameID(d.Weekday()),
		Entries:     []Entry{},
	}

	if d.Weekday() == time.Sunday {
		res.IsNonInstructional = true
		res.Reason = ReasonSunday
		return res, nil
	}

	if ev, ok := in.Calendar.Lookup(d); ok {
		res.Entries = []Entry{{
			Sequence:    1,
			PeriodRange: Dash,
			SubjectName: Dash,
			Objective:   Dash,
			Material:    Dash,
			Note:        ev.Description,
		}}
		res.Detail = ev.Description
		if ev.Type == calendar.EventHoliday {
			res.IsNonInstructional = true
			res.Reason = ReasonHoliday
		} else {
			res.Reason = ReasonEvent
		}
		return res, nil
	}

	periods, err := in.Timetable.DayPeriods(d.Weekday())
	if err != nil {
		return res, shared.WrapError("journal", "Resolve", shared.ErrInvalidState,
			fmt.Sprintf("timetable for %s", res.WeekdayName), err)
	}

	runs := groupRuns(periods)
	if len(runs) == 0 {
		res.IsNonInstructional = true
		res.Reason = ReasonNoSchedule
		return res, nil
	}

	pos := calendar.Locate(d)
	for i, run := range runs {
		entry := Entry{
			Sequence:    i + 1,
			PeriodRange: run.periodRange(),
			TimeRange:   timetable.JoinTimeRanges(run.first.TimeRange, run.last.TimeRange),
			SubjectName: run.first.Subject,
		}
		r.fillContent(&entry, d, pos, in)
		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

// fillContent resolves objective/material/note of one run.
func (r *Resolver) fillContent(entry *Entry, d timeutil.Date, pos calendar.Position, in Inputs) {
	key := shared.NewSubjectKey(entry.SubjectName)

	switch {
	case ceremonyKeys[key]:
		entry.Objective = Dash
		entry.Material = Dash
	case !in.Toggles.Enabled(key):
		entry.Objective = Dash
		entry.Material = Dash
		entry.Note = NoteFilledByTeacher
	default:
		m := in.Plan(pos.Semester).Lookup(key, d, pos)
		if !m.Found() {
			// Left empty on purpose: the renderer shows PlaceholderUnplanned.
			return
		}
		entry.Objective = m.Row.Objective
		entry.Material = m.Row.Material
		entry.Ambiguous = m.Ambiguous
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RUN GROUPING
// ══════════════════════════════════════════════════════════════════════════════

type run struct {
	first timetable.Period
	last  timetable.Period
}

func (r run) periodRange() string {
	if r.first.Number == r.last.Number {
		return fmt.Sprintf("%d", r.first.Number)
	}
	return fmt.Sprintf("%d-%d", r.first.Number, r.last.Number)
}

// groupRuns collapses consecutive same-subject lesson periods. A break, an empty
// cell or a gap in period numbers ends the current run, so repeats of a subject
// later in the day become separate runs.
func groupRuns(periods []timetable.Period) []run {
	var (
		runs    []run
		current *run
	)

	for _, p := range periods {
		if !p.IsLesson() {
			current = nil
			continue
		}
		if current != nil &&
			p.Number == current.last.Number+1 &&
			shared.NewSubjectKey(p.Subject) == shared.NewSubjectKey(current.last.Subject) {
			current.last = p
			continue
		}
		runs = append(runs, run{first: p, last: p})
		current = &runs[len(runs)-1]
	}

	return runs
}
