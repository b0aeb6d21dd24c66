package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// 2025-07-14 is a Monday in month 1, week 2 of semester Ganjil 2025/2026.
var monday = timeutil.NewDate(2025, time.July, 14)

func slot(n int, timeRange string, subjects map[time.Weekday]string) timetable.Slot {
	return timetable.Slot{PeriodNumber: n, TimeRange: timeRange, SubjectByWeekday: subjects}
}

func mondayOnly(subject string) map[time.Weekday]string {
	return map[time.Weekday]string{time.Monday: subject}
}

func newInputs(tt timetable.Weekly, events []calendar.Event, plans map[calendar.Semester]*curriculum.Plan) Inputs {
	return Inputs{
		Year:       calendar.AcademicYear{StartYear: 2025},
		Timetable:  tt,
		Calendar:   calendar.NewIndex(events),
		Curriculum: plans,
		Toggles:    AllEnabled(),
	}
}

func TestResolveSplitsNonConsecutiveRuns(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "07:00-07:40", mondayOnly("Matematika")),
		slot(2, "07:40-08:20", mondayOnly("Matematika")),
		slot(3, "08:20-08:40", mondayOnly("break")),
		slot(4, "08:40-09:20", mondayOnly("Matematika")),
		slot(5, "09:20-10:00", mondayOnly("Matematika")),
	}}

	res, err := NewResolver().Resolve(monday, newInputs(tt, nil, nil))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	assert.Equal(t, "1-2", res.Entries[0].PeriodRange)
	assert.Equal(t, "07:00-08:20", res.Entries[0].TimeRange)
	assert.Equal(t, "4-5", res.Entries[1].PeriodRange)
	assert.Equal(t, 1, res.Entries[0].Sequence)
	assert.Equal(t, 2, res.Entries[1].Sequence)
	assert.False(t, res.IsNonInstructional)
	assert.Equal(t, "Senin", res.WeekdayName)
}

func TestResolveHolidayPlaceholder(t *testing.T) {
	christmas := timeutil.NewDate(2025, time.December, 25) // Thursday
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "07:00-07:40", map[time.Weekday]string{time.Thursday: "IPA"}),
	}}
	events := []calendar.Event{{Date: christmas, Type: calendar.EventHoliday, Description: "Hari Raya Natal"}}

	res, err := NewResolver().Resolve(christmas, newInputs(tt, events, nil))
	require.NoError(t, err)

	assert.True(t, res.IsNonInstructional)
	assert.Equal(t, ReasonHoliday, res.Reason)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, Dash, e.PeriodRange)
	assert.Equal(t, Dash, e.SubjectName)
	assert.Equal(t, Dash, e.Objective)
	assert.Equal(t, Dash, e.Material)
	assert.Equal(t, "Hari Raya Natal", e.Note)
}

func TestResolveEventDoesNotReadTimetable(t *testing.T) {
	// Duplicate periods would make DayPeriods fail if the timetable were consulted.
	broken := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "", mondayOnly("IPA")),
		slot(1, "", mondayOnly("IPS")),
	}}
	events := []calendar.Event{{Date: monday, Type: calendar.EventSchool, Description: "Class meeting"}}

	res, err := NewResolver().Resolve(monday, newInputs(broken, events, nil))
	require.NoError(t, err)
	assert.False(t, res.IsNonInstructional)
	assert.Equal(t, ReasonEvent, res.Reason)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Class meeting", res.Entries[0].Note)

	_, err = NewResolver().Resolve(monday, newInputs(broken, nil, nil))
	assert.Error(t, err)
}

func TestResolveCurriculumWeekBucket(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "07:00-07:40", mondayOnly("Bahasa Indonesia")),
	}}
	plan := curriculum.NewPlan()
	plan.Set(shared.NewSubjectKey("Bahasa Indonesia"), []curriculum.Row{
		{Buckets: []curriculum.WeekBucket{{Month: 1, Week: 2}}, Objective: "O1", Material: "Teks deskripsi"},
	})

	res, err := NewResolver().Resolve(monday, newInputs(tt, nil, map[calendar.Semester]*curriculum.Plan{
		calendar.SemesterGanjil: plan,
	}))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "O1", res.Entries[0].Objective)
	assert.Equal(t, "Teks deskripsi", res.Entries[0].Material)
	assert.False(t, res.Entries[0].IsUnplanned())
}

func TestResolvePinpointBeatsWeekBucket(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{slot(1, "", mondayOnly("IPA"))}}
	d := monday
	plan := curriculum.NewPlan()
	plan.Set("ipa", []curriculum.Row{
		{Buckets: []curriculum.WeekBucket{{Month: 1, Week: 2}}, Objective: "weekly"},
		{DateOverride: &d, Objective: "pinned"},
	})

	res, err := NewResolver().Resolve(monday, newInputs(tt, nil, map[calendar.Semester]*curriculum.Plan{
		calendar.SemesterGanjil: plan,
	}))
	require.NoError(t, err)
	assert.Equal(t, "pinned", res.Entries[0].Objective)
}

func TestResolveCeremonyAndToggles(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "", mondayOnly("Upacara Bendera")),
		slot(2, "", mondayOnly("PJOK")),
		slot(3, "", mondayOnly("Seni Budaya")),
	}}
	plan := curriculum.NewPlan()
	plan.Set("pjok", []curriculum.Row{{Buckets: []curriculum.WeekBucket{{Month: 1, Week: 2}}, Objective: "lari"}})

	in := newInputs(tt, nil, map[calendar.Semester]*curriculum.Plan{calendar.SemesterGanjil: plan})
	in.Toggles = NewToggles("pjok")

	res, err := NewResolver().Resolve(monday, in)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	ceremony := res.Entries[0]
	assert.Equal(t, Dash, ceremony.Objective)
	assert.Equal(t, Dash, ceremony.Material)
	assert.Empty(t, ceremony.Note)

	manual := res.Entries[1]
	assert.Equal(t, Dash, manual.Objective)
	assert.Equal(t, NoteFilledByTeacher, manual.Note)

	unplanned := res.Entries[2]
	assert.Empty(t, unplanned.Objective)
	assert.Empty(t, unplanned.Material)
	assert.True(t, unplanned.IsUnplanned())
	assert.Equal(t, PlaceholderUnplanned, unplanned.DisplayObjective())
	assert.Equal(t, PlaceholderUnplanned, unplanned.DisplayMaterial())
	assert.Equal(t, Dash, ceremony.DisplayMaterial())
	assert.Equal(t, 1, res.UnplannedCount())
}

func TestEntryJSONCarriesPrintedCells(t *testing.T) {
	data, err := json.Marshal(Entry{Sequence: 1, PeriodRange: "1-2", SubjectName: "IPA", Material: "Wujud zat"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "", got["objective"])
	assert.Equal(t, PlaceholderUnplanned, got["display_objective"])
	assert.Equal(t, "Wujud zat", got["display_material"])
	assert.Equal(t, "1-2", got["period_range"])

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Wujud zat", back.Material)
	assert.Empty(t, back.Objective)
}

func TestResolveSunday(t *testing.T) {
	sunday := monday.AddDays(-1)
	tt := timetable.Weekly{Slots: []timetable.Slot{slot(1, "", map[time.Weekday]string{time.Sunday: "IPA"})}}
	events := []calendar.Event{{Date: sunday, Type: calendar.EventSchool, Description: "Lomba"}}

	res, err := NewResolver().Resolve(sunday, newInputs(tt, events, nil))
	require.NoError(t, err)
	assert.True(t, res.IsNonInstructional)
	assert.Equal(t, ReasonSunday, res.Reason)
	assert.Empty(t, res.Entries)
}

func TestResolveNoSchedule(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "", map[time.Weekday]string{time.Monday: "istirahat", time.Tuesday: "IPA"}),
	}}

	res, err := NewResolver().Resolve(monday, newInputs(tt, nil, nil))
	require.NoError(t, err)
	assert.True(t, res.IsNonInstructional)
	assert.Equal(t, ReasonNoSchedule, res.Reason)
	assert.Empty(t, res.Entries)
	assert.False(t, res.HasEntries())
}

func TestResolveGapInPeriodsSplitsRun(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "", mondayOnly("IPS")),
		slot(3, "", mondayOnly("ips")),
	}}

	res, err := NewResolver().Resolve(monday, newInputs(tt, nil, nil))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "1", res.Entries[0].PeriodRange)
	assert.Equal(t, "3", res.Entries[1].PeriodRange)
}

func TestResolveIsIdempotent(t *testing.T) {
	tt := timetable.Weekly{Slots: []timetable.Slot{
		slot(1, "07:00-07:40", mondayOnly("IPA")),
		slot(2, "07:40-08:20", mondayOnly("IPA")),
		slot(3, "08:20-09:00", mondayOnly("IPS")),
	}}
	plan := curriculum.NewPlan()
	plan.Set("ipa", []curriculum.Row{
		{Buckets: []curriculum.WeekBucket{{Month: 1, Week: 2}}, Objective: "a"},
		{Buckets: []curriculum.WeekBucket{{Month: 1, Week: 2}}, Objective: "b"},
	})
	in := newInputs(tt, nil, map[calendar.Semester]*curriculum.Plan{calendar.SemesterGanjil: plan})

	r := NewResolver()
	first, err := r.Resolve(monday, in)
	require.NoError(t, err)
	second, err := r.Resolve(monday, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Entries[0].Ambiguous)
	assert.Equal(t, "a", first.Entries[0].Objective)
}

func TestTogglesImmutable(t *testing.T) {
	base := NewToggles("ipa")
	more := base.Disable("ips")

	assert.False(t, base.Enabled("ipa"))
	assert.True(t, base.Enabled("ips"))
	assert.False(t, more.Enabled("ips"))
	assert.Equal(t, []shared.SubjectKey{"ipa", "ips"}, more.Disabled())
	assert.True(t, AllEnabled().Enabled("anything"))
}

func TestSnapshotInputsFor(t *testing.T) {
	brk := timeutil.NewDate(2025, time.December, 22)
	snap := NewSnapshot(Inputs{
		Year:     calendar.AcademicYear{StartYear: 2025},
		Calendar: calendar.NewIndex([]calendar.Event{{Date: brk, Type: calendar.EventHoliday, Description: "Libur Semester Ganjil"}}),
	})

	_, ok := snap.InputsFor(timeutil.NewDate(2026, time.June, 1))
	assert.True(t, ok)
	_, ok = snap.InputsFor(timeutil.NewDate(2026, time.July, 1))
	assert.False(t, ok)

	assert.True(t, snap.IsSemesterBreak(brk))
	assert.False(t, snap.IsSemesterBreak(timeutil.NewDate(2027, time.January, 1)))
	assert.Equal(t, []calendar.AcademicYear{{StartYear: 2025}}, snap.Years())
}
