package yamlsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/timeutil"
)

const sampleWorkbook = `
years:
  - academic_year: "2025/2026"
    calendar:
      - {date: "2025-12-25", type: libur, description: Hari Raya Natal}
      - {date: "2025-08-15", type: kegiatan, description: " Lomba 17an "}
    classes:
      VII A:
        timetable:
          - period: 1
            time: "07:00-07:40"
            days: {senin: Upacara, selasa: IPA}
          - period: 2
            time: "07:40-08:20"
            days: {senin: Bahasa Indonesia, selasa: IPA}
        manual_subjects: [PJOK, " "]
        curriculum:
          ganjil:
            Bahasa Indonesia:
              - objective: O1
                material: Teks deskripsi
                buckets: [{month: 1, week: 2}]
              - objective: O2
                date: "2025-07-21"
      VIII B:
        timetable: []
`

func TestParseWorkbook(t *testing.T) {
	wb, err := Parse([]byte(sampleWorkbook))
	require.NoError(t, err)

	y, ok := wb.Year(calendar.AcademicYear{StartYear: 2025})
	require.True(t, ok)
	require.Len(t, y.Events, 2)
	assert.Equal(t, calendar.EventHoliday, y.Events[0].Type)
	assert.Equal(t, "Lomba 17an", y.Events[1].Description)

	class := y.Classes["VII A"]
	require.Len(t, class.Timetable.Slots, 2)
	assert.Equal(t, "Upacara", class.Timetable.Slots[0].SubjectByWeekday[time.Monday])
	assert.Equal(t, []shared.SubjectKey{"pjok"}, class.Disabled)

	rows := class.Curriculum[calendar.SemesterGanjil]["bahasa indonesia"]
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Buckets[0].Week)
	require.NotNil(t, rows[1].DateOverride)
	assert.Equal(t, timeutil.NewDate(2025, time.July, 21), *rows[1].DateOverride)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", `years: []`},
		{"bad year", "years:\n  - academic_year: \"2025/2027\"\n"},
		{"bad event type", "years:\n  - academic_year: \"2025/2026\"\n    calendar:\n      - {date: \"2025-08-01\", type: rapat}\n"},
		{"bad weekday", "years:\n  - academic_year: \"2025/2026\"\n    classes:\n      X:\n        timetable:\n          - {period: 1, days: {ahad: IPA}}\n"},
		{"weekday alias twice", "years:\n  - academic_year: \"2025/2026\"\n    classes:\n      X:\n        timetable:\n          - {period: 1, days: {senin: IPA, monday: IPS}}\n"},
		{"zero period", "years:\n  - academic_year: \"2025/2026\"\n    classes:\n      X:\n        timetable:\n          - {period: 0, days: {senin: IPA}}\n"},
		{"bucket out of grid", "years:\n  - academic_year: \"2025/2026\"\n    classes:\n      X:\n        curriculum:\n          ganjil:\n            IPA:\n              - {objective: a, buckets: [{month: 7, week: 1}]}\n"},
		{"duplicate year", "years:\n  - academic_year: \"2025/2026\"\n  - academic_year: \"2025/2026\"\n"},
		{"not yaml", "years: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsWeekdayAliasPair(t *testing.T) {
	doc := "years:\n  - academic_year: \"2025/2026\"\n    classes:\n      X:\n        timetable:\n          - {period: 2, days: {Kamis: IPA, thursday: IPS}}\n"

	// Map iteration order varies; the outcome must not.
	for i := 0; i < 20; i++ {
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "Kamis given twice in period 2")
	}
}

func TestSourceReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jurnal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkbook), 0o600))

	src, err := Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	ay := calendar.AcademicYear{StartYear: 2025}

	events, err := src.GetCalendarEvents(ctx, ay)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, timeutil.NewDate(2025, time.August, 15), events[0].Date)

	tt, err := src.GetWeeklyTimetable(ctx, ay, "IX C")
	require.NoError(t, err)
	assert.True(t, tt.IsEmpty())

	rows, err := src.GetCurriculumPlan(ctx, ay, "VII A", "bahasa indonesia", calendar.SemesterGanjil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	rows[0].Objective = "changed"
	again, err := src.GetCurriculumPlan(ctx, ay, "VII A", "bahasa indonesia", calendar.SemesterGanjil)
	require.NoError(t, err)
	assert.Equal(t, "O1", again[0].Objective)

	disabled, err := src.GetDisabledSubjects(ctx, ay, "VII A")
	require.NoError(t, err)
	assert.Equal(t, []shared.SubjectKey{"pjok"}, disabled)

	_, err = src.GetCalendarEvents(ctx, calendar.AcademicYear{StartYear: 2030})
	assert.True(t, shared.IsNotFound(err))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportSets(t *testing.T) {
	wb, err := Parse([]byte(sampleWorkbook))
	require.NoError(t, err)

	sets := wb.ImportSets()
	require.Len(t, sets, 2)
	assert.Equal(t, shared.ClassName("VII A"), sets[0].Class)
	assert.Equal(t, shared.ClassName("VIII B"), sets[1].Class)
	assert.Len(t, sets[1].Events, 2)
}
