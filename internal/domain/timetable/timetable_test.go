package timetable

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruku/jurnal/internal/domain/shared"
)

func TestDayPeriodsOrdered(t *testing.T) {
	w := Weekly{Slots: []Slot{
		{PeriodNumber: 3, TimeRange: "08:20-08:40", SubjectByWeekday: map[time.Weekday]string{time.Monday: "Istirahat"}},
		{PeriodNumber: 1, TimeRange: "07:00-07:40", SubjectByWeekday: map[time.Weekday]string{time.Monday: " Matematika "}},
		{PeriodNumber: 2, TimeRange: "07:40-08:20", SubjectByWeekday: map[time.Weekday]string{time.Monday: "Matematika"}},
	}}

	periods, err := w.DayPeriods(time.Monday)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{periods[0].Number, periods[1].Number, periods[2].Number})
	assert.Equal(t, "Matematika", periods[0].Subject)
	assert.True(t, periods[2].IsBreak())
	assert.False(t, periods[2].IsLesson())

	tuesday, err := w.DayPeriods(time.Tuesday)
	require.NoError(t, err)
	for _, p := range tuesday {
		assert.True(t, p.IsEmpty())
	}
}

func TestDayPeriodsRejectsDuplicates(t *testing.T) {
	w := Weekly{Slots: []Slot{{PeriodNumber: 1}, {PeriodNumber: 1}}}

	_, err := w.DayPeriods(time.Monday)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestSubjects(t *testing.T) {
	w := Weekly{Slots: []Slot{
		{PeriodNumber: 1, SubjectByWeekday: map[time.Weekday]string{time.Monday: "Bahasa Indonesia", time.Tuesday: "IPA"}},
		{PeriodNumber: 2, SubjectByWeekday: map[time.Weekday]string{time.Monday: "break", time.Tuesday: "bahasa  indonesia"}},
	}}

	subjects := w.Subjects()
	assert.Len(t, subjects, 2)
	assert.Equal(t, "Bahasa Indonesia", subjects[shared.NewSubjectKey("BAHASA INDONESIA")])
	assert.Equal(t, "IPA", subjects["ipa"])
}

func TestJoinTimeRanges(t *testing.T) {
	assert.Equal(t, "07:00-08:20", JoinTimeRanges("07:00-07:40", "07:40-08:20"))
	assert.Equal(t, "07:00-07:40", JoinTimeRanges("07:00-07:40", "07:00-07:40"))
	assert.Equal(t, "pagi", JoinTimeRanges("pagi", "07:40-08:20"))
}
