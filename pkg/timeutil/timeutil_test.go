package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want Date
	}{
		{"monday", NewDate(2025, time.July, 14), NewDate(2025, time.July, 14)},
		{"wednesday", NewDate(2025, time.July, 16), NewDate(2025, time.July, 14)},
		{"saturday", NewDate(2025, time.July, 19), NewDate(2025, time.July, 14)},
		{"sunday belongs to previous monday", NewDate(2025, time.July, 20), NewDate(2025, time.July, 14)},
		{"across month boundary", NewDate(2025, time.October, 1), NewDate(2025, time.September, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfWeek(tt.in))
		})
	}
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, NewDate(2024, time.February, 29), EndOfMonth(NewDate(2024, time.February, 10)))
	assert.Equal(t, NewDate(2025, time.February, 28), EndOfMonth(NewDate(2025, time.February, 1)))
	assert.Equal(t, NewDate(2025, time.December, 31), EndOfMonth(NewDate(2025, time.December, 31)))
}

func TestNewDateNormalizes(t *testing.T) {
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 2}, NewDate(2025, time.February, 30))
}

func TestDaysInRange(t *testing.T) {
	days := DaysInRange(NewDate(2025, time.December, 30), NewDate(2026, time.January, 2))
	require.Len(t, days, 4)
	assert.Equal(t, NewDate(2026, time.January, 1), days[2])

	assert.Empty(t, DaysInRange(NewDate(2025, time.January, 2), NewDate(2025, time.January, 1)))
}

func TestDateTextRoundTrip(t *testing.T) {
	d := NewDate(2025, time.December, 25)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-12-25"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)

	_, err = ParseDate("25/12/2025")
	assert.Error(t, err)
}

func TestZeroDateTextRoundTrip(t *testing.T) {
	var zero Date
	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))

	back := NewDate(2025, time.July, 14)
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, zero, back)

	var holder struct {
		Anchor Date `json:"anchor"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"anchor":""}`), &holder))
	assert.Equal(t, zero, holder.Anchor)
}

func TestWeekdayNames(t *testing.T) {
	assert.Equal(t, "Senin", WeekdayNameID(time.Monday))
	assert.Equal(t, "Minggu", WeekdayNameID(time.Sunday))

	w, ok := ParseWeekdayID(" Jumat ")
	require.True(t, ok)
	assert.Equal(t, time.Friday, w)

	_, ok = ParseWeekdayID("someday")
	assert.False(t, ok)
}
