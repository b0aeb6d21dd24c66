// Package report turns a requested range of dates into paginated journal blocks.
package report

import (
	"strings"
	"time"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODE
// ══════════════════════════════════════════════════════════════════════════════

// Mode selects how far a batch extends around its anchor date.
type Mode string

const (
	ModeDay      Mode = "day"
	ModeWeek     Mode = "week"
	ModeMonth    Mode = "month"
	ModeSemester Mode = "semester"
)

// AllModes lists the supported modes.
var AllModes = []Mode{ModeDay, ModeWeek, ModeMonth, ModeSemester}

// IsValid checks the mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDay, ModeWeek, ModeMonth, ModeSemester:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// ParseMode accepts the English identifiers and their Indonesian names.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "day", "hari", "harian":
		return ModeDay, true
	case "week", "minggu", "mingguan":
		return ModeWeek, true
	case "month", "bulan", "bulanan":
		return ModeMonth, true
	case "semester":
		return ModeSemester, true
	}
	return "", false
}

// Expand returns the candidate dates of a batch in ascending order.
// Sundays are never produced, in any mode.
func Expand(mode Mode, anchor timeutil.Date) []timeutil.Date {
	var from, to timeutil.Date

	switch mode {
	case ModeDay:
		from, to = anchor, anchor
	case ModeWeek:
		from = timeutil.StartOfWeek(anchor)
		to = from.AddDays(5)
	case ModeMonth:
		from, to = timeutil.StartOfMonth(anchor), timeutil.EndOfMonth(anchor)
	case ModeSemester:
		from, to = calendar.AcademicYearOf(anchor).SemesterSpan(calendar.SemesterOf(anchor))
	default:
		return nil
	}

	days := timeutil.DaysInRange(from, to)
	dates := days[:0]
	for _, d := range days {
		if d.Weekday() != time.Sunday {
			dates = append(dates, d)
		}
	}
	return dates
}
