// Package journal resolves the daily instructional journal (jurnal pembelajaran):
// which lessons happen on a date and what each one is planned to cover.
package journal

import (
	"encoding/json"

	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Reason explains why a day carries no regular lessons.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonSunday     Reason = "sunday"
	ReasonHoliday    Reason = "holiday"
	ReasonEvent      Reason = "event"
	ReasonNoSchedule Reason = "no_schedule"
	ReasonError      Reason = "error"
)

// Printed placeholder values.
const (
	// Dash fills cells that intentionally carry no content.
	Dash = "-"
	// NoteFilledByTeacher marks subjects whose journal is written by their own teacher.
	NoteFilledByTeacher = "Diisi oleh guru mata pelajaran"
	// PlaceholderUnplanned is shown instead of an empty objective/material.
	PlaceholderUnplanned = "(belum direncanakan)"
)

// Entry is one row of the journal: a run of consecutive periods of one subject.
type Entry struct {
	Sequence    int    `json:"sequence"`
	PeriodRange string `json:"period_range"`
	TimeRange   string `json:"time_range,omitempty"`
	SubjectName string `json:"subject_name"`
	Objective   string `json:"objective"`
	Material    string `json:"material"`
	Note        string `json:"note,omitempty"`
	// Ambiguous is set when several curriculum rows were active for the same week bucket.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// IsUnplanned reports whether no curriculum content was found for the entry.
func (e Entry) IsUnplanned() bool {
	return e.Objective == "" && e.Material == ""
}

// DisplayObjective returns the objective, or the visible placeholder when unplanned.
func (e Entry) DisplayObjective() string {
	if e.Objective == "" {
		return PlaceholderUnplanned
	}
	return e.Objective
}

// DisplayMaterial returns the material, or the visible placeholder when unplanned.
func (e Entry) DisplayMaterial() string {
	if e.Material == "" {
		return PlaceholderUnplanned
	}
	return e.Material
}

// MarshalJSON adds the printed cell values next to the raw ones, so renderers
// never need to know the unplanned placeholder.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		DisplayObjective string `json:"display_objective"`
		DisplayMaterial  string `json:"display_material"`
	}{plain(e), e.DisplayObjective(), e.DisplayMaterial()})
}

// DayResolution is the resolved journal of one date. It is derived, never persisted.
type DayResolution struct {
	Date               timeutil.Date `json:"date"`
	WeekdayName        string        `json:"weekday_name"`
	Entries            []Entry       `json:"entries"`
	IsNonInstructional bool          `json:"is_non_instructional"`
	Reason             Reason        `json:"reason,omitempty"`
	// Detail carries the event description or the error message for error days.
	Detail string `json:"detail,omitempty"`
}

// HasEntries reports whether the day produced at least one row.
func (r DayResolution) HasEntries() bool {
	return len(r.Entries) > 0
}

// UnplannedCount returns how many entries still lack planned content.
func (r DayResolution) UnplannedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Note == "" && e.IsUnplanned() {
			n++
		}
	}
	return n
}
