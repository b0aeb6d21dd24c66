package calendar

import (
	"strings"

	"github.com/guruku/jurnal/pkg/timeutil"
)

// EventType distinguishes days off from school events.
type EventType string

const (
	EventHoliday EventType = "holiday"
	EventSchool  EventType = "event"
)

// IsValid checks that the event type is known.
func (t EventType) IsValid() bool {
	return t == EventHoliday || t == EventSchool
}

// ParseEventType accepts English and Indonesian spellings ("libur", "kegiatan").
func ParseEventType(value string) (EventType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "holiday", "libur":
		return EventHoliday, true
	case "event", "kegiatan", "acara":
		return EventSchool, true
	default:
		return "", false
	}
}

// Event is one entry of the school calendar.
type Event struct {
	Date        timeutil.Date `json:"date" yaml:"date"`
	Type        EventType     `json:"type" yaml:"type"`
	Description string        `json:"description" yaml:"description"`
}

// semesterBreakMarkers flag an extended holiday that is dropped from reports.
var semesterBreakMarkers = []string{"libur semester", "semester holiday", "semester break"}

// IsSemesterBreak reports whether the description marks a semester break.
func (e Event) IsSemesterBreak() bool {
	desc := strings.ToLower(e.Description)
	for _, marker := range semesterBreakMarkers {
		if strings.Contains(desc, marker) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// INDEX
// ══════════════════════════════════════════════════════════════════════════════

// Index is a read-only date lookup over the events of one academic year.
type Index struct {
	byDate map[timeutil.Date]Event
}

// NewIndex builds an index. At most one event is kept per date: the first one wins.
func NewIndex(events []Event) *Index {
	idx := &Index{byDate: make(map[timeutil.Date]Event, len(events))}
	for _, e := range events {
		if _, exists := idx.byDate[e.Date]; exists {
			continue
		}
		idx.byDate[e.Date] = e
	}
	return idx
}

// Lookup returns the event on d, if any.
func (idx *Index) Lookup(d timeutil.Date) (Event, bool) {
	if idx == nil {
		return Event{}, false
	}
	e, ok := idx.byDate[d]
	return e, ok
}

// IsSemesterBreak reports whether d is covered by a semester-break event.
func (idx *Index) IsSemesterBreak(d timeutil.Date) bool {
	e, ok := idx.Lookup(d)
	return ok && e.IsSemesterBreak()
}

// Len returns the number of indexed dates.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byDate)
}
