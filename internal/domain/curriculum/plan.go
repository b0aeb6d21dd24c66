// Package curriculum holds the semester curriculum plan: per-subject rows indexed
// by week bucket (month of semester, week of month) or pinned to one explicit date.
package curriculum

import (
	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// WeekBucket is a (month-of-semester, week-of-month) coordinate.
type WeekBucket struct {
	Month int `json:"month" yaml:"month"`
	Week  int `json:"week" yaml:"week"`
}

// IsValid checks the bucket lies inside the 6×5 semester grid.
func (b WeekBucket) IsValid() bool {
	return b.Month >= 1 && b.Month <= calendar.MonthsPerSemester &&
		b.Week >= 1 && b.Week <= calendar.MaxWeekIndex
}

// BucketOf returns the bucket of a semester position.
func BucketOf(pos calendar.Position) WeekBucket {
	return WeekBucket{Month: pos.MonthIndex, Week: pos.WeekIndex}
}

// Row is one planned unit of a subject.
type Row struct {
	Buckets      []WeekBucket   `json:"buckets,omitempty" yaml:"buckets"`
	Objective    string         `json:"objective" yaml:"objective"`
	Material     string         `json:"material" yaml:"material"`
	DateOverride *timeutil.Date `json:"date_override,omitempty" yaml:"date,omitempty"`
}

// Active reports whether the row's flag for bucket b is set.
func (r Row) Active(b WeekBucket) bool {
	for _, rb := range r.Buckets {
		if rb == b {
			return true
		}
	}
	return false
}

// PinnedTo reports whether the row is a pinpoint override for d.
func (r Row) PinnedTo(d timeutil.Date) bool {
	return r.DateOverride != nil && *r.DateOverride == d
}

// MatchKind tells how a row was selected.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchPinpoint
	MatchWeekBucket
)

// String returns the string representation of the match kind.
func (k MatchKind) String() string {
	switch k {
	case MatchPinpoint:
		return "pinpoint"
	case MatchWeekBucket:
		return "week_bucket"
	default:
		return "none"
	}
}

// Match is the outcome of a plan lookup.
type Match struct {
	Row  Row
	Kind MatchKind
	// Ambiguous is set when more than one week-bucket row was active for the
	// bucket. The first row in plan order is used.
	Ambiguous bool
}

// Found reports whether any row matched.
func (m Match) Found() bool {
	return m.Kind != MatchNone
}

// Plan is the curriculum of one class for one semester, keyed by subject.
type Plan struct {
	rows map[shared.SubjectKey][]Row
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{rows: make(map[shared.SubjectKey][]Row)}
}

// Set replaces the rows of a subject. Row order is preserved; it decides first-match.
func (p *Plan) Set(subject shared.SubjectKey, rows []Row) {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	p.rows[subject] = cp
}

// Rows returns the rows of a subject.
func (p *Plan) Rows(subject shared.SubjectKey) []Row {
	if p == nil {
		return nil
	}
	return p.rows[subject]
}

// Subjects returns the number of subjects with rows.
func (p *Plan) Subjects() int {
	if p == nil {
		return 0
	}
	return len(p.rows)
}

// Lookup finds the planned content of a subject on date d at semester position pos.
// A pinpoint row for d always wins; otherwise the first row active at pos's bucket.
func (p *Plan) Lookup(subject shared.SubjectKey, d timeutil.Date, pos calendar.Position) Match {
	rows := p.Rows(subject)

	for _, r := range rows {
		if r.PinnedTo(d) {
			return Match{Row: r, Kind: MatchPinpoint}
		}
	}

	bucket := BucketOf(pos)
	var (
		m       Match
		matches int
	)
	for _, r := range rows {
		if r.DateOverride != nil || !r.Active(bucket) {
			continue
		}
		matches++
		if matches == 1 {
			m = Match{Row: r, Kind: MatchWeekBucket}
		}
	}
	m.Ambiguous = matches > 1
	return m
}
