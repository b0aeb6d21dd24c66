package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// JournalSource implements journal.Source for PostgreSQL.
type JournalSource struct {
	conn *Connection
}

var _ journal.Source = (*JournalSource)(nil)

// NewJournalSource creates a new JournalSource.
func NewJournalSource(conn *Connection) *JournalSource {
	return &JournalSource{conn: conn}
}

// GetWeeklyTimetable assembles slots from the per-cell rows.
func (r *JournalSource) GetWeeklyTimetable(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) (timetable.Weekly, error) {
	query := `
		SELECT period_number, weekday, time_range, subject
		FROM timetable_slots
		WHERE academic_year = $1 AND class_name = $2
		ORDER BY period_number, weekday
	`

	rows, err := r.conn.Query(ctx, query, year.StartYear, class.String())
	if err != nil {
		return timetable.Weekly{}, fmt.Errorf("failed to query timetable: %w", err)
	}
	defer rows.Close()

	return scanTimetable(rows)
}

// GetCurriculumPlan returns plan rows in position order.
func (r *JournalSource) GetCurriculumPlan(ctx context.Context, year calendar.AcademicYear, class shared.ClassName, subject shared.SubjectKey, semester calendar.Semester) ([]curriculum.Row, error) {
	query := `
		SELECT objective, material, buckets, date_override
		FROM curriculum_rows
		WHERE academic_year = $1 AND class_name = $2 AND subject_key = $3 AND semester = $4
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, query, year.StartYear, class.String(), subject.String(), string(semester))
	if err != nil {
		return nil, fmt.Errorf("failed to query curriculum: %w", err)
	}
	defer rows.Close()

	return scanCurriculumRows(rows)
}

// GetCalendarEvents returns the events of an academic year in date order.
func (r *JournalSource) GetCalendarEvents(ctx context.Context, year calendar.AcademicYear) ([]calendar.Event, error) {
	query := `
		SELECT event_date, event_type, description
		FROM calendar_events
		WHERE academic_year = $1
		ORDER BY event_date
	`

	rows, err := r.conn.Query(ctx, query, year.StartYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		var (
			day      time.Time
			typ      string
			describe string
		)
		if err := rows.Scan(&day, &typ, &describe); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, calendar.Event{
			Date:        timeutil.FromTime(day),
			Type:        calendar.EventType(typ),
			Description: describe,
		})
	}

	return events, rows.Err()
}

// GetDisabledSubjects returns subjects whose automation toggle is off.
func (r *JournalSource) GetDisabledSubjects(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) ([]shared.SubjectKey, error) {
	query := `
		SELECT subject_key
		FROM subject_automation
		WHERE academic_year = $1 AND class_name = $2 AND NOT enabled
		ORDER BY subject_key
	`

	rows, err := r.conn.Query(ctx, query, year.StartYear, class.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query subject automation: %w", err)
	}
	defer rows.Close()

	var keys []shared.SubjectKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan subject automation: %w", err)
		}
		keys = append(keys, shared.SubjectKey(key))
	}

	return keys, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Import
// ─────────────────────────────────────────────────────────────────────────────

// ImportSet is everything stored for one class in one academic year.
type ImportSet struct {
	Year       calendar.AcademicYear
	Class      shared.ClassName
	Timetable  timetable.Weekly
	Curriculum map[calendar.Semester]map[shared.SubjectKey][]curriculum.Row
	Events     []calendar.Event
	Disabled   []shared.SubjectKey
}

// Import replaces the stored inputs of one class and year in a single transaction.
// Calendar events are replaced for the whole year since they are shared by classes.
func (r *JournalSource) Import(ctx context.Context, set ImportSet) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		ay, class := set.Year.StartYear, set.Class.String()

		if _, err := tx.Exec(ctx, `DELETE FROM timetable_slots WHERE academic_year = $1 AND class_name = $2`, ay, class); err != nil {
			return fmt.Errorf("failed to clear timetable: %w", err)
		}
		for _, s := range set.Timetable.Slots {
			for day, subject := range s.SubjectByWeekday {
				_, err := tx.Exec(ctx, `
					INSERT INTO timetable_slots (academic_year, class_name, period_number, weekday, time_range, subject)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, ay, class, s.PeriodNumber, int(day), s.TimeRange, subject)
				if err != nil {
					if isUniqueViolation(err) {
						return shared.WrapError("timetable", "Import", shared.ErrInvalidState,
							fmt.Sprintf("period %d defined twice", s.PeriodNumber), shared.ErrInvalidTimetable)
					}
					return fmt.Errorf("failed to insert timetable slot: %w", err)
				}
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM curriculum_rows WHERE academic_year = $1 AND class_name = $2`, ay, class); err != nil {
			return fmt.Errorf("failed to clear curriculum: %w", err)
		}
		for sem, subjects := range set.Curriculum {
			for subject, rows := range subjects {
				for pos, row := range rows {
					if err := insertCurriculumRow(ctx, tx, ay, class, subject, sem, pos, row); err != nil {
						return err
					}
				}
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM calendar_events WHERE academic_year = $1`, ay); err != nil {
			return fmt.Errorf("failed to clear calendar: %w", err)
		}
		for _, ev := range set.Events {
			_, err := tx.Exec(ctx, `
				INSERT INTO calendar_events (event_date, academic_year, event_type, description)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (event_date) DO NOTHING
			`, ev.Date.Time(), ay, string(ev.Type), ev.Description)
			if err != nil {
				return fmt.Errorf("failed to insert calendar event: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM subject_automation WHERE academic_year = $1 AND class_name = $2`, ay, class); err != nil {
			return fmt.Errorf("failed to clear subject automation: %w", err)
		}
		for _, key := range set.Disabled {
			_, err := tx.Exec(ctx, `
				INSERT INTO subject_automation (academic_year, class_name, subject_key, enabled)
				VALUES ($1, $2, $3, FALSE)
				ON CONFLICT DO NOTHING
			`, ay, class, key.String())
			if err != nil {
				return fmt.Errorf("failed to insert subject automation: %w", err)
			}
		}

		return nil
	})
}

func insertCurriculumRow(ctx context.Context, q execer, ay int, class string, subject shared.SubjectKey, sem calendar.Semester, pos int, row curriculum.Row) error {
	buckets, err := json.Marshal(row.Buckets)
	if err != nil {
		return fmt.Errorf("failed to marshal buckets: %w", err)
	}
	if row.Buckets == nil {
		buckets = []byte("[]")
	}

	var override *time.Time
	if row.DateOverride != nil {
		t := row.DateOverride.Time()
		override = &t
	}

	_, err = q.Exec(ctx, `
		INSERT INTO curriculum_rows
			(academic_year, class_name, subject_key, semester, position, objective, material, buckets, date_override)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ay, class, subject.String(), string(sem), pos, row.Objective, row.Material, buckets, override)
	if err != nil {
		return fmt.Errorf("failed to insert curriculum row: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanTimetable(rows pgx.Rows) (timetable.Weekly, error) {
	byPeriod := make(map[int]*timetable.Slot)
	for rows.Next() {
		var (
			period, weekday   int
			timeRange, subject string
		)
		if err := rows.Scan(&period, &weekday, &timeRange, &subject); err != nil {
			return timetable.Weekly{}, fmt.Errorf("failed to scan timetable slot: %w", err)
		}

		slot, ok := byPeriod[period]
		if !ok {
			slot = &timetable.Slot{
				PeriodNumber:     period,
				SubjectByWeekday: make(map[time.Weekday]string),
			}
			byPeriod[period] = slot
		}
		if slot.TimeRange == "" {
			slot.TimeRange = timeRange
		}
		slot.SubjectByWeekday[time.Weekday(weekday)] = subject
	}
	if err := rows.Err(); err != nil {
		return timetable.Weekly{}, err
	}

	w := timetable.Weekly{Slots: make([]timetable.Slot, 0, len(byPeriod))}
	for _, s := range byPeriod {
		w.Slots = append(w.Slots, *s)
	}
	sort.Slice(w.Slots, func(i, j int) bool { return w.Slots[i].PeriodNumber < w.Slots[j].PeriodNumber })
	return w, nil
}

func scanCurriculumRows(rows pgx.Rows) ([]curriculum.Row, error) {
	var out []curriculum.Row
	for rows.Next() {
		var (
			row      curriculum.Row
			buckets  []byte
			override *time.Time
		)
		if err := rows.Scan(&row.Objective, &row.Material, &buckets, &override); err != nil {
			return nil, fmt.Errorf("failed to scan curriculum row: %w", err)
		}
		if len(buckets) > 0 {
			if err := json.Unmarshal(buckets, &row.Buckets); err != nil {
				return nil, fmt.Errorf("failed to unmarshal buckets: %w", err)
			}
		}
		if override != nil {
			d := timeutil.FromTime(*override)
			row.DateOverride = &d
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
