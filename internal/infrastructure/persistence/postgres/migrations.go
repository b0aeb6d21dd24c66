package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps any failure while applying or reverting a schema step.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// migrationsTable records which schema steps have run.
const migrationsTable = "jurnal_schema_migrations"

// Migration is one schema step. AppliedAt is filled in by Status.
type Migration struct {
	Version   int
	Name      string
	Up        string
	Down      string
	AppliedAt *time.Time
}

// Applied reports whether the step is recorded in the database.
func (m Migration) Applied() bool { return m.AppliedAt != nil }

func schema() []Migration {
	return []Migration{
		{Version: 1, Name: "create_timetable", Up: migration001Up, Down: migration001Down},
		{Version: 2, Name: "create_curriculum", Up: migration002Up, Down: migration002Down},
		{Version: 3, Name: "create_calendar_and_automation", Up: migration003Up, Down: migration003Down},
	}
}

// pending lists the steps missing from applied, lowest version first.
func pending(steps []Migration, applied map[int]time.Time) []Migration {
	var out []Migration
	for _, s := range steps {
		if _, ok := applied[s.Version]; !ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// newest returns the highest applied step. ok is false when nothing is applied.
func newest(steps []Migration, applied map[int]time.Time) (step Migration, ok bool, err error) {
	top := 0
	for v := range applied {
		top = max(top, v)
	}
	if top == 0 {
		return Migration{}, false, nil
	}
	for _, s := range steps {
		if s.Version == top {
			return s, true, nil
		}
	}
	return Migration{}, false, fmt.Errorf("%w: version %d is applied but unknown to this build", ErrMigrationFailed, top)
}

// Migrator applies the journal schema.
type Migrator struct {
	conn  *Connection
	steps []Migration
}

// NewMigrator returns a migrator for the built-in journal schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, steps: schema()}
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
				version INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", migrationsTable, err)
	}

	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM `+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", migrationsTable, err)
	}
	defer rows.Close()

	out := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", migrationsTable, err)
		}
		out[v] = at
	}
	return out, rows.Err()
}

// Migrate applies every pending step, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, step := range pending(m.steps, applied) {
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, step.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+migrationsTable+` (version, name) VALUES ($1, $2)`, step.Version, step.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %03d %s: %v", ErrMigrationFailed, step.Version, step.Name, err)
		}
	}
	return nil
}

// Rollback reverts the newest applied step. With nothing applied it does nothing.
func (m *Migrator) Rollback(ctx context.Context) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	step, ok, err := newest(m.steps, applied)
	if err != nil || !ok {
		return err
	}
	err = m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, step.Down); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM `+migrationsTable+` WHERE version = $1`, step.Version)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: rollback %03d %s: %v", ErrMigrationFailed, step.Version, step.Name, err)
	}
	return nil
}

// Status lists every known step with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Migration, len(m.steps))
	for i, s := range m.steps {
		if at, ok := applied[s.Version]; ok {
			s.AppliedAt = &at
		}
		out[i] = s
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE TIMETABLE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per (period, weekday) cell of a class timetable.
-- academic_year is the start year: 2025 means 2025/2026.
CREATE TABLE IF NOT EXISTS timetable_slots (
    academic_year INTEGER NOT NULL,
    class_name VARCHAR(50) NOT NULL,
    period_number INTEGER NOT NULL,
    weekday SMALLINT NOT NULL,
    time_range VARCHAR(20) NOT NULL DEFAULT '',
    subject VARCHAR(100) NOT NULL DEFAULT '',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (academic_year, class_name, period_number, weekday),
    CONSTRAINT valid_period CHECK (period_number > 0),
    CONSTRAINT valid_weekday CHECK (weekday BETWEEN 0 AND 6)
);

CREATE INDEX IF NOT EXISTS idx_timetable_slots_class ON timetable_slots(academic_year, class_name);
`

const migration001Down = `
DROP TABLE IF EXISTS timetable_slots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CURRICULUM
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Plan rows per subject and semester, kept in plan order by position.
-- buckets is a JSON array of {"month": 1..6, "week": 1..5}.
CREATE TABLE IF NOT EXISTS curriculum_rows (
    id SERIAL PRIMARY KEY,
    academic_year INTEGER NOT NULL,
    class_name VARCHAR(50) NOT NULL,
    subject_key VARCHAR(100) NOT NULL,
    semester VARCHAR(10) NOT NULL,
    position INTEGER NOT NULL,
    objective TEXT NOT NULL DEFAULT '',
    material TEXT NOT NULL DEFAULT '',
    buckets JSONB NOT NULL DEFAULT '[]'::jsonb,
    date_override DATE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_semester CHECK (semester IN ('ganjil', 'genap')),
    CONSTRAINT unique_row_position UNIQUE (academic_year, class_name, subject_key, semester, position)
);

CREATE INDEX IF NOT EXISTS idx_curriculum_rows_lookup
    ON curriculum_rows(academic_year, class_name, subject_key, semester, position);
`

const migration002Down = `
DROP TABLE IF EXISTS curriculum_rows;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CALENDAR AND AUTOMATION TOGGLES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- At most one event per date.
CREATE TABLE IF NOT EXISTS calendar_events (
    event_date DATE PRIMARY KEY,
    academic_year INTEGER NOT NULL,
    event_type VARCHAR(10) NOT NULL,
    description TEXT NOT NULL DEFAULT '',

    CONSTRAINT valid_event_type CHECK (event_type IN ('holiday', 'event'))
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_year ON calendar_events(academic_year);

-- Subjects missing from this table are automated.
CREATE TABLE IF NOT EXISTS subject_automation (
    academic_year INTEGER NOT NULL,
    class_name VARCHAR(50) NOT NULL,
    subject_key VARCHAR(100) NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (academic_year, class_name, subject_key)
);
`

const migration003Down = `
DROP TABLE IF EXISTS subject_automation;
DROP TABLE IF EXISTS calendar_events;
`
