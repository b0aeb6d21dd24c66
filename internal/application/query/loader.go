// Package query contains the read operations of the journal: loading inputs,
// resolving single days and generating batches.
package query

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/circuitbreaker"
	"github.com/guruku/jurnal/pkg/logger"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// INPUT LOADER
// Fetches every input a set of dates needs before any resolution starts.
// A failed fetch for the anchor's academic year fails the whole load. An
// adjacent year the source has never heard of only leaves its dates without
// inputs.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultFetchConcurrency bounds the curriculum fetches of one academic year.
const DefaultFetchConcurrency = 8

// Loaded is the result of a load: the snapshot and a digest of its content.
type Loaded struct {
	Snapshot *journal.Snapshot
	// Digest is a hex blake2b-256 over every fetched input, stable for equal inputs.
	Digest string
}

// InputLoader loads journal inputs from a Source.
type InputLoader struct {
	source      journal.Source
	breaker     *circuitbreaker.CircuitBreaker
	disabled    []shared.SubjectKey
	concurrency int
	log         *logger.Logger
}

// LoaderOption configures an InputLoader.
type LoaderOption func(*InputLoader)

// WithSourceBreaker routes every fetch through cb.
func WithSourceBreaker(cb *circuitbreaker.CircuitBreaker) LoaderOption {
	return func(l *InputLoader) {
		l.breaker = cb
	}
}

// WithDefaultDisabled adds subjects that are always filled manually,
// on top of the toggles stored in the source.
func WithDefaultDisabled(subjects ...shared.SubjectKey) LoaderOption {
	return func(l *InputLoader) {
		l.disabled = append(l.disabled, subjects...)
	}
}

// WithFetchConcurrency sets the per-year curriculum fetch limit.
func WithFetchConcurrency(n int) LoaderOption {
	return func(l *InputLoader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(log *logger.Logger) LoaderOption {
	return func(l *InputLoader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewInputLoader creates a new InputLoader.
func NewInputLoader(source journal.Source, opts ...LoaderOption) *InputLoader {
	l := &InputLoader{
		source:      source,
		concurrency: DefaultFetchConcurrency,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	sort.Slice(l.disabled, func(i, j int) bool { return l.disabled[i] < l.disabled[j] })
	return l
}

// yearInputs is the raw material of one academic year, kept for the digest.
type yearInputs struct {
	ay         calendar.AcademicYear
	Year       string                                                        `json:"year"`
	Timetable  timetable.Weekly                                              `json:"timetable"`
	Events     []calendar.Event                                              `json:"events"`
	Disabled   []shared.SubjectKey                                           `json:"disabled"`
	Curriculum map[calendar.Semester]map[shared.SubjectKey][]curriculum.Row `json:"curriculum"`
	Defaults   []shared.SubjectKey                                           `json:"defaults"`
	Missing    bool                                                          `json:"missing,omitempty"`
}

// Load fetches the inputs of every academic year the dates fall into.
// The anchor's year must exist in the source. Any other year that is not
// found is recorded as missing, so its dates resolve to error blocks.
func (l *InputLoader) Load(ctx context.Context, class shared.ClassName, anchor timeutil.Date, dates []timeutil.Date) (*Loaded, error) {
	touched := semestersByYear(dates)
	required := calendar.AcademicYearOf(anchor)

	years := make([]int, 0, len(touched))
	for y := range touched {
		years = append(years, y)
	}
	sort.Ints(years)

	raws := make([]*yearInputs, len(years))
	g, gctx := errgroup.WithContext(ctx)
	for i, y := range years {
		i, y := i, y
		g.Go(func() error {
			ay := calendar.AcademicYear{StartYear: y}
			raw, err := l.loadYear(gctx, ay, class, touched[y])
			switch {
			case err == nil:
			case ay != required && shared.IsNotFound(err):
				l.log.Warn("adjacent academic year has no inputs",
					logger.AcademicYear(ay.Label()),
					logger.ClassName(class.String()),
					logger.Err(err),
				)
				raw = &yearInputs{ay: ay, Year: ay.Label(), Defaults: l.disabled, Missing: true}
			default:
				return err
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, l.unavailable(class, err)
	}

	inputs := make([]journal.Inputs, 0, len(raws))
	for _, raw := range raws {
		if !raw.Missing {
			inputs = append(inputs, l.build(raw))
		}
	}

	digest, err := digestOf(raws)
	if err != nil {
		return nil, err
	}

	return &Loaded{Snapshot: journal.NewSnapshot(inputs...), Digest: digest}, nil
}

func (l *InputLoader) loadYear(ctx context.Context, ay calendar.AcademicYear, class shared.ClassName, semesters []calendar.Semester) (*yearInputs, error) {
	raw := &yearInputs{
		ay:         ay,
		Year:       ay.Label(),
		Defaults:   l.disabled,
		Curriculum: make(map[calendar.Semester]map[shared.SubjectKey][]curriculum.Row, len(semesters)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tt, err := fetch(gctx, l, func(ctx context.Context) (timetable.Weekly, error) {
			return l.source.GetWeeklyTimetable(ctx, ay, class)
		})
		if err != nil {
			return fmt.Errorf("timetable %s %s: %w", ay, class, err)
		}
		raw.Timetable = tt
		return nil
	})
	g.Go(func() error {
		events, err := fetch(gctx, l, func(ctx context.Context) ([]calendar.Event, error) {
			return l.source.GetCalendarEvents(ctx, ay)
		})
		if err != nil {
			return fmt.Errorf("calendar %s: %w", ay, err)
		}
		raw.Events = events
		return nil
	})
	g.Go(func() error {
		disabled, err := fetch(gctx, l, func(ctx context.Context) ([]shared.SubjectKey, error) {
			return l.source.GetDisabledSubjects(ctx, ay, class)
		})
		if err != nil {
			return fmt.Errorf("subject automation %s %s: %w", ay, class, err)
		}
		raw.Disabled = disabled
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subjects := make([]shared.SubjectKey, 0)
	for key := range raw.Timetable.Subjects() {
		subjects = append(subjects, key)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	for _, sem := range semesters {
		raw.Curriculum[sem] = make(map[shared.SubjectKey][]curriculum.Row, len(subjects))
	}

	var mu sync.Mutex
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, sem := range semesters {
		for _, subject := range subjects {
			sem, subject := sem, subject
			g.Go(func() error {
				rows, err := fetch(gctx, l, func(ctx context.Context) ([]curriculum.Row, error) {
					return l.source.GetCurriculumPlan(ctx, ay, class, subject, sem)
				})
				if err != nil {
					return fmt.Errorf("curriculum %s %s %s: %w", ay, sem, subject, err)
				}
				mu.Lock()
				raw.Curriculum[sem][subject] = rows
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.Debug("inputs loaded",
		logger.AcademicYear(ay.Label()),
		logger.ClassName(class.String()),
		logger.Int("slots", len(raw.Timetable.Slots)),
		logger.Int("events", len(raw.Events)),
		logger.Int("subjects", len(subjects)),
	)
	return raw, nil
}

func (l *InputLoader) build(raw *yearInputs) journal.Inputs {
	plans := make(map[calendar.Semester]*curriculum.Plan, len(raw.Curriculum))
	for sem, subjects := range raw.Curriculum {
		plan := curriculum.NewPlan()
		for subject, rows := range subjects {
			plan.Set(subject, rows)
		}
		plans[sem] = plan
	}

	return journal.Inputs{
		Year:       raw.ay,
		Timetable:  raw.Timetable,
		Calendar:   calendar.NewIndex(raw.Events),
		Curriculum: plans,
		Toggles:    journal.NewToggles(raw.Disabled...).Disable(l.disabled...),
	}
}

// unavailable maps a fetch failure to ErrDataUnavailable. Cancellation passes through.
func (l *InputLoader) unavailable(class shared.ClassName, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	l.log.Error("journal inputs unavailable", logger.ClassName(class.String()), logger.Err(err))
	return fmt.Errorf("%w: %w", shared.ErrDataUnavailable, err)
}

// fetch runs one source call, through the breaker when set. Failures are never
// retried. Not found is an answer from a healthy source, so it does not count
// against the breaker.
func fetch[T any](ctx context.Context, l *InputLoader, fn func(context.Context) (T, error)) (T, error) {
	if l.breaker == nil {
		return fn(ctx)
	}
	var notFound error
	v, err := circuitbreaker.Call(ctx, l.breaker, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if shared.IsNotFound(err) {
			notFound = err
			return v, nil
		}
		return v, err
	})
	if notFound != nil {
		return v, notFound
	}
	return v, err
}

// semestersByYear groups the semesters touched by dates under their academic year.
func semestersByYear(dates []timeutil.Date) map[int][]calendar.Semester {
	seen := make(map[int]map[calendar.Semester]bool)
	for _, d := range dates {
		ay := calendar.AcademicYearOf(d).StartYear
		if seen[ay] == nil {
			seen[ay] = make(map[calendar.Semester]bool, 2)
		}
		seen[ay][calendar.SemesterOf(d)] = true
	}

	out := make(map[int][]calendar.Semester, len(seen))
	for ay, sems := range seen {
		for _, s := range []calendar.Semester{calendar.SemesterGanjil, calendar.SemesterGenap} {
			if sems[s] {
				out[ay] = append(out[ay], s)
			}
		}
	}
	return out
}

// digestOf hashes the JSON form of the inputs. encoding/json sorts map keys,
// so equal inputs give equal digests.
func digestOf(raws []*yearInputs) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(h)
	for _, raw := range raws {
		if err := enc.Encode(raw); err != nil {
			return "", fmt.Errorf("failed to encode inputs for digest: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
