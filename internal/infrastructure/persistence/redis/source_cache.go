package redis

import (
	"context"
	"errors"
	"time"

	"github.com/guruku/jurnal/internal/domain/calendar"
	"github.com/guruku/jurnal/internal/domain/curriculum"
	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/report"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/domain/timetable"
	"github.com/guruku/jurnal/pkg/circuitbreaker"
	"github.com/guruku/jurnal/pkg/logger"
)

// Store is the subset of Cache used by the decorators.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ Store = (*Cache)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// SOURCE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// SourceCache is a read-through cache in front of a journal.Source.
// Cache failures are logged and never fail a read; source errors are not cached.
type SourceCache struct {
	next    journal.Source
	store   Store
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

var _ journal.Source = (*SourceCache)(nil)

// SourceCacheOption configures a SourceCache.
type SourceCacheOption func(*SourceCache)

// WithTTL sets the TTL of cached reads.
func WithTTL(ttl time.Duration) SourceCacheOption {
	return func(c *SourceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithBreaker skips Redis while the breaker is open.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) SourceCacheOption {
	return func(c *SourceCache) { c.breaker = cb }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) SourceCacheOption {
	return func(c *SourceCache) {
		if l != nil {
			c.log = l
		}
	}
}

// NewSourceCache wraps next with a Redis read-through cache.
func NewSourceCache(next journal.Source, store Store, opts ...SourceCacheOption) *SourceCache {
	c := &SourceCache{
		next:  next,
		store: store,
		ttl:   TTLSourceCache,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWeeklyTimetable implements journal.Source.
func (c *SourceCache) GetWeeklyTimetable(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) (timetable.Weekly, error) {
	key := SourceKey("timetable", year.Label(), class.String())
	return readThrough(ctx, c, key, func(ctx context.Context) (timetable.Weekly, error) {
		return c.next.GetWeeklyTimetable(ctx, year, class)
	})
}

// GetCurriculumPlan implements journal.Source.
func (c *SourceCache) GetCurriculumPlan(ctx context.Context, year calendar.AcademicYear, class shared.ClassName, subject shared.SubjectKey, semester calendar.Semester) ([]curriculum.Row, error) {
	key := SourceKey("curriculum", year.Label(), class.String(), string(semester), subject.String())
	return readThrough(ctx, c, key, func(ctx context.Context) ([]curriculum.Row, error) {
		return c.next.GetCurriculumPlan(ctx, year, class, subject, semester)
	})
}

// GetCalendarEvents implements journal.Source.
func (c *SourceCache) GetCalendarEvents(ctx context.Context, year calendar.AcademicYear) ([]calendar.Event, error) {
	key := SourceKey("calendar", year.Label())
	return readThrough(ctx, c, key, func(ctx context.Context) ([]calendar.Event, error) {
		return c.next.GetCalendarEvents(ctx, year)
	})
}

// GetDisabledSubjects implements journal.Source.
func (c *SourceCache) GetDisabledSubjects(ctx context.Context, year calendar.AcademicYear, class shared.ClassName) ([]shared.SubjectKey, error) {
	key := SourceKey("automation", year.Label(), class.String())
	return readThrough(ctx, c, key, func(ctx context.Context) ([]shared.SubjectKey, error) {
		return c.next.GetDisabledSubjects(ctx, year, class)
	})
}

func readThrough[T any](ctx context.Context, c *SourceCache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.guard(ctx, func(ctx context.Context) error {
		return c.store.Get(ctx, key, &cached)
	})
	if err == nil {
		c.log.Debug("source cache hit", logger.String("key", key))
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !circuitbreaker.IsRejected(err) {
		c.log.Warn("source cache read failed", logger.String("key", key), logger.Err(err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.guard(ctx, func(ctx context.Context) error {
		return c.store.Set(ctx, key, value, c.ttl)
	}); err != nil && !circuitbreaker.IsRejected(err) {
		c.log.Warn("source cache write failed", logger.String("key", key), logger.Err(err))
	}
	return value, nil
}

// guard runs fn through the breaker. A miss is a healthy answer, not a failure.
func (c *SourceCache) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	var miss bool
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})
	if miss {
		return ErrCacheMiss
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH CACHE
// ══════════════════════════════════════════════════════════════════════════════

// BatchCache stores finished batches. The key carries a digest of every input,
// so a change in timetable, curriculum, calendar or toggles misses the cache.
type BatchCache struct {
	store Store
	ttl   time.Duration
}

// NewBatchCache creates a new BatchCache.
func NewBatchCache(store Store, ttl time.Duration) *BatchCache {
	if ttl <= 0 {
		ttl = TTLBatchCache
	}
	return &BatchCache{store: store, ttl: ttl}
}

// Key returns the cache key of a request paginated with layout and built from
// inputs with the given digest.
func (c *BatchCache) Key(req report.Request, layout report.Layout, digest string) string {
	return BatchKey(req.ClassName.Slug(), req.Mode.String(), req.Anchor.String(), layout.Fingerprint(), digest)
}

// Get returns a cached batch. ok is false on a miss.
func (c *BatchCache) Get(ctx context.Context, key string) (*report.Batch, bool, error) {
	var batch report.Batch
	if err := c.store.Get(ctx, key, &batch); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &batch, true, nil
}

// Put stores a batch.
func (c *BatchCache) Put(ctx context.Context, key string, batch *report.Batch) error {
	return c.store.Set(ctx, key, batch, c.ttl)
}
