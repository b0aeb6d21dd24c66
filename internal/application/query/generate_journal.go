package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/report"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/logger"
	"github.com/guruku/jurnal/pkg/timeutil"
)

var validate = validator.New()

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE JOURNAL QUERY
// Builds a paginated batch of journal days for one class.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateJournalQuery holds the parameters of a batch request.
type GenerateJournalQuery struct {
	ClassName string        `validate:"required,max=64"`
	Mode      string        `validate:"required"`
	Anchor    timeutil.Date `validate:"-"`
}

// Validate checks the query and returns the normalized request.
func (q GenerateJournalQuery) Validate() (report.Request, error) {
	q.ClassName = strings.TrimSpace(q.ClassName)
	if err := validate.Struct(q); err != nil {
		return report.Request{}, shared.WrapError("query", "GenerateJournal", shared.ErrInvalidRequest, err.Error(), err)
	}

	mode, ok := report.ParseMode(q.Mode)
	if !ok {
		return report.Request{}, shared.WrapError("query", "GenerateJournal", shared.ErrInvalidRequest,
			fmt.Sprintf("unknown mode %q", q.Mode), shared.ErrInvalidMode)
	}
	if q.Anchor.IsZero() {
		return report.Request{}, shared.WrapError("query", "GenerateJournal", shared.ErrInvalidRequest,
			"anchor date is required", shared.ErrValidation)
	}

	return report.Request{ClassName: shared.ClassName(q.ClassName), Mode: mode, Anchor: q.Anchor}, nil
}

// GenerateJournalResult is a finished batch with its bookkeeping.
type GenerateJournalResult struct {
	Batch *report.Batch `json:"batch"`

	// Digest identifies the inputs the batch was built from.
	Digest string `json:"digest"`

	// Cached is true when the batch came from the batch cache.
	Cached bool `json:"cached"`

	Stats BatchStats `json:"stats"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BatchStats counts what a reviewer should look at before printing.
type BatchStats struct {
	Days             int `json:"days"`
	Pages            int `json:"pages"`
	Skipped          int `json:"skipped"`
	Unplanned        int `json:"unplanned"`
	Ambiguous        int `json:"ambiguous"`
	ErrorDays        int `json:"error_days"`
	NonInstructional int `json:"non_instructional_days"`
}

// BatchCache stores finished batches under a key derived from the request and inputs digest.
type BatchCache interface {
	Key(req report.Request, layout report.Layout, digest string) string
	Get(ctx context.Context, key string) (*report.Batch, bool, error)
	Put(ctx context.Context, key string, batch *report.Batch) error
}

// GenerateJournalHandler handles batch requests.
type GenerateJournalHandler struct {
	loader        *InputLoader
	batcher       *report.Batcher
	cache         BatchCache
	warnAmbiguous bool
	newID         func() string
	now           func() time.Time
	log           *logger.Logger
}

// GenerateOption configures a GenerateJournalHandler.
type GenerateOption func(*GenerateJournalHandler)

// WithBatchCache enables the batch cache.
func WithBatchCache(cache BatchCache) GenerateOption {
	return func(h *GenerateJournalHandler) {
		h.cache = cache
	}
}

// WithAmbiguityWarnings logs every entry that matched more than one curriculum row.
func WithAmbiguityWarnings(enabled bool) GenerateOption {
	return func(h *GenerateJournalHandler) {
		h.warnAmbiguous = enabled
	}
}

// WithIDGenerator replaces the uuid batch ID generator.
func WithIDGenerator(fn func() string) GenerateOption {
	return func(h *GenerateJournalHandler) {
		h.newID = fn
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) GenerateOption {
	return func(h *GenerateJournalHandler) {
		h.now = fn
	}
}

// WithGenerateLogger sets the logger.
func WithGenerateLogger(log *logger.Logger) GenerateOption {
	return func(h *GenerateJournalHandler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewGenerateJournalHandler creates a new handler.
func NewGenerateJournalHandler(loader *InputLoader, batcher *report.Batcher, opts ...GenerateOption) *GenerateJournalHandler {
	h := &GenerateJournalHandler{
		loader:        loader,
		batcher:       batcher,
		warnAmbiguous: true,
		newID:         uuid.NewString,
		now:           time.Now,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle executes the query. Every input is fetched before any day is resolved;
// a fetch failure aborts with ErrDataUnavailable and no partial batch. Dates in
// an adjacent academic year the source does not know become error blocks.
func (h *GenerateJournalHandler) Handle(ctx context.Context, q GenerateJournalQuery) (*GenerateJournalResult, error) {
	req, err := q.Validate()
	if err != nil {
		return nil, err
	}

	log := h.log.With(
		logger.ClassName(req.ClassName.String()),
		logger.Mode(req.Mode.String()),
		logger.DateField(req.Anchor.String()),
	)
	start := h.now()

	loaded, err := h.loader.Load(ctx, req.ClassName, req.Anchor, report.Expand(req.Mode, req.Anchor))
	if err != nil {
		return nil, err
	}

	var key string
	if h.cache != nil {
		key = h.cache.Key(req, h.batcher.Layout(), loaded.Digest)
		cached, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			log.Warn("batch cache read failed", logger.Err(err))
		}
		if ok {
			log.Info("journal batch served from cache", logger.BatchID(cached.ID))
			return h.result(cached, loaded.Digest, true), nil
		}
	}

	batch, err := h.batcher.Build(h.newID(), req, loaded.Snapshot)
	if err != nil {
		return nil, err
	}

	res := h.result(batch, loaded.Digest, false)
	if h.warnAmbiguous && res.Stats.Ambiguous > 0 {
		h.logAmbiguous(log, batch)
	}

	if h.cache != nil {
		if err := h.cache.Put(ctx, key, batch); err != nil {
			log.Warn("batch cache write failed", logger.Err(err))
		}
	}

	log.Info("journal batch generated",
		logger.BatchID(batch.ID),
		logger.Int("days", res.Stats.Days),
		logger.Int("pages", res.Stats.Pages),
		logger.Int("error_days", res.Stats.ErrorDays),
		logger.Latency(h.now().Sub(start)),
	)
	return res, nil
}

func (h *GenerateJournalHandler) result(batch *report.Batch, digest string, cached bool) *GenerateJournalResult {
	return &GenerateJournalResult{
		Batch:       batch,
		Digest:      digest,
		Cached:      cached,
		Stats:       statsOf(batch),
		GeneratedAt: h.now(),
	}
}

func (h *GenerateJournalHandler) logAmbiguous(log *logger.Logger, batch *report.Batch) {
	for _, day := range batch.Days() {
		for _, e := range day.Entries {
			if e.Ambiguous {
				log.Warn("several curriculum rows match the same week",
					logger.DateField(day.Date.String()),
					logger.Subject(e.SubjectName),
					logger.String("kept_objective", e.Objective),
				)
			}
		}
	}
}

func statsOf(batch *report.Batch) BatchStats {
	st := BatchStats{Pages: len(batch.Pages), Skipped: len(batch.Skipped)}
	for _, day := range batch.Days() {
		st.Days++
		st.Unplanned += day.UnplannedCount()
		for _, e := range day.Entries {
			if e.Ambiguous {
				st.Ambiguous++
			}
		}
		switch {
		case day.Reason == journal.ReasonError:
			st.ErrorDays++
		case day.IsNonInstructional:
			st.NonInstructional++
		}
	}
	return st
}
