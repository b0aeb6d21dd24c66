package query

import (
	"context"
	"strings"

	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/logger"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE DAY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ResolveDayQuery asks for the journal of a single date.
type ResolveDayQuery struct {
	ClassName string        `validate:"required,max=64"`
	Date      timeutil.Date `validate:"-"`
}

// Validate checks the query.
func (q ResolveDayQuery) Validate() error {
	q.ClassName = strings.TrimSpace(q.ClassName)
	if err := validate.Struct(q); err != nil {
		return shared.WrapError("query", "ResolveDay", shared.ErrInvalidRequest, err.Error(), err)
	}
	if q.Date.IsZero() {
		return shared.WrapError("query", "ResolveDay", shared.ErrInvalidRequest, "date is required", shared.ErrValidation)
	}
	return nil
}

// ResolveDayHandler resolves one date.
type ResolveDayHandler struct {
	loader   *InputLoader
	resolver *journal.Resolver
	log      *logger.Logger
}

// NewResolveDayHandler creates a new handler.
func NewResolveDayHandler(loader *InputLoader, log *logger.Logger) *ResolveDayHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ResolveDayHandler{loader: loader, resolver: journal.NewResolver(), log: log}
}

// Handle executes the query. Malformed timetable data is returned as an error
// here; only batches turn it into an error block.
func (h *ResolveDayHandler) Handle(ctx context.Context, q ResolveDayQuery) (journal.DayResolution, error) {
	if err := q.Validate(); err != nil {
		return journal.DayResolution{}, err
	}
	class := shared.ClassName(strings.TrimSpace(q.ClassName))

	loaded, err := h.loader.Load(ctx, class, q.Date, []timeutil.Date{q.Date})
	if err != nil {
		return journal.DayResolution{}, err
	}

	in, ok := loaded.Snapshot.InputsFor(q.Date)
	if !ok {
		return journal.DayResolution{}, shared.ErrInputsMissing
	}

	day, err := h.resolver.Resolve(q.Date, in)
	if err != nil {
		h.log.Warn("day could not be resolved",
			logger.ClassName(class.String()),
			logger.DateField(q.Date.String()),
			logger.Err(err),
		)
		return journal.DayResolution{}, err
	}
	return day, nil
}
