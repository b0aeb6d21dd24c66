package report

import (
	"fmt"

	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/pkg/timeutil"
)

// ExportPrefix starts every suggested export file name.
const ExportPrefix = "Jurnal-Pembelajaran"

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

// Block is the printable journal of one date.
type Block struct {
	Day    journal.DayResolution `json:"day"`
	Height float64               `json:"height"`
}

// Page is one printed page.
type Page struct {
	Number int     `json:"number"`
	Blocks []Block `json:"blocks"`
}

// Batch is the paginated result handed to rendering.
type Batch struct {
	ID         string           `json:"id"`
	ClassName  shared.ClassName `json:"class_name"`
	Mode       Mode             `json:"mode"`
	Anchor     timeutil.Date    `json:"anchor"`
	Pages      []Page           `json:"pages"`
	ExportName string           `json:"export_name"`

	// Skipped lists dates dropped as semester break.
	Skipped []timeutil.Date `json:"skipped,omitempty"`
}

// BlockCount returns the number of blocks over all pages.
func (b *Batch) BlockCount() int {
	n := 0
	for _, p := range b.Pages {
		n += len(p.Blocks)
	}
	return n
}

// Dates returns the block dates in output order.
func (b *Batch) Dates() []timeutil.Date {
	out := make([]timeutil.Date, 0, b.BlockCount())
	for _, p := range b.Pages {
		for _, blk := range p.Blocks {
			out = append(out, blk.Day.Date)
		}
	}
	return out
}

// Days returns the block resolutions in output order.
func (b *Batch) Days() []journal.DayResolution {
	out := make([]journal.DayResolution, 0, b.BlockCount())
	for _, p := range b.Pages {
		for _, blk := range p.Blocks {
			out = append(out, blk.Day)
		}
	}
	return out
}

// ExportName suggests the export file name (without extension).
func ExportName(class shared.ClassName, mode Mode) string {
	return fmt.Sprintf("%s-%s-%s", ExportPrefix, class.Slug(), mode)
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Request describes one batch.
type Request struct {
	ClassName shared.ClassName
	Mode      Mode
	Anchor    timeutil.Date
}

// Batcher expands a request, resolves every date and lays the blocks out on pages.
type Batcher struct {
	resolver *journal.Resolver
	layout   Layout
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithLayout overrides the default page layout.
func WithLayout(l Layout) BatcherOption {
	return func(b *Batcher) {
		if l.IsValid() {
			b.layout = l
		}
	}
}

// NewBatcher creates a Batcher.
func NewBatcher(opts ...BatcherOption) *Batcher {
	b := &Batcher{
		resolver: journal.NewResolver(),
		layout:   DefaultLayout(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Layout returns the page layout in use.
func (b *Batcher) Layout() Layout {
	return b.layout
}

// Build produces the batch from inputs that are already fully loaded.
// A date that fails to resolve becomes an error block; it never aborts the batch.
func (b *Batcher) Build(id string, req Request, snap *journal.Snapshot) (*Batch, error) {
	if !req.Mode.IsValid() {
		return nil, shared.NewDomainError("report", "Build", shared.ErrInvalidMode,
			fmt.Sprintf("unknown mode %q", req.Mode))
	}

	batch := &Batch{
		ID:         id,
		ClassName:  req.ClassName,
		Mode:       req.Mode,
		Anchor:     req.Anchor,
		ExportName: ExportName(req.ClassName, req.Mode),
	}

	pg := &paginator{layout: b.layout}
	for _, d := range Expand(req.Mode, req.Anchor) {
		if snap.IsSemesterBreak(d) {
			batch.Skipped = append(batch.Skipped, d)
			continue
		}

		day := b.resolve(d, snap)
		pg.add(Block{Day: day, Height: b.layout.BlockHeight(day)})
	}

	batch.Pages = pg.result()
	return batch, nil
}

func (b *Batcher) resolve(d timeutil.Date, snap *journal.Snapshot) journal.DayResolution {
	in, ok := snap.InputsFor(d)
	if !ok {
		return errorDay(d, fmt.Sprintf("%s %s", shared.ErrInputsMissing.Message, d))
	}

	day, err := b.resolver.Resolve(d, in)
	if err != nil {
		return errorDay(d, err.Error())
	}
	return day
}

func errorDay(d timeutil.Date, detail string) journal.DayResolution {
	return journal.DayResolution{
		Date:               d,
		WeekdayName:        timeutil.WeekdayNameID(d.Weekday()),
		Entries:            []journal.Entry{},
		IsNonInstructional: true,
		Reason:             journal.ReasonError,
		Detail:             detail,
	}
}
