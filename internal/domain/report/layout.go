package report

import (
	"strconv"
	"strings"

	"github.com/guruku/jurnal/internal/domain/journal"
)

// Layout holds the printable page geometry, in millimetres.
// Block heights are estimated from the entry count; rendering may measure
// exactly instead as long as a block never crosses a page boundary.
type Layout struct {
	PageHeight      float64 `json:"page_height"`
	DayHeader       float64 `json:"day_header"`
	TableHeader     float64 `json:"table_header"`
	RowHeight       float64 `json:"row_height"`
	SignatureHeight float64 `json:"signature_height"`
}

// DefaultLayout is an A4 portrait page with 20 mm top and bottom margins.
func DefaultLayout() Layout {
	return Layout{
		PageHeight:      257,
		DayHeader:       10,
		TableHeader:     9,
		RowHeight:       12,
		SignatureHeight: 30,
	}
}

// IsValid checks that every dimension is usable.
func (l Layout) IsValid() bool {
	return l.PageHeight > 0 && l.DayHeader >= 0 && l.TableHeader >= 0 &&
		l.RowHeight > 0 && l.SignatureHeight >= 0
}

// Fingerprint names the geometry compactly, e.g. "257x10x9x12x30".
// Batches paginated with different layouts never share a fingerprint.
func (l Layout) Fingerprint() string {
	dims := []float64{l.PageHeight, l.DayHeader, l.TableHeader, l.RowHeight, l.SignatureHeight}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return strings.Join(parts, "x")
}

// BlockHeight estimates the printed height of one day.
// Signature space is reserved only when the day has at least one entry.
func (l Layout) BlockHeight(day journal.DayResolution) float64 {
	h := l.DayHeader + l.TableHeader + float64(len(day.Entries))*l.RowHeight
	if day.HasEntries() {
		h += l.SignatureHeight
	}
	return h
}

// paginator places blocks on pages without ever splitting one.
type paginator struct {
	layout Layout
	pages  []Page
	used   float64
}

func (p *paginator) add(b Block) {
	if len(p.pages) == 0 {
		p.pages = append(p.pages, Page{Number: 1})
	}
	current := &p.pages[len(p.pages)-1]

	// An oversized block still gets a page of its own.
	if len(current.Blocks) > 0 && p.used+b.Height > p.layout.PageHeight {
		p.pages = append(p.pages, Page{Number: len(p.pages) + 1})
		current = &p.pages[len(p.pages)-1]
		p.used = 0
	}

	current.Blocks = append(current.Blocks, b)
	p.used += b.Height
}

func (p *paginator) result() []Page {
	if p.pages == nil {
		return []Page{}
	}
	return p.pages
}
