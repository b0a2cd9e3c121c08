package review

import (
	"fmt"
)

// Counts summarizes a preview.
type Counts struct {
	Total         int `json:"total"`
	Ready         int `json:"ready"`
	Duplicate     int `json:"duplicate"`
	Error         int `json:"error"`
	NeedsCategory int `json:"needs_category"`
	Cancelled     int `json:"cancelled"`
}

// Preview is an ordered, immutable list of rows keyed by RowKey.
type Preview struct {
	rows  []PreviewRow
	index map[RowKey]int
}

// NewPreview keeps rows in the given order.
func NewPreview(rows []PreviewRow) *Preview {
	p := &Preview{
		rows:  append([]PreviewRow(nil), rows...),
		index: make(map[RowKey]int, len(rows)),
	}
	for i, r := range p.rows {
		p.index[r.Key()] = i
	}
	return p
}

// Rows returns a copy of the rows in file order.
func (p *Preview) Rows() []PreviewRow {
	return append([]PreviewRow(nil), p.rows...)
}

func (p *Preview) Len() int { return len(p.rows) }

// Get looks a row up by key.
func (p *Preview) Get(k RowKey) (PreviewRow, bool) {
	i, ok := p.index[k]
	if !ok {
		return PreviewRow{}, false
	}
	return p.rows[i], true
}

// Update applies fn to the row at k and returns a new Preview holding the
// result. The receiver is unchanged.
func (p *Preview) Update(k RowKey, fn func(PreviewRow) (PreviewRow, error)) (*Preview, error) {
	i, ok := p.index[k]
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrRowNotFound, k)
	}
	next, err := fn(p.rows[i])
	if err != nil {
		return p, err
	}
	rows := p.Rows()
	rows[i] = next
	return NewPreview(rows), nil
}

// Map applies fn to every row and returns a new Preview.
func (p *Preview) Map(fn func(PreviewRow) PreviewRow) *Preview {
	rows := p.Rows()
	for i := range rows {
		rows[i] = fn(rows[i])
	}
	return NewPreview(rows)
}

// Ready returns the rows that would become transactions.
func (p *Preview) Ready() []PreviewRow {
	var out []PreviewRow
	for _, r := range p.rows {
		if r.Ready() {
			out = append(out, r)
		}
	}
	return out
}

func (p *Preview) Counts() Counts {
	c := Counts{Total: len(p.rows)}
	for _, r := range p.rows {
		if r.Ready() {
			c.Ready++
		}
		switch r.Status {
		case StatusDuplicate:
			c.Duplicate++
		case StatusError:
			c.Error++
		case StatusNeedsCategory:
			c.NeedsCategory++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
