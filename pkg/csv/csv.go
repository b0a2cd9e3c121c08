// Package csv exports preview rows and ledger entries as CSV.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/review"
)

type Record interface {
	Date() string
	Description() string
	Category() string
	Type() models.TransactionType
	Amount() decimal.Decimal
	Status() string
}

type FilterFunc[T Record] func(T) bool

var header = []string{"date", "description", "category", "type", "amount", "amount_brl", "status"}

// Create writes the records passing filter. Amounts are signed: expenses
// and investments are negative.
func Create[T Record](records []T, filter FilterFunc[T]) []byte {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	_ = w.Write(header)
	for _, r := range records {
		if filter != nil && !filter(r) {
			continue
		}
		amount := Signed(r.Amount(), r.Type())
		_ = w.Write([]string{
			r.Date(),
			r.Description(),
			r.Category(),
			string(r.Type()),
			amount.StringFixed(2),
			models.FormatBRL(amount),
			r.Status(),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// Signed applies the sign implied by typ to an absolute amount.
func Signed(amount decimal.Decimal, typ models.TransactionType) decimal.Decimal {
	switch typ {
	case models.Expense, models.Investment:
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// Row adapts a preview row. Names maps category ids to display names.
type Row struct {
	review.PreviewRow
	Names map[string]string
}

func (r Row) Date() string                 { return dateString(r.OccurrenceDate) }
func (r Row) Description() string          { return r.PreviewRow.Description }
func (r Row) Category() string             { return r.Names[r.CategoryID] }
func (r Row) Type() models.TransactionType { return r.PreviewRow.Type }
func (r Row) Amount() decimal.Decimal      { return r.PreviewRow.Amount }
func (r Row) Status() string               { return string(r.PreviewRow.Status) }

// Entry adapts a ledger transaction.
type Entry struct {
	models.Transaction
	Names map[string]string
}

func (e Entry) Date() string                 { return dateString(e.OccurrenceDate()) }
func (e Entry) Description() string          { return e.Transaction.Description }
func (e Entry) Category() string             { return e.Names[e.CategoryID] }
func (e Entry) Type() models.TransactionType { return e.Transaction.Type }
func (e Entry) Amount() decimal.Decimal      { return e.Transaction.Amount }
func (e Entry) Status() string               { return string(e.Transaction.Status) }

// CategoryNames indexes categories by id.
func CategoryNames(categories []models.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

// Rows wraps preview rows for Create.
func Rows(rows []review.PreviewRow, names map[string]string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{PreviewRow: r, Names: names}
	}
	return out
}

// Entries wraps transactions for Create.
func Entries(txs []models.Transaction, names map[string]string) []Entry {
	out := make([]Entry, len(txs))
	for i, t := range txs {
		out[i] = Entry{Transaction: t, Names: names}
	}
	return out
}
