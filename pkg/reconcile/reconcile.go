// Package reconcile fingerprints transactions by their economic content and
// detects statement rows already present in the ledger or earlier in the
// same file.
package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

const (
	// Separator joins key parts. It is folded out of descriptions so a key
	// always has exactly four parts.
	Separator = "|"
	// NoDate stands in for a missing occurrence date.
	NoDate = "no-date"
)

// Key builds the dedupe fingerprint
// "<date|no-date>|<abs amount, 2 places>|<type>|<normalized description>".
// Case, accents and whitespace in the description do not affect it.
func Key(description string, amount decimal.Decimal, typ models.TransactionType, date *models.Date) string {
	datePart := NoDate
	if date != nil {
		datePart = date.String()
	}
	desc := textnorm.Description(strings.ReplaceAll(description, Separator, " "))
	return strings.Join([]string{datePart, amount.Abs().StringFixed(2), string(typ), desc}, Separator)
}

// TransactionKey fingerprints a stored ledger entry using its settlement
// date, falling back to the planned date.
func TransactionKey(t models.Transaction) string {
	return Key(t.Description, t.Amount, t.Type, t.OccurrenceDate())
}

// Status is the outcome of checking one row.
type Status int

const (
	New Status = iota
	Duplicate
)

func (s Status) String() string {
	if s == Duplicate {
		return "duplicate"
	}
	return "new"
}

// Detector remembers every key it has seen: the loaded ledger window plus
// each row checked so far. It is not safe for concurrent use.
type Detector struct {
	seen map[string]struct{}
}

// NewDetector seeds the detector with the keys of existing ledger entries.
func NewDetector(existing []models.Transaction) *Detector {
	d := &Detector{seen: make(map[string]struct{}, len(existing))}
	for _, t := range existing {
		d.seen[TransactionKey(t)] = struct{}{}
	}
	return d
}

// Check reports whether key was already seen and records it otherwise.
// Rows must be checked in file order so that the first occurrence of a
// repeated line stays New.
func (d *Detector) Check(key string) Status {
	if _, ok := d.seen[key]; ok {
		return Duplicate
	}
	d.seen[key] = struct{}{}
	return New
}

// Entry links a row key with its detection outcome.
type Entry struct {
	Key    string
	Status Status
}

// Report is the result of checking a batch of keys in order.
type Report struct {
	Items []Entry
}

// BuildReport checks keys in order against the existing ledger.
func BuildReport(keys []string, existing []models.Transaction) *Report {
	d := NewDetector(existing)
	items := make([]Entry, 0, len(keys))
	for _, k := range keys {
		items = append(items, Entry{Key: k, Status: d.Check(k)})
	}
	return &Report{Items: items}
}

// DuplicateCount returns how many keys were already known.
func (r *Report) DuplicateCount() int {
	n := 0
	for _, e := range r.Items {
		if e.Status == Duplicate {
			n++
		}
	}
	return n
}

// NewCount returns how many keys were seen for the first time.
func (r *Report) NewCount() int {
	return len(r.Items) - r.DuplicateCount()
}
