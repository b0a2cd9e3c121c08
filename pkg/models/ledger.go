package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies ledger entries. A nil WorkspaceID marks a global
// category shared by every tenant. Categories are only ever soft-deleted.
type Category struct {
	ID                 string          `json:"id" yaml:"id"`
	WorkspaceID        *string         `json:"workspace_id,omitempty" yaml:"workspace_id,omitempty"`
	GroupID            string          `json:"group_id" yaml:"group_id"`
	Code               string          `json:"code" yaml:"code"`
	Name               string          `json:"name" yaml:"name"`
	DefaultType        TransactionType `json:"default_type" yaml:"default_type"`
	DefaultIsRecurring bool            `json:"default_is_recurring" yaml:"default_is_recurring"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// Active reports whether the category has not been soft-deleted.
func (c Category) Active() bool { return c.DeletedAt == nil }

// ActiveCategories filters out soft-deleted categories, keeping order.
func ActiveCategories(all []Category) []Category {
	out := make([]Category, 0, len(all))
	for _, c := range all {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// CategoryGroup groups categories for display.
type CategoryGroup struct {
	ID          string     `json:"id" yaml:"id"`
	WorkspaceID *string    `json:"workspace_id,omitempty" yaml:"workspace_id,omitempty"`
	Code        string     `json:"code" yaml:"code"`
	Name        string     `json:"name" yaml:"name"`
	SortOrder   int        `json:"sort_order" yaml:"sort_order"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// FiscalPeriod is the month bucket that owns transactions.
type FiscalPeriod struct {
	ID       string     `json:"id"`
	Start    Date       `json:"period_start"`
	End      Date       `json:"period_end"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// Closed reports whether the period no longer accepts writes.
func (p FiscalPeriod) Closed() bool { return p.ClosedAt != nil }

// Contains reports whether d falls within the period bounds, inclusive.
func (p FiscalPeriod) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// RecurrenceRule is a monthly template expanded into one transaction per period.
type RecurrenceRule struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	DayOfMonth  int             `json:"day_of_month"`
	StartMonth  Date            `json:"start_month"`
	EndMonth    *Date           `json:"end_month,omitempty"`
	Active      bool            `json:"active"`
}

// AppliesTo reports whether the rule's month window covers the period start.
func (r RecurrenceRule) AppliesTo(periodStart Date) bool {
	if r.StartMonth.After(periodStart) {
		return false
	}
	return r.EndMonth == nil || !periodStart.After(*r.EndMonth)
}
