// Package recurrence expands monthly recurrence rules into one planned
// transaction per rule per fiscal period.
package recurrence

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

// Ledger is the slice of store.Ledger the materializer needs.
type Ledger interface {
	ListRecurrenceRules(ctx context.Context, tenant string, activeOnly bool) ([]models.RecurrenceRule, error)
	InsertRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) (models.RecurrenceRule, error)
	UpdateRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) error
	QueryTransactions(ctx context.Context, tenant string, f store.TransactionFilter) ([]models.Transaction, error)
	InsertTransactions(ctx context.Context, tenant string, txs []models.Transaction) ([]models.Transaction, error)
	UpsertTransactions(ctx context.Context, tenant string, txs []models.Transaction, target store.ConflictTarget, ignoreDuplicates bool) (int, error)
}

// Outcome reports one Sync.
type Outcome struct {
	Rules    int  `json:"rules"`    // rules applying to the period
	Written  int  `json:"written"`  // transactions created
	Fallback bool `json:"fallback"` // the description+type strategy was used
}

type Materializer struct {
	ledger Ledger
	logger *log.Logger
}

func New(ledger Ledger, logger *log.Logger) *Materializer {
	return &Materializer{ledger: ledger, logger: logger}
}

// Key is the materialization key of rule in the period starting at start.
func Key(ruleID string, start models.Date) string {
	return ruleID + ":" + start.String()
}

// OccurrenceDate clamps the rule's day to the last day of the month.
func OccurrenceDate(day int, period models.FiscalPeriod) models.Date {
	last := period.Start.MonthEnd().Day
	switch {
	case day < 1:
		day = 1
	case day > last:
		day = last
	}
	return models.Date{Year: period.Start.Year, Month: period.Start.Month, Day: day}
}

// Sync materializes every active rule covering period. Running it again for
// the same period writes nothing. When the store has no materialization key
// column it falls back to skipping rules whose description and type already
// appear among the period's recurring entries; two distinct rules sharing a
// description and type then yield a single entry.
func (m *Materializer) Sync(ctx context.Context, tenant string, period models.FiscalPeriod) (Outcome, error) {
	rules, err := m.ledger.ListRecurrenceRules(ctx, tenant, true)
	if err != nil {
		return Outcome{}, fmt.Errorf("list recurrence rules: %w", err)
	}

	var txs []models.Transaction
	for _, r := range rules {
		if !r.AppliesTo(period.Start) {
			continue
		}
		key := Key(r.ID, period.Start)
		txs = append(txs, models.Transaction{
			PeriodID:                     period.ID,
			CategoryID:                   r.CategoryID,
			Description:                  r.Description,
			Amount:                       r.Amount,
			Type:                         r.Type,
			Status:                       models.Planned,
			IsRecurring:                  true,
			PlannedDate:                  OccurrenceDate(r.DayOfMonth, period).Ptr(),
			RecurrenceMaterializationKey: &key,
		})
	}
	out := Outcome{Rules: len(txs)}
	if len(txs) == 0 {
		return out, nil
	}

	n, err := m.ledger.UpsertTransactions(ctx, tenant, txs, store.ConflictMaterializationKey, true)
	switch {
	case err == nil:
		out.Written = n
	case store.IsCode(err, store.CodeUndefinedColumn, store.CodeInvalidConflictTarget):
		m.logger.Warn("materialization key unsupported, matching on description and type", "tenant", tenant, "period", period.Start, "err", err)
		out.Fallback = true
		if out.Written, err = m.fallback(ctx, tenant, period, txs); err != nil {
			return out, err
		}
	default:
		return out, fmt.Errorf("materialize recurrences: %w", err)
	}

	m.logger.Info("recurrences synced", "tenant", tenant, "period", period.Start, "rules", out.Rules, "written", out.Written)
	return out, nil
}

func (m *Materializer) fallback(ctx context.Context, tenant string, period models.FiscalPeriod, txs []models.Transaction) (int, error) {
	recurring := true
	existing, err := m.ledger.QueryTransactions(ctx, tenant, store.TransactionFilter{PeriodID: period.ID, Recurring: &recurring})
	if err != nil {
		return 0, fmt.Errorf("load recurring entries: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.Description+"::"+string(t.Type)] = struct{}{}
	}

	var missing []models.Transaction
	for _, t := range txs {
		k := t.Description + "::" + string(t.Type)
		// Only stored entries count; rules sharing a description and type
		// all insert on the first run.
		if _, ok := seen[k]; ok {
			continue
		}
		t.RecurrenceMaterializationKey = nil
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if _, err := m.ledger.InsertTransactions(ctx, tenant, missing); err != nil {
		return 0, fmt.Errorf("insert recurrences: %w", err)
	}
	return len(missing), nil
}

// RuleInput describes a recurring entry saved from a transaction.
type RuleInput struct {
	CategoryID  string
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	DayOfMonth  int
	BaseDate    models.Date
}

// SaveRule updates the active rule with the same category and description,
// or creates a monthly rule starting in the month of BaseDate.
func (m *Materializer) SaveRule(ctx context.Context, tenant string, in RuleInput) (models.RecurrenceRule, error) {
	rules, err := m.ledger.ListRecurrenceRules(ctx, tenant, true)
	if err != nil {
		return models.RecurrenceRule{}, fmt.Errorf("list recurrence rules: %w", err)
	}
	for _, r := range rules {
		if r.CategoryID != in.CategoryID || r.Description != in.Description {
			continue
		}
		r.Amount, r.Type, r.DayOfMonth = in.Amount, in.Type, in.DayOfMonth
		if err := m.ledger.UpdateRecurrenceRule(ctx, tenant, r); err != nil {
			return r, fmt.Errorf("update recurrence rule: %w", err)
		}
		m.logger.Debug("recurrence rule updated", "rule_id", r.ID)
		return r, nil
	}

	r, err := m.ledger.InsertRecurrenceRule(ctx, tenant, models.RecurrenceRule{
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		DayOfMonth:  in.DayOfMonth,
		StartMonth:  in.BaseDate.MonthStart(),
		Active:      true,
	})
	if err != nil {
		return r, fmt.Errorf("insert recurrence rule: %w", err)
	}
	m.logger.Debug("recurrence rule created", "rule_id", r.ID)
	return r, nil
}
