package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the economic nature of a ledger entry.
type TransactionType string

const (
	Income     TransactionType = "income"
	Expense    TransactionType = "expense"
	Investment TransactionType = "investment"
	Transfer   TransactionType = "transfer"
)

// ParseTransactionType accepts the canonical lowercase names.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case Income, Expense, Investment, Transfer:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// TypeFromSign maps a signed amount to income (>= 0) or expense.
func TypeFromSign(amount decimal.Decimal) TransactionType {
	if amount.Sign() < 0 {
		return Expense
	}
	return Income
}

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	Planned   TransactionStatus = "planned"
	Settled   TransactionStatus = "settled"
	Cancelled TransactionStatus = "cancelled"
)

// Transaction is a ledger entry.
type Transaction struct {
	ID                 string            `json:"id"`
	PeriodID           string            `json:"period_id"`
	CategoryID         string            `json:"category_id"`
	Description        string            `json:"description"`
	Amount             decimal.Decimal   `json:"amount"`
	Type               TransactionType   `json:"type"`
	Status             TransactionStatus `json:"status"`
	IsRecurring        bool              `json:"is_recurring"`
	PlannedDate        *Date             `json:"planned_date,omitempty"`
	SettledAt          *Date             `json:"settled_at,omitempty"`
	IsCreditCard       bool              `json:"is_credit_card"`
	CreditCardBillDate *Date             `json:"credit_card_bill_date,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	ImportJobID        string            `json:"import_job_id,omitempty"`
	// RecurrenceMaterializationKey is "<rule id>:<period start>" for entries
	// created by the recurrence materializer.
	RecurrenceMaterializationKey *string   `json:"recurrence_materialization_key,omitempty"`
	CreatedAt                    time.Time `json:"created_at"`
}

// OccurrenceDate is the settlement date when present, else the planned date.
func (t *Transaction) OccurrenceDate() *Date {
	if t.SettledAt != nil {
		return t.SettledAt
	}
	return t.PlannedDate
}
