// Package store defines the ledger store consumed by the import engine and
// the recurrence materializer. Every call is scoped to a tenant (workspace).
package store

import (
	"context"

	"github.com/yurifrl/conciliar/pkg/models"
)

// Collection names a record set inside a tenant.
type Collection string

const (
	Transactions    Collection = "transactions"
	Categories      Collection = "categories"
	CategoryGroups  Collection = "category_groups"
	RecurrenceRules Collection = "recurrence_rules"
	ImportJobs      Collection = "import_jobs"
	ImportJobRows   Collection = "import_job_rows"
	FiscalPeriods   Collection = "fiscal_periods"
)

// Global is the tenant holding categories shared by every workspace.
const Global = ""

// ConflictTarget is the unique column set an upsert keys on.
type ConflictTarget string

const ConflictMaterializationKey ConflictTarget = "workspace_id,recurrence_materialization_key"

// TransactionFilter selects ledger entries. Zero fields match everything.
type TransactionFilter struct {
	PeriodID    string
	From, To    *models.Date // on OccurrenceDate, inclusive
	Recurring   *bool
	ImportJobID string
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t models.Transaction) bool {
	if f.PeriodID != "" && t.PeriodID != f.PeriodID {
		return false
	}
	if f.ImportJobID != "" && t.ImportJobID != f.ImportJobID {
		return false
	}
	if f.Recurring != nil && t.IsRecurring != *f.Recurring {
		return false
	}
	if f.From != nil || f.To != nil {
		d := t.OccurrenceDate()
		if d == nil {
			return false
		}
		if f.From != nil && d.Before(*f.From) {
			return false
		}
		if f.To != nil && d.After(*f.To) {
			return false
		}
	}
	return true
}

// Ledger is the remote ledger store. Insert methods assign ids and return
// the stored records. Failures are *Error values.
type Ledger interface {
	QueryTransactions(ctx context.Context, tenant string, f TransactionFilter) ([]models.Transaction, error)
	InsertTransactions(ctx context.Context, tenant string, txs []models.Transaction) ([]models.Transaction, error)
	// UpsertTransactions inserts txs keyed on target. With ignoreDuplicates a
	// conflicting record is skipped, otherwise it replaces the stored one.
	// It returns the number of records written.
	UpsertTransactions(ctx context.Context, tenant string, txs []models.Transaction, target ConflictTarget, ignoreDuplicates bool) (int, error)
	UpdateTransaction(ctx context.Context, tenant string, t models.Transaction) error
	DeleteTransaction(ctx context.Context, tenant string, id string) error

	// ListCategories returns global and tenant categories, soft-deleted included.
	ListCategories(ctx context.Context, tenant string) ([]models.Category, error)
	InsertCategory(ctx context.Context, tenant string, c models.Category) (models.Category, error)
	// DeleteCategory soft-deletes.
	DeleteCategory(ctx context.Context, tenant string, id string) error
	ListCategoryGroups(ctx context.Context, tenant string) ([]models.CategoryGroup, error)
	InsertCategoryGroup(ctx context.Context, tenant string, g models.CategoryGroup) (models.CategoryGroup, error)

	ListRecurrenceRules(ctx context.Context, tenant string, activeOnly bool) ([]models.RecurrenceRule, error)
	InsertRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) (models.RecurrenceRule, error)
	UpdateRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) error

	// InsertImportJob rejects a second job with the same non-empty
	// IdempotencyKey with CodeUniqueViolation. A job updated to JobFailed
	// releases its key.
	InsertImportJob(ctx context.Context, tenant string, job models.ImportJob) (models.ImportJob, error)
	UpdateImportJob(ctx context.Context, tenant string, job models.ImportJob) error
	GetImportJob(ctx context.Context, tenant string, id string) (models.ImportJob, error)
	// ListImportJobs filters by status unless it is empty.
	ListImportJobs(ctx context.Context, tenant string, status models.ImportJobStatus) ([]models.ImportJob, error)
	InsertImportJobRows(ctx context.Context, tenant string, rows []models.ImportJobRow) error
	ListImportJobRows(ctx context.Context, tenant string, jobID string) ([]models.ImportJobRow, error)

	GetPeriod(ctx context.Context, tenant string, id string) (models.FiscalPeriod, error)
	// EnsurePeriodForDate returns the month period containing d, creating it.
	EnsurePeriodForDate(ctx context.Context, tenant string, d models.Date) (models.FiscalPeriod, error)
	ClosePeriod(ctx context.Context, tenant string, id string) error
}
