package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceFormat identifies a supported statement format.
type SourceFormat string

const (
	FormatCSV SourceFormat = "csv"
	FormatOFX SourceFormat = "ofx"
)

// ImportJobStatus tracks an import commit attempt.
type ImportJobStatus string

const (
	JobProcessing ImportJobStatus = "processing"
	JobCompleted  ImportJobStatus = "completed"
	JobFailed     ImportJobStatus = "failed"
)

// ImportStep is the last commit step an import job finished. It lets a
// recovery pass resume or fail a job interrupted between steps.
type ImportStep string

const (
	StepJobCreated          ImportStep = "job_created"
	StepRowsWritten         ImportStep = "rows_written"
	StepTransactionsWritten ImportStep = "transactions_written"
	StepCompleted           ImportStep = "completed"
)

// ImportJob is the audit header of one committed import.
type ImportJob struct {
	ID             string          `json:"id"`
	PeriodID       string          `json:"period_id"`
	SourceFormat   SourceFormat    `json:"source_format"`
	FileName       string          `json:"file_name"`
	BillDate       *Date           `json:"bill_date,omitempty"` // card statements only
	Status         ImportJobStatus `json:"status"`
	Step           ImportStep      `json:"step"`
	IdempotencyKey string          `json:"idempotency_key"`
	TotalRows      int             `json:"total_rows"`
	ValidRows      int             `json:"valid_rows"`
	DuplicateRows  int             `json:"duplicate_rows"`
	ErrorRows      int             `json:"error_rows"`
	ImportedRows   int             `json:"imported_rows"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// ImportJobRow is the immutable audit record of one previewed row.
type ImportJobRow struct {
	ID             string          `json:"id"`
	JobID          string          `json:"job_id"`
	PeriodID       string          `json:"period_id"`
	CategoryID     string          `json:"category_id,omitempty"`
	RowIndex       int             `json:"row_index"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Type           TransactionType `json:"type"`
	OccurrenceDate *Date           `json:"occurrence_date,omitempty"`
	DedupeKey      string          `json:"dedupe_key"`
	Status         string          `json:"status"`
	IsDuplicate    bool            `json:"is_duplicate"`
	IsError        bool            `json:"is_error"`
	ErrorReason    string          `json:"error_reason,omitempty"`
	RawPayload     map[string]any  `json:"raw_payload,omitempty"`
}
