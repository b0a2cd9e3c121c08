// Package importer commits a reviewed statement to the ledger. A commit is
// a saga of four writes (job header, audit rows, transactions, job
// completion). The job header records the last finished step so Recover
// can finish or fail a commit that was interrupted between writes.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/store"
)

var (
	ErrNothingToImport  = errors.New("no rows ready to import")
	ErrPeriodClosed     = errors.New("period is closed")
	ErrBillDateRequired = errors.New("card statements need a bill date")
	ErrCommitInProgress = errors.New("another import is being committed")
	ErrAlreadyCommitted = errors.New("this statement was already imported")
	ErrTimeout          = errors.New("import timed out")
)

const DefaultTimeout = 30 * time.Second

// Request is one reviewed statement.
type Request struct {
	Tenant   string
	PeriodID string // active period; ignored for card statements
	FileName string
	Format   models.SourceFormat
	Rows     []review.PreviewRow
	CardMode bool
	// BillDate settles every imported row on that date, whatever the
	// statement kind. Card statements require it.
	BillDate *models.Date
}

// Result is what the caller shows after a commit.
type Result struct {
	JobID      string `json:"job_id"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Errors     int    `json:"errors"`
	Cancelled  int    `json:"cancelled"`
}

// Importer runs commits one at a time.
type Importer struct {
	ledger  Ledger
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

type Option func(*Importer)

func WithTimeout(d time.Duration) Option {
	return func(i *Importer) {
		if d > 0 {
			i.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New returns a new Importer writing through ledger.
func New(ledger Ledger, logger *log.Logger, opts ...Option) *Importer {
	i := &Importer{ledger: ledger, logger: logger, timeout: DefaultTimeout, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Import commits the ready rows of req. A second call while one is running
// fails with ErrCommitInProgress. Every store call shares a context bounded
// by the configured timeout. Import returns ErrTimeout once that expires even
// if the store ignores cancellation; the commit lock is held until the
// abandoned write returns.
func (i *Importer) Import(ctx context.Context, req Request) (Result, error) {
	if !i.mu.TryLock() {
		return Result{}, ErrCommitInProgress
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer i.mu.Unlock()
		res, err := i.commit(ctx, req)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return o.res, fmt.Errorf("%w after %s: %w", ErrTimeout, i.timeout, o.err)
		}
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			i.logger.Warn("import abandoned", "file", req.FileName, "timeout", i.timeout)
			return Result{}, fmt.Errorf("%w after %s: %w", ErrTimeout, i.timeout, ctx.Err())
		}
		return Result{}, ctx.Err()
	}
}

func (i *Importer) commit(ctx context.Context, req Request) (Result, error) {
	period, err := i.targetPeriod(ctx, req)
	if err != nil {
		return Result{}, err
	}

	preview := review.NewPreview(req.Rows)
	ready := preview.Ready()
	if len(ready) == 0 {
		return Result{}, ErrNothingToImport
	}
	counts := preview.Counts()

	job := models.ImportJob{
		PeriodID:       period.ID,
		SourceFormat:   req.Format,
		FileName:       req.FileName,
		Status:         models.JobProcessing,
		Step:           models.StepJobCreated,
		IdempotencyKey: IdempotencyKey(req.FileName, period.ID, ready),
		TotalRows:      counts.Total,
		ValidRows:      len(ready),
		DuplicateRows:  counts.Duplicate,
		ErrorRows:      counts.Error,
		CreatedAt:      i.now(),
	}
	if req.BillDate != nil {
		job.BillDate = req.BillDate
	}

	start := i.now()
	step := func(n int, name string) {
		i.logger.Debug("import step done", "step", n, "name", name, "job_id", job.ID, "elapsed", i.now().Sub(start))
	}

	job, err = i.ledger.InsertImportJob(ctx, req.Tenant, job)
	if store.IsCode(err, store.CodeUniqueViolation) {
		return Result{}, ErrAlreadyCommitted
	}
	if err != nil {
		return Result{}, fmt.Errorf("create import job: %w", err)
	}
	step(1, "job")

	rows := make([]models.ImportJobRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, auditRow(job, r))
	}
	if err := i.ledger.InsertImportJobRows(ctx, req.Tenant, rows); err != nil {
		i.abandon(ctx, req.Tenant, job, err)
		return Result{JobID: job.ID}, fmt.Errorf("write import rows: %w", err)
	}
	if err := i.advance(ctx, req.Tenant, &job, models.StepRowsWritten); err != nil {
		i.abandon(ctx, req.Tenant, job, err)
		return Result{JobID: job.ID}, err
	}
	step(2, "rows")

	txs := make([]models.Transaction, 0, len(ready))
	for _, r := range ready {
		txs = append(txs, transaction(job, r.CategoryID, r.Description, r.Amount, r.Type, r.OccurrenceDate))
	}
	if _, err := i.ledger.InsertTransactions(ctx, req.Tenant, txs); err != nil {
		return Result{JobID: job.ID}, fmt.Errorf("write transactions: %w", err)
	}
	step(3, "transactions")

	if err := i.complete(ctx, req.Tenant, &job, len(txs)); err != nil {
		return Result{JobID: job.ID}, err
	}
	step(4, "complete")

	i.logger.Info("import committed", "job_id", job.ID, "file", req.FileName, "imported", len(txs),
		"duplicates", counts.Duplicate, "errors", counts.Error, "cancelled", counts.Cancelled)
	return Result{
		JobID:      job.ID,
		Imported:   len(txs),
		Duplicates: counts.Duplicate,
		Errors:     counts.Error,
		Cancelled:  counts.Cancelled,
	}, nil
}

// targetPeriod re-reads the period so a close that happened during review
// is honored. Card statements land in the period of their bill date.
func (i *Importer) targetPeriod(ctx context.Context, req Request) (models.FiscalPeriod, error) {
	var (
		period models.FiscalPeriod
		err    error
	)
	if req.CardMode {
		if req.BillDate == nil {
			return period, ErrBillDateRequired
		}
		period, err = i.ledger.EnsurePeriodForDate(ctx, req.Tenant, *req.BillDate)
	} else {
		period, err = i.ledger.GetPeriod(ctx, req.Tenant, req.PeriodID)
	}
	if err != nil {
		return period, fmt.Errorf("load period: %w", err)
	}
	if period.Closed() {
		return period, fmt.Errorf("%w: %s", ErrPeriodClosed, period.Start.Time().Format("2006-01"))
	}
	return period, nil
}

func (i *Importer) advance(ctx context.Context, tenant string, job *models.ImportJob, s models.ImportStep) error {
	next := *job
	next.Step = s
	if err := i.ledger.UpdateImportJob(ctx, tenant, next); err != nil {
		return fmt.Errorf("record step %s: %w", s, err)
	}
	*job = next
	return nil
}

// abandon fails a job that stopped before its audit rows were recorded.
// Recover could only fail it later, so it is failed now and its
// idempotency key is released for a retry. Errors are logged; Recover
// still catches a job left processing.
func (i *Importer) abandon(ctx context.Context, tenant string, job models.ImportJob, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()
	job.Status = models.JobFailed
	job.FailureReason = "commit stopped before recording rows: " + cause.Error()
	if err := i.ledger.UpdateImportJob(ctx, tenant, job); err != nil {
		i.logger.Warn("could not fail import job", "job_id", job.ID, "err", err)
	}
}

func (i *Importer) complete(ctx context.Context, tenant string, job *models.ImportJob, imported int) error {
	next := *job
	now := i.now()
	next.Status = models.JobCompleted
	next.Step = models.StepCompleted
	next.ImportedRows = imported
	next.CompletedAt = &now
	if err := i.ledger.UpdateImportJob(ctx, tenant, next); err != nil {
		return fmt.Errorf("complete import job: %w", err)
	}
	*job = next
	return nil
}

// IdempotencyKey fingerprints a commit: the same file with the same ready
// rows into the same period always yields the same key.
func IdempotencyKey(fileName, periodID string, ready []review.PreviewRow) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s", fileName, periodID)
	for _, r := range ready {
		fmt.Fprintf(h, "\x00%s\x00%s", r.DedupeKey, r.CategoryID)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func auditRow(job models.ImportJob, r review.PreviewRow) models.ImportJobRow {
	return models.ImportJobRow{
		JobID:          job.ID,
		PeriodID:       job.PeriodID,
		CategoryID:     r.CategoryID,
		RowIndex:       r.RowIndex,
		Description:    r.Description,
		Amount:         r.Amount,
		Type:           r.Type,
		OccurrenceDate: r.OccurrenceDate,
		DedupeKey:      r.DedupeKey,
		Status:         string(r.Status),
		IsDuplicate:    r.IsDuplicate,
		IsError:        r.Status == review.StatusError,
		ErrorReason:    r.ErrorReason,
		RawPayload:     r.RawPayload,
	}
}
