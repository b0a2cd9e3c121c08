package importer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/store"
)

// Recovery lists the jobs a Recover pass settled.
type Recovery struct {
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
}

// Recover settles every job left in processing by an interrupted commit.
//
//   - job_created: the audit rows were never written, so nothing can be
//     rebuilt and the job is failed.
//   - rows_written: transactions are rebuilt from the audit rows when none
//     were written, then the job is completed. A partial write fails it.
//   - transactions_written: only the completion update is missing.
func (i *Importer) Recover(ctx context.Context, tenant string) (Recovery, error) {
	if !i.mu.TryLock() {
		return Recovery{}, ErrCommitInProgress
	}
	defer i.mu.Unlock()

	jobs, err := i.ledger.ListImportJobs(ctx, tenant, models.JobProcessing)
	if err != nil {
		return Recovery{}, fmt.Errorf("list pending imports: %w", err)
	}

	var rec Recovery
	for _, job := range jobs {
		done, reason, err := i.resume(ctx, tenant, job)
		if err != nil {
			return rec, fmt.Errorf("recover job %s: %w", job.ID, err)
		}
		if done {
			rec.Completed = append(rec.Completed, job.ID)
			continue
		}
		job.Status = models.JobFailed
		job.FailureReason = reason
		if err := i.ledger.UpdateImportJob(ctx, tenant, job); err != nil {
			return rec, fmt.Errorf("fail job %s: %w", job.ID, err)
		}
		i.logger.Warn("import job failed", "job_id", job.ID, "step", job.Step, "reason", reason)
		rec.Failed = append(rec.Failed, job.ID)
	}
	return rec, nil
}

func (i *Importer) resume(ctx context.Context, tenant string, job models.ImportJob) (bool, string, error) {
	if job.Step == models.StepJobCreated || job.Step == "" {
		return false, "interrupted before audit rows were written", nil
	}

	existing, err := i.ledger.QueryTransactions(ctx, tenant, store.TransactionFilter{ImportJobID: job.ID})
	if err != nil {
		return false, "", err
	}

	if job.Step == models.StepRowsWritten && len(existing) == 0 {
		rows, err := i.ledger.ListImportJobRows(ctx, tenant, job.ID)
		if err != nil {
			return false, "", err
		}
		var txs []models.Transaction
		for _, r := range rows {
			if r.Status == string(review.StatusOK) && r.CategoryID != "" {
				txs = append(txs, transaction(job, r.CategoryID, r.Description, r.Amount, r.Type, r.OccurrenceDate))
			}
		}
		if len(txs) != job.ValidRows {
			return false, fmt.Sprintf("audit holds %d ready rows, job expected %d", len(txs), job.ValidRows), nil
		}
		if existing, err = i.ledger.InsertTransactions(ctx, tenant, txs); err != nil {
			return false, "", err
		}
	}

	if len(existing) != job.ValidRows {
		return false, fmt.Sprintf("found %d of %d transactions", len(existing), job.ValidRows), nil
	}
	if err := i.complete(ctx, tenant, &job, len(existing)); err != nil {
		return false, "", err
	}
	i.logger.Info("import job recovered", "job_id", job.ID, "imported", len(existing))
	return true, "", nil
}

// transaction builds the ledger entry for one committed row. Rows of a job
// carrying a bill date are settled on it; everything else stays planned.
func transaction(job models.ImportJob, categoryID, description string, amount decimal.Decimal, typ models.TransactionType, date *models.Date) models.Transaction {
	t := models.Transaction{
		PeriodID:    job.PeriodID,
		CategoryID:  categoryID,
		Description: description,
		Amount:      amount,
		Type:        typ,
		Status:      models.Planned,
		PlannedDate: date,
		Notes:       "imported from " + string(job.SourceFormat),
		ImportJobID: job.ID,
	}
	if job.BillDate != nil {
		t.Status = models.Settled
		t.SettledAt = job.BillDate
		t.CreditCardBillDate = job.BillDate
		t.IsCreditCard = true
	}
	return t
}
