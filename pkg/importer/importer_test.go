package importer_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/conciliar/pkg/importer"
	mock_importer "github.com/yurifrl/conciliar/pkg/importer/mocks"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/store"
	"github.com/yurifrl/conciliar/pkg/store/memory"
)

const tenant = "ws"

func quiet() *log.Logger { return log.New(io.Discard) }

func row(i int, desc string, status review.Status, category string) review.PreviewRow {
	return review.PreviewRow{
		CandidateRow: parser.CandidateRow{
			RowIndex:       i,
			Description:    desc,
			Amount:         decimal.RequireFromString("10.50"),
			Type:           models.Expense,
			OccurrenceDate: models.NewDate(2024, 3, i).Ptr(),
		},
		DedupeKey:   desc,
		CategoryID:  category,
		IsDuplicate: status == review.StatusDuplicate,
		Status:      status,
	}
}

func reviewed() []review.PreviewRow {
	return []review.PreviewRow{
		row(1, "mercado", review.StatusOK, "cat-mercado"),
		row(2, "uber", review.StatusDuplicate, "cat-transporte"),
		row(3, "--", review.StatusError, ""),
		row(4, "padaria", review.StatusCancelled, "cat-mercado"),
		row(5, "farmacia", review.StatusNeedsCategory, "cat-outros"),
		row(6, "cinema", review.StatusOK, "cat-lazer"),
	}
}

func openPeriod(t *testing.T, s *memory.Store) models.FiscalPeriod {
	t.Helper()
	p, err := s.EnsurePeriodForDate(context.Background(), tenant, models.NewDate(2024, 3, 1))
	require.NoError(t, err)
	return p
}

func TestImportCommitsReadyRows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	imp := importer.New(s, quiet())

	res, err := imp.Import(ctx, importer.Request{
		Tenant: tenant, PeriodID: period.ID, FileName: "extrato.csv", Format: models.FormatCSV, Rows: reviewed(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Cancelled)

	txs, err := s.QueryTransactions(ctx, tenant, store.TransactionFilter{ImportJobID: res.JobID})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, models.Planned, tx.Status)
		assert.Equal(t, period.ID, tx.PeriodID)
		assert.Equal(t, "imported from csv", tx.Notes)
		assert.NotEqual(t, "farmacia", tx.Description, "needs_category rows are never committed")
	}

	job, err := s.GetImportJob(ctx, tenant, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, models.StepCompleted, job.Step)
	assert.Equal(t, 2, job.ImportedRows)
	assert.Equal(t, 6, job.TotalRows)
	assert.NotNil(t, job.CompletedAt)

	audit, err := s.ListImportJobRows(ctx, tenant, res.JobID)
	require.NoError(t, err)
	assert.Len(t, audit, 6, "every previewed row is audited")
	assert.True(t, audit[2].IsError)
	assert.True(t, audit[1].IsDuplicate)
}

func TestImportCardStatementSettlesOnBillDate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	imp := importer.New(s, quiet())
	bill := models.NewDate(2024, 4, 10)

	_, err := imp.Import(ctx, importer.Request{Tenant: tenant, FileName: "fatura.csv", Rows: reviewed(), CardMode: true})
	assert.ErrorIs(t, err, importer.ErrBillDateRequired)

	res, err := imp.Import(ctx, importer.Request{
		Tenant: tenant, FileName: "fatura.csv", Format: models.FormatCSV, Rows: reviewed(), CardMode: true, BillDate: &bill,
	})
	require.NoError(t, err)

	txs, _ := s.QueryTransactions(ctx, tenant, store.TransactionFilter{ImportJobID: res.JobID})
	require.Len(t, txs, 2)
	assert.Equal(t, models.Settled, txs[0].Status)
	assert.True(t, txs[0].IsCreditCard)
	assert.Equal(t, bill, *txs[0].SettledAt)
	assert.Equal(t, bill, *txs[0].CreditCardBillDate)

	period, err := s.GetPeriod(ctx, tenant, txs[0].PeriodID)
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, 4, 1), period.Start)
}

func TestBankImportWithBillDateIsSettled(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	bill := models.NewDate(2024, 3, 25)

	res, err := importer.New(s, quiet()).Import(ctx, importer.Request{
		Tenant: tenant, PeriodID: period.ID, FileName: "extrato.csv", Rows: reviewed(), BillDate: &bill,
	})
	require.NoError(t, err)

	txs, _ := s.QueryTransactions(ctx, tenant, store.TransactionFilter{ImportJobID: res.JobID})
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, models.Settled, tx.Status)
		assert.Equal(t, bill, *tx.SettledAt)
		assert.Equal(t, period.ID, tx.PeriodID, "bank imports stay in the requested period")
	}
	job, _ := s.GetImportJob(ctx, tenant, res.JobID)
	require.NotNil(t, job.BillDate)
	assert.Equal(t, bill, *job.BillDate)
}

func TestImportPreconditions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	imp := importer.New(s, quiet())

	_, err := imp.Import(ctx, importer.Request{Tenant: tenant, PeriodID: period.ID, Rows: []review.PreviewRow{
		row(1, "farmacia", review.StatusNeedsCategory, "cat-outros"),
		row(2, "uber", review.StatusDuplicate, "cat-transporte"),
	}})
	assert.ErrorIs(t, err, importer.ErrNothingToImport)

	require.NoError(t, s.ClosePeriod(ctx, tenant, period.ID))
	_, err = imp.Import(ctx, importer.Request{Tenant: tenant, PeriodID: period.ID, Rows: reviewed()})
	assert.ErrorIs(t, err, importer.ErrPeriodClosed)

	jobs, _ := s.ListImportJobs(ctx, tenant, "")
	assert.Empty(t, jobs)
}

func TestImportTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	imp := importer.New(s, quiet())
	req := importer.Request{Tenant: tenant, PeriodID: period.ID, FileName: "extrato.csv", Rows: reviewed()}

	_, err := imp.Import(ctx, req)
	require.NoError(t, err)
	_, err = imp.Import(ctx, req)
	assert.ErrorIs(t, err, importer.ErrAlreadyCommitted)

	txs, _ := s.QueryTransactions(ctx, tenant, store.TransactionFilter{})
	assert.Len(t, txs, 2)
}

func TestImportStopsAtFailedStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	period := models.FiscalPeriod{ID: "p1", Start: models.NewDate(2024, 3, 1), End: models.NewDate(2024, 3, 31)}
	boom := &store.Error{Op: "insert", Collection: store.Transactions, Code: store.CodeUnavailable, Err: errors.New("connection reset")}

	ledger := mock_importer.NewMockLedger(ctrl)
	ledger.EXPECT().GetPeriod(gomock.Any(), tenant, "p1").Return(period, nil)
	ledger.EXPECT().InsertImportJob(gomock.Any(), tenant, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, job models.ImportJob) (models.ImportJob, error) {
			assert.Equal(t, models.JobProcessing, job.Status)
			assert.Equal(t, models.StepJobCreated, job.Step)
			assert.Equal(t, 2, job.ValidRows)
			assert.NotEmpty(t, job.IdempotencyKey)
			job.ID = "job-1"
			return job, nil
		})
	ledger.EXPECT().InsertImportJobRows(gomock.Any(), tenant, gomock.Len(6)).Return(nil)
	ledger.EXPECT().UpdateImportJob(gomock.Any(), tenant, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, job models.ImportJob) error {
			assert.Equal(t, models.StepRowsWritten, job.Step)
			return nil
		})
	ledger.EXPECT().InsertTransactions(gomock.Any(), tenant, gomock.Len(2)).Return(nil, boom)

	res, err := importer.New(ledger, quiet()).Import(ctx, importer.Request{Tenant: tenant, PeriodID: "p1", Rows: reviewed()})
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeUnavailable))
	assert.Equal(t, "job-1", res.JobID)
}

func TestImportTimeoutCancelsStoreCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mock_importer.NewMockLedger(ctrl)
	ledger.EXPECT().GetPeriod(gomock.Any(), tenant, "p1").Return(models.FiscalPeriod{ID: "p1"}, nil)
	ledger.EXPECT().InsertImportJob(gomock.Any(), tenant, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ models.ImportJob) (models.ImportJob, error) {
			<-ctx.Done()
			return models.ImportJob{}, ctx.Err()
		})

	imp := importer.New(ledger, quiet(), importer.WithTimeout(20*time.Millisecond))
	_, err := imp.Import(context.Background(), importer.Request{Tenant: tenant, PeriodID: "p1", Rows: reviewed()})
	assert.ErrorIs(t, err, importer.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImportTimeoutWhenStoreIgnoresContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})
	ledger := mock_importer.NewMockLedger(ctrl)
	ledger.EXPECT().GetPeriod(gomock.Any(), tenant, "p1").Return(models.FiscalPeriod{ID: "p1"}, nil)
	ledger.EXPECT().InsertImportJob(gomock.Any(), tenant, gomock.Any()).
		DoAndReturn(func(context.Context, string, models.ImportJob) (models.ImportJob, error) {
			<-release
			return models.ImportJob{}, errors.New("connection reset")
		})

	imp := importer.New(ledger, quiet(), importer.WithTimeout(20*time.Millisecond))
	req := importer.Request{Tenant: tenant, PeriodID: "p1", Rows: reviewed()}

	start := time.Now()
	_, err := imp.Import(context.Background(), req)
	assert.ErrorIs(t, err, importer.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// The stuck write still holds the commit lock.
	_, err = imp.Import(context.Background(), req)
	assert.ErrorIs(t, err, importer.ErrCommitInProgress)
	close(release)
}

func TestImportRejectsConcurrentCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	release := make(chan struct{})
	ledger := mock_importer.NewMockLedger(ctrl)
	ledger.EXPECT().GetPeriod(gomock.Any(), tenant, "p1").
		DoAndReturn(func(context.Context, string, string) (models.FiscalPeriod, error) {
			close(started)
			<-release
			return models.FiscalPeriod{}, errors.New("unavailable")
		})

	imp := importer.New(ledger, quiet())
	done := make(chan error)
	go func() {
		_, err := imp.Import(context.Background(), importer.Request{Tenant: tenant, PeriodID: "p1", Rows: reviewed()})
		done <- err
	}()

	<-started
	_, err := imp.Import(context.Background(), importer.Request{Tenant: tenant, PeriodID: "p1", Rows: reviewed()})
	assert.ErrorIs(t, err, importer.ErrCommitInProgress)
	close(release)
	assert.Error(t, <-done)
}

// failingRows fails the audit row write a fixed number of times.
type failingRows struct {
	*memory.Store
	fails int
}

func (f *failingRows) InsertImportJobRows(ctx context.Context, tenant string, rows []models.ImportJobRow) error {
	if f.fails > 0 {
		f.fails--
		return &store.Error{Op: "insert", Collection: store.ImportJobRows, Code: store.CodeUnavailable, Err: errors.New("connection reset")}
	}
	return f.Store.InsertImportJobRows(ctx, tenant, rows)
}

func TestRetryAfterFailedCommit(t *testing.T) {
	ctx := context.Background()
	s := &failingRows{Store: memory.New(), fails: 1}
	period := openPeriod(t, s.Store)
	imp := importer.New(s, quiet())
	req := importer.Request{Tenant: tenant, PeriodID: period.ID, FileName: "extrato.csv", Rows: reviewed()}

	first, err := imp.Import(ctx, req)
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeUnavailable))

	failed, err := s.GetImportJob(ctx, tenant, first.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, failed.Status)
	assert.Contains(t, failed.FailureReason, "connection reset")

	rec, err := imp.Recover(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, rec.Failed)
	assert.Empty(t, rec.Completed)

	res, err := imp.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.NotEqual(t, first.JobID, res.JobID)

	_, err = imp.Import(ctx, req)
	assert.ErrorIs(t, err, importer.ErrAlreadyCommitted)
}

func TestRetryAfterRecoveredJob(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	imp := importer.New(s, quiet())
	req := importer.Request{Tenant: tenant, PeriodID: period.ID, FileName: "extrato.csv", Rows: reviewed()}

	// A commit that died right after creating its job.
	stuck, err := s.InsertImportJob(ctx, tenant, models.ImportJob{
		PeriodID: period.ID, Status: models.JobProcessing, Step: models.StepJobCreated, ValidRows: 2,
		IdempotencyKey: importer.IdempotencyKey(req.FileName, period.ID, review.NewPreview(req.Rows).Ready()),
	})
	require.NoError(t, err)

	_, err = imp.Import(ctx, req)
	assert.ErrorIs(t, err, importer.ErrAlreadyCommitted)

	rec, err := imp.Recover(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, []string{stuck.ID}, rec.Failed)

	res, err := imp.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	txs, _ := s.QueryTransactions(ctx, tenant, store.TransactionFilter{})
	assert.Len(t, txs, 2)
}

func TestRecover(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	period := openPeriod(t, s)
	imp := importer.New(s, quiet())

	// Interrupted before the audit rows.
	early, err := s.InsertImportJob(ctx, tenant, models.ImportJob{
		PeriodID: period.ID, Status: models.JobProcessing, Step: models.StepJobCreated, ValidRows: 1,
	})
	require.NoError(t, err)

	// Interrupted after the audit rows: transactions are rebuilt from them.
	mid, err := s.InsertImportJob(ctx, tenant, models.ImportJob{
		PeriodID: period.ID, SourceFormat: models.FormatOFX, Status: models.JobProcessing, Step: models.StepRowsWritten, ValidRows: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertImportJobRows(ctx, tenant, []models.ImportJobRow{
		{JobID: mid.ID, RowIndex: 1, Description: "mercado", Amount: decimal.NewFromInt(30), Type: models.Expense, CategoryID: "c", Status: "ok"},
		{JobID: mid.ID, RowIndex: 2, Description: "uber", Amount: decimal.NewFromInt(12), Type: models.Expense, CategoryID: "c", Status: "duplicate"},
	}))

	// Only the completion update is missing.
	late, err := s.InsertImportJob(ctx, tenant, models.ImportJob{
		PeriodID: period.ID, Status: models.JobProcessing, Step: models.StepTransactionsWritten, ValidRows: 1,
	})
	require.NoError(t, err)
	_, err = s.InsertTransactions(ctx, tenant, []models.Transaction{{Description: "cinema", ImportJobID: late.ID}})
	require.NoError(t, err)

	rec, err := imp.Recover(ctx, tenant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mid.ID, late.ID}, rec.Completed)
	assert.Equal(t, []string{early.ID}, rec.Failed)

	got, _ := s.GetImportJob(ctx, tenant, early.ID)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.NotEmpty(t, got.FailureReason)

	rebuilt, _ := s.QueryTransactions(ctx, tenant, store.TransactionFilter{ImportJobID: mid.ID})
	require.Len(t, rebuilt, 1)
	assert.Equal(t, "mercado", rebuilt[0].Description)
	assert.Equal(t, "imported from ofx", rebuilt[0].Notes)

	pending, _ := s.ListImportJobs(ctx, tenant, models.JobProcessing)
	assert.Empty(t, pending)
}
