package importer

import (
	"context"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

// Ledger is the part of store.Ledger the commit pipeline writes through.
//
//go:generate mockgen -destination=mocks/mock_ledger.go -source=ledger.go Ledger
type Ledger interface {
	GetPeriod(ctx context.Context, tenant string, id string) (models.FiscalPeriod, error)
	EnsurePeriodForDate(ctx context.Context, tenant string, d models.Date) (models.FiscalPeriod, error)
	InsertImportJob(ctx context.Context, tenant string, job models.ImportJob) (models.ImportJob, error)
	UpdateImportJob(ctx context.Context, tenant string, job models.ImportJob) error
	ListImportJobs(ctx context.Context, tenant string, status models.ImportJobStatus) ([]models.ImportJob, error)
	InsertImportJobRows(ctx context.Context, tenant string, rows []models.ImportJobRow) error
	ListImportJobRows(ctx context.Context, tenant string, jobID string) ([]models.ImportJobRow, error)
	InsertTransactions(ctx context.Context, tenant string, txs []models.Transaction) ([]models.Transaction, error)
	QueryTransactions(ctx context.Context, tenant string, f store.TransactionFilter) ([]models.Transaction, error)
}

var _ Ledger = store.Ledger(nil)
