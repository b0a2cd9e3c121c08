package executors_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/conciliar/pkg/executors"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/plan"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/service"
	"github.com/yurifrl/conciliar/pkg/store"
	"github.com/yurifrl/conciliar/pkg/store/memory"
)

const statement = "data;descricao;valor\n" +
	"07/03/2024;Supermercado Extra;-120,00\n" +
	"08/03/2024;--;-10,00\n"

func newExecutor(t *testing.T, s *memory.Store) (*executors.Executor, *service.Service, *bytes.Buffer) {
	t.Helper()
	logger := log.New(io.Discard)
	svc := service.New(s, parser.New(logger), logger, "casa")
	var out bytes.Buffer
	return executors.New(logger, svc, executors.WithOutput(&out)), svc, &out
}

func writePlan(t *testing.T, categories ...plan.CategorySeed) *plan.Plan {
	t.Helper()
	file := filepath.Join(t.TempDir(), "extrato.csv")
	require.NoError(t, os.WriteFile(file, []byte(statement), 0o644))
	return &plan.Plan{
		Categories: categories,
		Statements: []plan.Statement{{File: file, Period: models.NewDate(2024, 3, 15)}},
	}
}

func TestPlanDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := s.InsertCategory(ctx, store.Global, models.Category{Code: "mercado", Name: "Mercado", DefaultType: models.Expense})
	require.NoError(t, err)
	exec, svc, out := newExecutor(t, s)

	reports, err := exec.Plan(ctx, writePlan(t))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, review.Counts{Total: 2, Ready: 1, Error: 1}, reports[0].Counts)
	assert.Nil(t, reports[0].Result)

	assert.Contains(t, out.String(), "Supermercado Extra")
	assert.Contains(t, out.String(), review.ReasonNoDescription)
	assert.Contains(t, out.String(), "Plan: 1 transaction(s) ready to import from 1 statement(s)")

	txs, err := svc.Transactions(ctx, reports[0].Period)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestApplySeedsAndCommits(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	exec, svc, out := newExecutor(t, s)
	p := writePlan(t, plan.CategorySeed{Name: "Mercado", Type: models.Expense})

	reports, err := exec.Apply(ctx, p)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Result)
	assert.Equal(t, 1, reports[0].Result.Imported)
	assert.Equal(t, 1, reports[0].Result.Errors)
	assert.Contains(t, out.String(), "Apply: 1 transaction(s) imported")

	// A second run finds the row already in the ledger and skips the file.
	reports, err = exec.Apply(ctx, p)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Nil(t, reports[0].Result)
	assert.Equal(t, 1, reports[0].Counts.Duplicate)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	var mercado int
	for _, c := range categories {
		if c.Name == "Mercado" {
			mercado++
		}
	}
	assert.Equal(t, 1, mercado)
}

func TestApplySeedsMatchExistingCategories(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := s.InsertCategory(ctx, store.Global, models.Category{Code: "saude", Name: "Saúde", DefaultType: models.Expense})
	require.NoError(t, err)
	exec, svc, _ := newExecutor(t, s)
	p := writePlan(t,
		plan.CategorySeed{Name: "Mercado", Type: models.Expense},
		plan.CategorySeed{Name: "SAUDE", Type: models.Expense},
		plan.CategorySeed{Name: "Saúde", Type: models.Income},
	)

	_, err = exec.Apply(ctx, p)
	require.NoError(t, err)
	first, err := svc.Categories(ctx)
	require.NoError(t, err)

	_, err = exec.Apply(ctx, p)
	require.NoError(t, err)
	second, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(first), "re-seeding creates nothing")

	byType := map[models.TransactionType]int{}
	for _, c := range second {
		if c.Code == "saude" {
			byType[c.DefaultType]++
		}
	}
	assert.Equal(t, 1, byType[models.Expense], "accent and case variants match the stored category")
	assert.Equal(t, 1, byType[models.Income], "a different type is a different category")
}

func TestPlanMissingFile(t *testing.T) {
	exec, _, _ := newExecutor(t, memory.New())
	p := &plan.Plan{Statements: []plan.Statement{{File: "/nonexistent/extrato.csv", Period: models.NewDate(2024, 3, 1)}}}

	_, err := exec.Plan(context.Background(), p)
	assert.ErrorContains(t, err, "error reading file")
}

func TestRenderRow(t *testing.T) {
	d := models.NewDate(2024, 3, 7)
	row := review.PreviewRow{
		CandidateRow: parser.CandidateRow{RowIndex: 2, Description: "Supermercado Extra", Amount: decimal.NewFromInt(120), Type: models.Expense, OccurrenceDate: &d},
		CategoryID:   "m",
		Status:       review.StatusOK,
	}
	line := executors.RenderRow(row, map[string]string{"m": "Mercado"})
	assert.Contains(t, line, "+    2 | 2024-03-07 | Supermercado Extra")
	assert.Contains(t, line, "Mercado")
	assert.Contains(t, line, "R$120,00")
}
