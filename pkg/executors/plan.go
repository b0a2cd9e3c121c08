package executors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/plan"
	"github.com/yurifrl/conciliar/pkg/service"
)

// Plan previews every statement and prints its rows. Nothing is written to
// the ledger.
func (e *Executor) Plan(ctx context.Context, p *plan.Plan) ([]Report, error) {
	e.logger.Debug("planning", "statements", len(p.Statements))

	reports := make([]Report, 0, len(p.Statements))
	for _, st := range p.Statements {
		session, err := e.preview(ctx, st)
		if err != nil {
			return reports, err
		}
		state := session.State()
		names := csv.CategoryNames(session.Categories())

		fmt.Fprintf(e.out, "\n%s (%s)\n", filepath.Base(st.File), state.Format)
		for _, row := range state.Rows {
			fmt.Fprintln(e.out, RenderRow(row, names))
		}
		reports = append(reports, Report{File: filepath.Base(st.File), Period: session.PeriodID(), Counts: state.Counts})
	}

	PrintSummary(e.out, reports)
	return reports, nil
}

// preview opens a session on the statement's period and parses its file.
func (e *Executor) preview(ctx context.Context, st plan.Statement) (*service.Session, error) {
	period, err := e.svc.PeriodFor(ctx, st.Period)
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", st.File, err)
	}
	data, err := os.ReadFile(st.File)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	session := e.svc.NewSession(period.ID)
	session.SetBillDate(st.BillDate)
	if _, err := session.PreviewFile(ctx, filepath.Base(st.File), data); err != nil {
		return nil, fmt.Errorf("statement %s: %w", st.File, err)
	}
	return session, nil
}
