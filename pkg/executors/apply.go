package executors

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/plan"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

// Apply seeds the plan's categories, materializes recurrences for every
// period it touches, then previews and commits each statement in order.
// Statements with nothing ready, or already committed, are skipped.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) ([]Report, error) {
	e.logger.Debug("applying plan", "statements", len(p.Statements), "categories", len(p.Categories))

	if err := e.seedCategories(ctx, p.Categories); err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(p.Statements))
	for _, st := range p.Statements {
		period, err := e.svc.PeriodFor(ctx, st.Period)
		if err != nil {
			return reports, fmt.Errorf("statement %s: %w", st.File, err)
		}
		if _, err := e.svc.SyncRecurrences(ctx, period.ID, false); err != nil {
			return reports, fmt.Errorf("statement %s: %w", st.File, err)
		}
		session, err := e.preview(ctx, st)
		if err != nil {
			return reports, err
		}

		rep := Report{File: filepath.Base(st.File), Period: session.PeriodID(), Counts: session.State().Counts}
		res, err := session.ConfirmImport(ctx)
		switch {
		case errors.Is(err, importer.ErrNothingToImport), errors.Is(err, importer.ErrAlreadyCommitted):
			e.logger.Info("skipping statement", "file", st.File, "reason", err)
		case err != nil:
			return reports, fmt.Errorf("statement %s: %w", st.File, err)
		default:
			rep.Result = &res
			e.logger.Info("imported statement", "file", st.File, "imported", res.Imported, "job_id", res.JobID)
		}
		reports = append(reports, rep)
	}

	PrintSummary(e.out, reports)
	return reports, nil
}

func (e *Executor) seedCategories(ctx context.Context, seeds []plan.CategorySeed) error {
	if len(seeds) == 0 {
		return nil
	}
	existing, err := e.svc.Categories(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[seedKey(c.Name, string(c.DefaultType))] = true
	}

	for _, s := range seeds {
		if known[seedKey(s.Name, string(s.Type))] {
			continue
		}
		c, err := e.svc.CreateCategory(ctx, s.Name, s.Type)
		if err != nil {
			return fmt.Errorf("category %s: %w", s.Name, err)
		}
		known[seedKey(s.Name, string(s.Type))] = true
		e.logger.Info("created category", "name", c.Name, "type", c.DefaultType, "id", c.ID)
	}
	return nil
}

func seedKey(name, typ string) string {
	return strings.Join([]string{textnorm.Search(name), typ}, "/")
}
