package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/yurifrl/conciliar/pkg/categorize"
	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/store"
)

// Session is one statement under review for one period. Its methods are
// safe for concurrent use; every edit swaps in a new immutable preview.
type Session struct {
	svc      *Service
	periodID string

	mu         sync.Mutex
	preview    *review.Preview
	fileName   string
	format     models.SourceFormat
	cardMode   bool
	billDate   *models.Date
	categories []models.Category

	// OnCategoriesChanged is called after a quick category is created.
	OnCategoriesChanged func([]models.Category)
}

// NewSession opens a review session for the period with periodID.
func (s *Service) NewSession(periodID string) *Session {
	return &Session{svc: s, periodID: periodID}
}

func (s *Session) PeriodID() string { return s.periodID }

// State is a snapshot of the session for display.
type State struct {
	FileName string              `json:"file_name"`
	Format   models.SourceFormat `json:"format"`
	CardMode bool                `json:"card_mode"`
	BillDate *models.Date        `json:"bill_date,omitempty"`
	Rows     []review.PreviewRow `json:"rows"`
	Counts   review.Counts       `json:"counts"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{FileName: s.fileName, Format: s.format, CardMode: s.cardMode, BillDate: s.billDate}
	if s.preview != nil {
		st.Rows = s.preview.Rows()
		st.Counts = s.preview.Counts()
	}
	return st
}

// Categories returns the active categories the preview was resolved against.
func (s *Session) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Category(nil), s.categories...)
}

// SetBillDate sets the bill date a card statement is settled on.
func (s *Session) SetBillDate(d *models.Date) {
	s.mu.Lock()
	s.billDate = d
	s.mu.Unlock()
}

// PreviewFile parses a statement and classifies every row against the
// period's ledger entries and the tenant's categories. Rows left without a
// category get the "Outros" category of their type pre-selected and stay
// needs_category until the user confirms a choice.
func (s *Session) PreviewFile(ctx context.Context, fileName string, data []byte) ([]review.PreviewRow, error) {
	svc := s.svc
	format, candidates, err := svc.parser.ProcessBytes(data, fileName)
	if err != nil {
		return nil, err
	}

	period, err := svc.ledger.GetPeriod(ctx, svc.tenant, s.periodID)
	if err != nil {
		return nil, fmt.Errorf("load period: %w", err)
	}
	existing, err := svc.ledger.QueryTransactions(ctx, svc.tenant, store.TransactionFilter{PeriodID: period.ID})
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	categories, err := svc.Categories(ctx)
	if err != nil {
		return nil, err
	}

	card := parser.IsCardStatement(fileName)
	in := review.Input{Categories: categories, Existing: existing, CardMode: card, Period: &period}
	preview := review.Build(candidates, in)

	fallbacks := map[models.TransactionType]string{}
	for _, r := range preview.Rows() {
		if r.Status != review.StatusNeedsCategory || r.CategoryID != "" {
			continue
		}
		if _, ok := fallbacks[r.Type]; ok {
			continue
		}
		c, err := svc.ensureFallbackCategory(ctx, r.Type)
		if err != nil {
			return nil, err
		}
		fallbacks[r.Type] = c.ID
	}
	if len(fallbacks) > 0 {
		preview = preview.Map(func(r review.PreviewRow) review.PreviewRow {
			if r.Status == review.StatusNeedsCategory && r.CategoryID == "" {
				r.CategoryID = fallbacks[r.Type]
			}
			return r
		})
		if categories, err = svc.Categories(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.preview = preview
	s.fileName = fileName
	s.format = format
	s.cardMode = card
	s.categories = categories
	s.mu.Unlock()

	counts := preview.Counts()
	svc.logger.Info("statement previewed", "file", fileName, "format", format, "card", card,
		"total", counts.Total, "ready", counts.Ready, "duplicate", counts.Duplicate,
		"error", counts.Error, "needs_category", counts.NeedsCategory)
	return preview.Rows(), nil
}

// ChangeRowCategory assigns a category to a row. An empty id clears it.
func (s *Session) ChangeRowCategory(key review.RowKey, categoryID string) (review.PreviewRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preview == nil {
		return review.PreviewRow{}, ErrNoPreview
	}
	var cat models.Category
	if categoryID != "" {
		var ok bool
		if cat, ok = categorize.Find(s.categories, categoryID); !ok {
			return review.PreviewRow{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
		}
	}
	next, err := s.preview.Update(key, func(r review.PreviewRow) (review.PreviewRow, error) {
		return r.WithCategory(cat)
	})
	if err != nil {
		return review.PreviewRow{}, err
	}
	s.preview = next
	row, _ := next.Get(key)
	return row, nil
}

// ChangeRowStatus applies a user override of a row's status.
func (s *Session) ChangeRowStatus(key review.RowKey, status review.Status) (review.PreviewRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preview == nil {
		return review.PreviewRow{}, ErrNoPreview
	}
	next, err := s.preview.Update(key, func(r review.PreviewRow) (review.PreviewRow, error) {
		return r.WithStatus(status)
	})
	if err != nil {
		return review.PreviewRow{}, err
	}
	s.preview = next
	row, _ := next.Get(key)
	return row, nil
}

// CreateQuickCategory creates a category during review and assigns it to
// every row of the same type still waiting for a category. Rows are
// re-resolved against the preview current at completion, so edits made
// while the category was being created are kept.
func (s *Session) CreateQuickCategory(ctx context.Context, name string, typ models.TransactionType) (models.Category, error) {
	c, err := s.svc.CreateCategory(ctx, name, typ)
	if err != nil {
		return c, err
	}
	categories, err := s.svc.Categories(ctx)
	if err != nil {
		return c, err
	}

	s.mu.Lock()
	s.categories = categories
	if s.preview != nil {
		s.preview = s.preview.Map(func(r review.PreviewRow) review.PreviewRow {
			if r.Type != typ || r.Status != review.StatusNeedsCategory {
				return r
			}
			next, err := r.WithCategory(c)
			if err != nil {
				return r
			}
			return next
		})
	}
	notify := s.OnCategoriesChanged
	s.mu.Unlock()

	if notify != nil {
		notify(categories)
	}
	return c, nil
}

// ConfirmImport commits the ready rows. On success the preview is cleared
// so the same statement cannot be confirmed twice from this session.
func (s *Session) ConfirmImport(ctx context.Context) (importer.Result, error) {
	s.mu.Lock()
	if s.preview == nil {
		s.mu.Unlock()
		return importer.Result{}, ErrNoPreview
	}
	req := importer.Request{
		Tenant:   s.svc.tenant,
		PeriodID: s.periodID,
		FileName: s.fileName,
		Format:   s.format,
		Rows:     s.preview.Rows(),
		CardMode: s.cardMode,
		BillDate: s.billDate,
	}
	s.mu.Unlock()

	res, err := s.svc.importer.Import(ctx, req)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	s.preview = nil
	s.mu.Unlock()
	return res, nil
}
