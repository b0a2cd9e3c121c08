// Package service is the surface the host (CLI, HTTP server, plan
// executor) drives: it owns review sessions and wires parsing, duplicate
// detection, categorization, commit and recurrence sync together.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/recurrence"
	"github.com/yurifrl/conciliar/pkg/store"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

var (
	ErrNoPreview       = errors.New("no statement previewed")
	ErrUnknownCategory = errors.New("unknown category")
)

const (
	fallbackName  = "Outros"
	fallbackGroup = "Geral"
)

type Service struct {
	ledger     store.Ledger
	parser     *parser.Parser
	importer   *importer.Importer
	recurrence *recurrence.Materializer
	logger     *log.Logger
	tenant     string

	mu     sync.Mutex
	synced map[string]bool // period ids synced by this process
}

type Option func(*options)

type options struct {
	commitTimeout time.Duration
	now           func() time.Time
}

func WithCommitTimeout(d time.Duration) Option {
	return func(o *options) { o.commitTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(ledger store.Ledger, p *parser.Parser, logger *log.Logger, tenant string, opts ...Option) *Service {
	o := options{commitTimeout: importer.DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		ledger:     ledger,
		parser:     p,
		importer:   importer.New(ledger, logger, importer.WithTimeout(o.commitTimeout), importer.WithClock(o.now)),
		recurrence: recurrence.New(ledger, logger),
		logger:     logger,
		tenant:     tenant,
		synced:     make(map[string]bool),
	}
}

func (s *Service) Tenant() string { return s.tenant }

// Ledger exposes the store for read-only listings.
func (s *Service) Ledger() store.Ledger { return s.ledger }

// Period returns the fiscal period with id.
func (s *Service) Period(ctx context.Context, id string) (models.FiscalPeriod, error) {
	return s.ledger.GetPeriod(ctx, s.tenant, id)
}

// PeriodFor returns the period covering d, creating it.
func (s *Service) PeriodFor(ctx context.Context, d models.Date) (models.FiscalPeriod, error) {
	return s.ledger.EnsurePeriodForDate(ctx, s.tenant, d)
}

// Categories returns the active categories visible to the tenant.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	all, err := s.ledger.ListCategories(ctx, s.tenant)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return models.ActiveCategories(all), nil
}

// DeleteCategory soft-deletes a tenant category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.ledger.DeleteCategory(ctx, s.tenant, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// CreateCategory adds a category, creating the default group when the
// tenant has none. The code is derived from the name.
func (s *Service) CreateCategory(ctx context.Context, name string, typ models.TransactionType) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name is required")
	}
	group, err := s.ensureGroup(ctx)
	if err != nil {
		return models.Category{}, err
	}
	c, err := s.ledger.InsertCategory(ctx, s.tenant, models.Category{
		GroupID:     group.ID,
		Code:        textnorm.Slug(name),
		Name:        name,
		DefaultType: typ,
	})
	if err != nil {
		return c, fmt.Errorf("create category: %w", err)
	}
	s.logger.Info("category created", "id", c.ID, "code", c.Code, "type", typ)
	return c, nil
}

func (s *Service) ensureGroup(ctx context.Context) (models.CategoryGroup, error) {
	groups, err := s.ledger.ListCategoryGroups(ctx, s.tenant)
	if err != nil {
		return models.CategoryGroup{}, fmt.Errorf("list category groups: %w", err)
	}
	for _, g := range groups {
		if g.DeletedAt == nil {
			return g, nil
		}
	}
	g, err := s.ledger.InsertCategoryGroup(ctx, s.tenant, models.CategoryGroup{
		Code: strings.ToUpper(textnorm.Slug(fallbackGroup)),
		Name: fallbackGroup,
	})
	if err != nil {
		return g, fmt.Errorf("create category group: %w", err)
	}
	return g, nil
}

// ensureFallbackCategory returns the "Outros" category of typ, creating it.
func (s *Service) ensureFallbackCategory(ctx context.Context, typ models.TransactionType) (models.Category, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range cats {
		if c.DefaultType == typ && (strings.Contains(textnorm.Search(c.Name), "outros") || strings.Contains(textnorm.Search(c.Code), "outros")) {
			return c, nil
		}
	}
	return s.CreateCategory(ctx, fallbackName, typ)
}

// SyncRecurrences materializes recurrence rules into the period once per
// process. Pass force to run it again.
func (s *Service) SyncRecurrences(ctx context.Context, periodID string, force bool) (recurrence.Outcome, error) {
	s.mu.Lock()
	done := s.synced[periodID]
	s.mu.Unlock()
	if done && !force {
		return recurrence.Outcome{}, nil
	}

	period, err := s.ledger.GetPeriod(ctx, s.tenant, periodID)
	if err != nil {
		return recurrence.Outcome{}, fmt.Errorf("load period: %w", err)
	}
	out, err := s.recurrence.Sync(ctx, s.tenant, period)
	if err != nil {
		return out, err
	}

	s.mu.Lock()
	s.synced[periodID] = true
	s.mu.Unlock()
	return out, nil
}

// SaveRecurrenceRule creates or updates the monthly rule for a recurring entry.
func (s *Service) SaveRecurrenceRule(ctx context.Context, in recurrence.RuleInput) (models.RecurrenceRule, error) {
	return s.recurrence.SaveRule(ctx, s.tenant, in)
}

// Recover settles import jobs left in processing.
func (s *Service) Recover(ctx context.Context) (importer.Recovery, error) {
	return s.importer.Recover(ctx, s.tenant)
}

// ImportJobs lists import jobs, optionally by status.
func (s *Service) ImportJobs(ctx context.Context, status models.ImportJobStatus) ([]models.ImportJob, error) {
	return s.ledger.ListImportJobs(ctx, s.tenant, status)
}

// Transactions lists ledger entries of a period, or all when periodID is empty.
func (s *Service) Transactions(ctx context.Context, periodID string) ([]models.Transaction, error) {
	return s.ledger.QueryTransactions(ctx, s.tenant, store.TransactionFilter{PeriodID: periodID})
}
