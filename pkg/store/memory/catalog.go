package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

func (s *Store) ListCategories(ctx context.Context, tenant string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.t(store.Global, false).categories)
	if tenant != store.Global {
		out = append(out, s.t(tenant, false).categories...)
	}
	return out, nil
}

func (s *Store) InsertCategory(ctx context.Context, tenant string, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.WorkspaceID = nil
	if tenant != store.Global {
		c.WorkspaceID = &tenant
	}
	td := s.t(tenant, true)
	td.categories = append(td.categories, c)
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, tenant string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.categories {
		if td.categories[i].ID == id {
			now := s.now()
			td.categories[i].DeletedAt = &now
			return nil
		}
	}
	return store.NotFound("delete", store.Categories, id)
}

func (s *Store) ListCategoryGroups(ctx context.Context, tenant string) ([]models.CategoryGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.t(store.Global, false).groups)
	if tenant != store.Global {
		out = append(out, s.t(tenant, false).groups...)
	}
	return out, nil
}

func (s *Store) InsertCategoryGroup(ctx context.Context, tenant string, g models.CategoryGroup) (models.CategoryGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.WorkspaceID = nil
	if tenant != store.Global {
		g.WorkspaceID = &tenant
	}
	td := s.t(tenant, true)
	td.groups = append(td.groups, g)
	return g, nil
}

func (s *Store) ListRecurrenceRules(ctx context.Context, tenant string, activeOnly bool) ([]models.RecurrenceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.RecurrenceRule
	for _, r := range s.t(tenant, false).rules {
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) InsertRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) (models.RecurrenceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	td := s.t(tenant, true)
	td.rules = append(td.rules, r)
	return r, nil
}

func (s *Store) UpdateRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.rules {
		if td.rules[i].ID == r.ID {
			td.rules[i] = r
			return nil
		}
	}
	return store.NotFound("update", store.RecurrenceRules, r.ID)
}

func (s *Store) GetPeriod(ctx context.Context, tenant string, id string) (models.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.t(tenant, false).periods {
		if p.ID == id {
			return p, nil
		}
	}
	return models.FiscalPeriod{}, store.NotFound("get", store.FiscalPeriods, id)
}

func (s *Store) EnsurePeriodForDate(ctx context.Context, tenant string, d models.Date) (models.FiscalPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for _, p := range td.periods {
		if p.Contains(d) {
			return p, nil
		}
	}
	p := store.MonthPeriod(uuid.NewString(), d)
	td.periods = append(td.periods, p)
	return p, nil
}

func (s *Store) ClosePeriod(ctx context.Context, tenant string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.periods {
		if td.periods[i].ID == id {
			now := s.now()
			td.periods[i].ClosedAt = &now
			return nil
		}
	}
	return store.NotFound("close", store.FiscalPeriods, id)
}
