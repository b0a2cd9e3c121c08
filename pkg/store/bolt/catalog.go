package bolt

import (
	"context"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

func (s *Store) ListCategories(ctx context.Context, tenant string) ([]models.Category, error) {
	var out []models.Category
	err := s.view("list", store.Categories, func(tx *bolt.Tx) error {
		global, err := list[models.Category](readBucket(tx, store.Global, store.Categories), nil)
		if err != nil {
			return err
		}
		out = global
		if tenant == store.Global {
			return nil
		}
		own, err := list[models.Category](readBucket(tx, tenant, store.Categories), nil)
		out = append(out, own...)
		return err
	})
	return out, err
}

func (s *Store) InsertCategory(ctx context.Context, tenant string, c models.Category) (models.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.WorkspaceID = nil
	if tenant != store.Global {
		c.WorkspaceID = &tenant
	}
	err := s.update(ctx, "insert", store.Categories, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Categories)
		if err != nil {
			return err
		}
		return put(b, c.ID, c)
	})
	return c, err
}

func (s *Store) DeleteCategory(ctx context.Context, tenant string, id string) error {
	return s.update(ctx, "delete", store.Categories, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Categories)
		if err != nil {
			return err
		}
		c, ok, err := get[models.Category](b, id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound("delete", store.Categories, id)
		}
		now := s.now()
		c.DeletedAt = &now
		return put(b, id, c)
	})
}

func (s *Store) ListCategoryGroups(ctx context.Context, tenant string) ([]models.CategoryGroup, error) {
	var out []models.CategoryGroup
	err := s.view("list", store.CategoryGroups, func(tx *bolt.Tx) error {
		global, err := list[models.CategoryGroup](readBucket(tx, store.Global, store.CategoryGroups), nil)
		if err != nil {
			return err
		}
		out = global
		if tenant == store.Global {
			return nil
		}
		own, err := list[models.CategoryGroup](readBucket(tx, tenant, store.CategoryGroups), nil)
		out = append(out, own...)
		return err
	})
	return out, err
}

func (s *Store) InsertCategoryGroup(ctx context.Context, tenant string, g models.CategoryGroup) (models.CategoryGroup, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.WorkspaceID = nil
	if tenant != store.Global {
		g.WorkspaceID = &tenant
	}
	err := s.update(ctx, "insert", store.CategoryGroups, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.CategoryGroups)
		if err != nil {
			return err
		}
		return put(b, g.ID, g)
	})
	return g, err
}

func (s *Store) ListRecurrenceRules(ctx context.Context, tenant string, activeOnly bool) ([]models.RecurrenceRule, error) {
	var out []models.RecurrenceRule
	err := s.view("list", store.RecurrenceRules, func(tx *bolt.Tx) error {
		var err error
		out, err = list(readBucket(tx, tenant, store.RecurrenceRules), func(r models.RecurrenceRule) bool {
			return !activeOnly || r.Active
		})
		return err
	})
	return out, err
}

func (s *Store) InsertRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) (models.RecurrenceRule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	err := s.update(ctx, "insert", store.RecurrenceRules, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.RecurrenceRules)
		if err != nil {
			return err
		}
		return put(b, r.ID, r)
	})
	return r, err
}

func (s *Store) UpdateRecurrenceRule(ctx context.Context, tenant string, r models.RecurrenceRule) error {
	return s.update(ctx, "update", store.RecurrenceRules, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.RecurrenceRules)
		if err != nil {
			return err
		}
		if _, ok, err := get[models.RecurrenceRule](b, r.ID); err != nil || !ok {
			if err == nil {
				err = store.NotFound("update", store.RecurrenceRules, r.ID)
			}
			return err
		}
		return put(b, r.ID, r)
	})
}

func (s *Store) GetPeriod(ctx context.Context, tenant string, id string) (models.FiscalPeriod, error) {
	var p models.FiscalPeriod
	err := s.view("get", store.FiscalPeriods, func(tx *bolt.Tx) error {
		got, ok, err := get[models.FiscalPeriod](readBucket(tx, tenant, store.FiscalPeriods), id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound("get", store.FiscalPeriods, id)
		}
		p = got
		return nil
	})
	return p, err
}

func (s *Store) EnsurePeriodForDate(ctx context.Context, tenant string, d models.Date) (models.FiscalPeriod, error) {
	var p models.FiscalPeriod
	err := s.update(ctx, "ensure", store.FiscalPeriods, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.FiscalPeriods)
		if err != nil {
			return err
		}
		found, err := list(b, func(fp models.FiscalPeriod) bool { return fp.Contains(d) })
		if err != nil {
			return err
		}
		if len(found) > 0 {
			p = found[0]
			return nil
		}
		p = store.MonthPeriod(uuid.NewString(), d)
		return put(b, p.ID, p)
	})
	return p, err
}

func (s *Store) ClosePeriod(ctx context.Context, tenant string, id string) error {
	return s.update(ctx, "close", store.FiscalPeriods, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.FiscalPeriods)
		if err != nil {
			return err
		}
		p, ok, err := get[models.FiscalPeriod](b, id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound("close", store.FiscalPeriods, id)
		}
		now := s.now()
		p.ClosedAt = &now
		return put(b, id, p)
	})
}
