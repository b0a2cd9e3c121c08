// Package memory is an in-process Ledger. It is safe for concurrent use and
// loses everything on exit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

type tenant struct {
	transactions []models.Transaction
	categories   []models.Category
	groups       []models.CategoryGroup
	rules        []models.RecurrenceRule
	jobs         []models.ImportJob
	jobRows      []models.ImportJobRow
	periods      []models.FiscalPeriod
}

// Store keeps records per tenant in insertion order.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenant
	now     func() time.Time

	// legacySchema mimics a ledger without the materialization key column.
	legacySchema bool
}

type Option func(*Store)

// WithoutMaterializationKey makes the store reject the recurrence
// materialization key the way an older schema does.
func WithoutMaterializationKey() Option {
	return func(s *Store) { s.legacySchema = true }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{tenants: make(map[string]*tenant), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// t must be called with mu held for writing when create is true.
func (s *Store) t(name string, create bool) *tenant {
	t, ok := s.tenants[name]
	if !ok {
		t = &tenant{}
		if create {
			s.tenants[name] = t
		}
	}
	return t
}

func (s *Store) QueryTransactions(ctx context.Context, tenant string, f store.TransactionFilter) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.Error{Op: "query", Collection: store.Transactions, Code: store.CodeUnavailable, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, t := range s.t(tenant, false).transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) InsertTransactions(ctx context.Context, tenant string, txs []models.Transaction) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.Error{Op: "insert", Collection: store.Transactions, Code: store.CodeUnavailable, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	keys := materializationKeys(td.transactions)
	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if k := t.RecurrenceMaterializationKey; k != nil {
			if s.legacySchema {
				return nil, undefinedColumn("insert")
			}
			if _, dup := keys[*k]; dup {
				return nil, &store.Error{Op: "insert", Collection: store.Transactions, Code: store.CodeUniqueViolation,
					Err: fmt.Errorf("materialization key %q exists", *k)}
			}
			keys[*k] = len(td.transactions) + len(out)
		}
		out = append(out, s.stamp(t))
	}
	td.transactions = append(td.transactions, out...)
	return out, nil
}

func (s *Store) UpsertTransactions(ctx context.Context, tenant string, txs []models.Transaction, target store.ConflictTarget, ignoreDuplicates bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &store.Error{Op: "upsert", Collection: store.Transactions, Code: store.CodeUnavailable, Err: err}
	}
	if target != store.ConflictMaterializationKey {
		return 0, &store.Error{Op: "upsert", Collection: store.Transactions, Code: store.CodeInvalidConflictTarget,
			Err: fmt.Errorf("no unique constraint matching %q", target)}
	}
	if s.legacySchema {
		return 0, undefinedColumn("upsert")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	keys := materializationKeys(td.transactions)
	written := 0
	for _, t := range txs {
		if t.RecurrenceMaterializationKey == nil {
			return written, &store.Error{Op: "upsert", Collection: store.Transactions, Code: store.CodeInvalidConflictTarget,
				Err: fmt.Errorf("record %q has no materialization key", t.Description)}
		}
		if i, dup := keys[*t.RecurrenceMaterializationKey]; dup {
			if ignoreDuplicates {
				continue
			}
			t.ID, t.CreatedAt = td.transactions[i].ID, td.transactions[i].CreatedAt
			td.transactions[i] = t
			written++
			continue
		}
		keys[*t.RecurrenceMaterializationKey] = len(td.transactions)
		td.transactions = append(td.transactions, s.stamp(t))
		written++
	}
	return written, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tenant string, t models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.transactions {
		if td.transactions[i].ID == t.ID {
			td.transactions[i] = t
			return nil
		}
	}
	return store.NotFound("update", store.Transactions, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, tenant string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.transactions {
		if td.transactions[i].ID == id {
			td.transactions = append(td.transactions[:i], td.transactions[i+1:]...)
			return nil
		}
	}
	return store.NotFound("delete", store.Transactions, id)
}

func (s *Store) stamp(t models.Transaction) models.Transaction {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	return t
}

func materializationKeys(txs []models.Transaction) map[string]int {
	keys := make(map[string]int)
	for i, t := range txs {
		if t.RecurrenceMaterializationKey != nil {
			keys[*t.RecurrenceMaterializationKey] = i
		}
	}
	return keys
}

func undefinedColumn(op string) error {
	return &store.Error{Op: op, Collection: store.Transactions, Code: store.CodeUndefinedColumn,
		Err: fmt.Errorf(`column "recurrence_materialization_key" does not exist`)}
}

var _ store.Ledger = (*Store)(nil)
