package bolt

import (
	"context"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

func (s *Store) QueryTransactions(ctx context.Context, tenant string, f store.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.view("query", store.Transactions, func(tx *bolt.Tx) error {
		var err error
		out, err = list(readBucket(tx, tenant, store.Transactions), f.Match)
		return err
	})
	return out, err
}

func (s *Store) InsertTransactions(ctx context.Context, tenant string, txs []models.Transaction) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(txs))
	err := s.update(ctx, "insert", store.Transactions, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Transactions)
		if err != nil {
			return err
		}
		keys, err := b.CreateBucketIfNotExists(mkeyBucket)
		if err != nil {
			return errors.Wrap(err, "materialization key index")
		}
		for _, t := range txs {
			t = s.stamp(t)
			if k := t.RecurrenceMaterializationKey; k != nil {
				if keys.Get([]byte(*k)) != nil {
					return &store.Error{Op: "insert", Collection: store.Transactions, Code: store.CodeUniqueViolation,
						Err: errors.Errorf("materialization key %q exists", *k)}
				}
				if err := keys.Put([]byte(*k), []byte(t.ID)); err != nil {
					return errors.Wrap(err, "index materialization key")
				}
			}
			if err := put(b, t.ID, t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpsertTransactions(ctx context.Context, tenant string, txs []models.Transaction, target store.ConflictTarget, ignoreDuplicates bool) (int, error) {
	if target != store.ConflictMaterializationKey {
		return 0, &store.Error{Op: "upsert", Collection: store.Transactions, Code: store.CodeInvalidConflictTarget,
			Err: errors.Errorf("no unique constraint matching %q", target)}
	}
	written := 0
	err := s.update(ctx, "upsert", store.Transactions, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Transactions)
		if err != nil {
			return err
		}
		keys, err := b.CreateBucketIfNotExists(mkeyBucket)
		if err != nil {
			return errors.Wrap(err, "materialization key index")
		}
		for _, t := range txs {
			if t.RecurrenceMaterializationKey == nil {
				return &store.Error{Op: "upsert", Collection: store.Transactions, Code: store.CodeInvalidConflictTarget,
					Err: errors.Errorf("record %q has no materialization key", t.Description)}
			}
			if id := keys.Get([]byte(*t.RecurrenceMaterializationKey)); id != nil {
				if ignoreDuplicates {
					continue
				}
				prev, _, err := get[models.Transaction](b, string(id))
				if err != nil {
					return err
				}
				t.ID, t.CreatedAt = prev.ID, prev.CreatedAt
			} else {
				t = s.stamp(t)
				if err := keys.Put([]byte(*t.RecurrenceMaterializationKey), []byte(t.ID)); err != nil {
					return errors.Wrap(err, "index materialization key")
				}
			}
			if err := put(b, t.ID, t); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		// bolt rolled the batch back
		return 0, err
	}
	return written, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tenant string, t models.Transaction) error {
	return s.update(ctx, "update", store.Transactions, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Transactions)
		if err != nil {
			return err
		}
		if _, ok, err := get[models.Transaction](b, t.ID); err != nil || !ok {
			if err == nil {
				err = store.NotFound("update", store.Transactions, t.ID)
			}
			return err
		}
		return put(b, t.ID, t)
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, tenant string, id string) error {
	return s.update(ctx, "delete", store.Transactions, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.Transactions)
		if err != nil {
			return err
		}
		prev, ok, err := get[models.Transaction](b, id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound("delete", store.Transactions, id)
		}
		if k := prev.RecurrenceMaterializationKey; k != nil {
			if keys := b.Bucket(mkeyBucket); keys != nil {
				if err := keys.Delete([]byte(*k)); err != nil {
					return errors.Wrap(err, "unindex materialization key")
				}
			}
		}
		_, err = remove(b, id)
		return err
	})
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
