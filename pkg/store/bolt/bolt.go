// Package bolt is a Ledger persisted in a single boltdb file. Each tenant
// gets a top-level bucket with one nested bucket per collection; records
// are JSON values keyed by an insertion sequence so listings keep order.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/yurifrl/conciliar/pkg/store"
)

var (
	idsBucket  = []byte("_ids")
	mkeyBucket = []byte("_materialization_keys")
	idemBucket = []byte("_idempotency_keys")
)

type Store struct {
	db     *bolt.DB
	logger *log.Logger
	now    func() time.Time
}

// Open opens (creating if missing) the database file at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger %s", path)
	}
	logger.Debug("ledger opened", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "close ledger")
}

func tenantKey(tenant string) []byte {
	return []byte("tenant:" + tenant)
}

// writeBucket returns the collection bucket, creating the path.
func writeBucket(tx *bolt.Tx, tenant string, coll store.Collection) (*bolt.Bucket, error) {
	root, err := tx.CreateBucketIfNotExists(tenantKey(tenant))
	if err != nil {
		return nil, errors.Wrapf(err, "tenant bucket %q", tenant)
	}
	b, err := root.CreateBucketIfNotExists([]byte(coll))
	if err != nil {
		return nil, errors.Wrapf(err, "collection bucket %s", coll)
	}
	if _, err := b.CreateBucketIfNotExists(idsBucket); err != nil {
		return nil, errors.Wrap(err, "id index")
	}
	return b, nil
}

// readBucket returns nil when nothing was ever written.
func readBucket(tx *bolt.Tx, tenant string, coll store.Collection) *bolt.Bucket {
	root := tx.Bucket(tenantKey(tenant))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(coll))
}

// put stores v under id, reusing the sequence slot of an existing record.
func put(b *bolt.Bucket, id string, v any) error {
	ids := b.Bucket(idsBucket)
	k := ids.Get([]byte(id))
	if k == nil {
		seq, err := b.NextSequence()
		if err != nil {
			return errors.Wrap(err, "next sequence")
		}
		k = make([]byte, 8)
		binary.BigEndian.PutUint64(k, seq)
		if err := ids.Put([]byte(id), k); err != nil {
			return errors.Wrap(err, "index id")
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	return errors.Wrapf(b.Put(k, data), "put %s", id)
}

func get[T any](b *bolt.Bucket, id string) (T, bool, error) {
	var v T
	if b == nil {
		return v, false, nil
	}
	k := b.Bucket(idsBucket).Get([]byte(id))
	if k == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(b.Get(k), &v); err != nil {
		return v, false, errors.Wrapf(err, "decode %s", id)
	}
	return v, true, nil
}

func list[T any](b *bolt.Bucket, keep func(T) bool) ([]T, error) {
	if b == nil {
		return nil, nil
	}
	var out []T
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			// nested index bucket
			continue
		}
		var rec T
		if err := json.Unmarshal(v, &rec); err != nil {
			return nil, errors.Wrapf(err, "decode record of length %d", len(v))
		}
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func remove(b *bolt.Bucket, id string) (bool, error) {
	ids := b.Bucket(idsBucket)
	k := ids.Get([]byte(id))
	if k == nil {
		return false, nil
	}
	if err := b.Delete(k); err != nil {
		return false, errors.Wrapf(err, "delete %s", id)
	}
	return true, errors.Wrapf(ids.Delete([]byte(id)), "unindex %s", id)
}

// failure converts any error into a *store.Error, keeping one already typed.
func failure(op string, coll store.Collection, err error) error {
	if err == nil {
		return nil
	}
	var se *store.Error
	if errors.As(err, &se) {
		return se
	}
	return &store.Error{Op: op, Collection: coll, Code: store.CodeUnavailable, Err: err}
}

func (s *Store) update(ctx context.Context, op string, coll store.Collection, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return failure(op, coll, err)
	}
	return failure(op, coll, s.db.Update(fn))
}

func (s *Store) view(op string, coll store.Collection, fn func(tx *bolt.Tx) error) error {
	return failure(op, coll, s.db.View(fn))
}

var _ store.Ledger = (*Store)(nil)
