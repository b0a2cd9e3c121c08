package bolt

import (
	"context"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

func (s *Store) InsertImportJob(ctx context.Context, tenant string, job models.ImportJob) (models.ImportJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	err := s.update(ctx, "insert", store.ImportJobs, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.ImportJobs)
		if err != nil {
			return err
		}
		if job.IdempotencyKey != "" {
			idem, err := b.CreateBucketIfNotExists(idemBucket)
			if err != nil {
				return errors.Wrap(err, "idempotency index")
			}
			if prev := idem.Get([]byte(job.IdempotencyKey)); prev != nil {
				return &store.Error{Op: "insert", Collection: store.ImportJobs, Code: store.CodeUniqueViolation,
					Err: errors.Errorf("idempotency key already used by job %s", prev)}
			}
			if err := idem.Put([]byte(job.IdempotencyKey), []byte(job.ID)); err != nil {
				return errors.Wrap(err, "index idempotency key")
			}
		}
		return put(b, job.ID, job)
	})
	if err != nil {
		return models.ImportJob{}, err
	}
	return job, nil
}

func (s *Store) UpdateImportJob(ctx context.Context, tenant string, job models.ImportJob) error {
	return s.update(ctx, "update", store.ImportJobs, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.ImportJobs)
		if err != nil {
			return err
		}
		if _, ok, err := get[models.ImportJob](b, job.ID); err != nil || !ok {
			if err == nil {
				err = store.NotFound("update", store.ImportJobs, job.ID)
			}
			return err
		}
		if job.Status == models.JobFailed {
			if err := releaseKey(b, job); err != nil {
				return err
			}
		}
		return put(b, job.ID, job)
	})
}

// releaseKey frees the idempotency key held by a failed job so the same
// statement can be committed again.
func releaseKey(b *bolt.Bucket, job models.ImportJob) error {
	idem := b.Bucket(idemBucket)
	if idem == nil || job.IdempotencyKey == "" {
		return nil
	}
	if owner := idem.Get([]byte(job.IdempotencyKey)); string(owner) != job.ID {
		return nil
	}
	return errors.Wrap(idem.Delete([]byte(job.IdempotencyKey)), "release idempotency key")
}

func (s *Store) GetImportJob(ctx context.Context, tenant string, id string) (models.ImportJob, error) {
	var job models.ImportJob
	err := s.view("get", store.ImportJobs, func(tx *bolt.Tx) error {
		got, ok, err := get[models.ImportJob](readBucket(tx, tenant, store.ImportJobs), id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound("get", store.ImportJobs, id)
		}
		job = got
		return nil
	})
	return job, err
}

func (s *Store) ListImportJobs(ctx context.Context, tenant string, status models.ImportJobStatus) ([]models.ImportJob, error) {
	var out []models.ImportJob
	err := s.view("list", store.ImportJobs, func(tx *bolt.Tx) error {
		var err error
		out, err = list(readBucket(tx, tenant, store.ImportJobs), func(j models.ImportJob) bool {
			return status == "" || j.Status == status
		})
		return err
	})
	return out, err
}

func (s *Store) InsertImportJobRows(ctx context.Context, tenant string, rows []models.ImportJobRow) error {
	return s.update(ctx, "insert", store.ImportJobRows, func(tx *bolt.Tx) error {
		b, err := writeBucket(tx, tenant, store.ImportJobRows)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			if err := put(b, r.ID, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListImportJobRows(ctx context.Context, tenant string, jobID string) ([]models.ImportJobRow, error) {
	var out []models.ImportJobRow
	err := s.view("list", store.ImportJobRows, func(tx *bolt.Tx) error {
		var err error
		out, err = list(readBucket(tx, tenant, store.ImportJobRows), func(r models.ImportJobRow) bool {
			return r.JobID == jobID
		})
		return err
	})
	return out, err
}
