package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/store"
)

func (s *Store) InsertImportJob(ctx context.Context, tenant string, job models.ImportJob) (models.ImportJob, error) {
	if err := ctx.Err(); err != nil {
		return models.ImportJob{}, &store.Error{Op: "insert", Collection: store.ImportJobs, Code: store.CodeUnavailable, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	if job.IdempotencyKey != "" {
		for _, j := range td.jobs {
			// Failed jobs release their key.
			if j.IdempotencyKey == job.IdempotencyKey && j.Status != models.JobFailed {
				return models.ImportJob{}, &store.Error{Op: "insert", Collection: store.ImportJobs, Code: store.CodeUniqueViolation,
					Err: fmt.Errorf("idempotency key already used by job %s", j.ID)}
			}
		}
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	td.jobs = append(td.jobs, job)
	return job, nil
}

func (s *Store) UpdateImportJob(ctx context.Context, tenant string, job models.ImportJob) error {
	if err := ctx.Err(); err != nil {
		return &store.Error{Op: "update", Collection: store.ImportJobs, Code: store.CodeUnavailable, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for i := range td.jobs {
		if td.jobs[i].ID == job.ID {
			td.jobs[i] = job
			return nil
		}
	}
	return store.NotFound("update", store.ImportJobs, job.ID)
}

func (s *Store) GetImportJob(ctx context.Context, tenant string, id string) (models.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.t(tenant, false).jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return models.ImportJob{}, store.NotFound("get", store.ImportJobs, id)
}

func (s *Store) ListImportJobs(ctx context.Context, tenant string, status models.ImportJobStatus) ([]models.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ImportJob
	for _, j := range s.t(tenant, false).jobs {
		if status == "" || j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *Store) InsertImportJobRows(ctx context.Context, tenant string, rows []models.ImportJobRow) error {
	if err := ctx.Err(); err != nil {
		return &store.Error{Op: "insert", Collection: store.ImportJobRows, Code: store.CodeUnavailable, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.t(tenant, true)
	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		td.jobRows = append(td.jobRows, r)
	}
	return nil
}

func (s *Store) ListImportJobRows(ctx context.Context, tenant string, jobID string) ([]models.ImportJobRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ImportJobRow
	for _, r := range s.t(tenant, false).jobRows {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}
