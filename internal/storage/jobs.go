package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

// CreateJob persists a queued import job.
func (s *Store) CreateJob(ctx context.Context, job Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_jobs (id, variant, institution_id, file_name, status)
		VALUES ($1::uuid, $2, $3, $4, $5)`,
		job.ID, job.Variant, job.InstitutionID, job.FileName, JobQueued,
	)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// MarkJobRunning transitions a job to running.
func (s *Store) MarkJobRunning(ctx context.Context, id string) error {
	return s.setJobStatus(ctx, id, JobRunning, "", nil)
}

// CompleteJob records the result envelope and marks the job completed.
func (s *Store) CompleteJob(ctx context.Context, id string, resultJSON []byte) error {
	return s.setJobStatus(ctx, id, JobCompleted, "", resultJSON)
}

// FailJob marks the job failed with the given reason.
func (s *Store) FailJob(ctx context.Context, id, reason string) error {
	return s.setJobStatus(ctx, id, JobFailed, reason, nil)
}

func (s *Store) setJobStatus(ctx context.Context, id string, status JobStatus, reason string, resultJSON []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, error = $3, result = COALESCE($4, result), updated_at = now()
		WHERE id = $1::uuid`,
		id, status, reason, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetJob returns a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.pool.QueryRow(ctx, `
		SELECT id, variant, institution_id, file_name, status, error,
		       COALESCE(result, 'null'::jsonb), created_at, updated_at
		FROM import_jobs
		WHERE id = $1::uuid`,
		id,
	).Scan(&job.ID, &job.Variant, &job.InstitutionID, &job.FileName,
		&job.Status, &job.Error, &job.ResultJSON, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}
