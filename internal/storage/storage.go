// Package storage persists imported records and import jobs in PostgreSQL.
package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Record is one imported row, keyed by its identifier within an
// institution. Fields holds the canonical field map produced by validation.
type Record struct {
	ID            string            `json:"id"`
	Variant       string            `json:"variant"`
	InstitutionID string            `json:"institutionId"`
	Identifier    string            `json:"identifier"`
	Fields        map[string]string `json:"fields"`
	Active        bool              `json:"active"`
	ImportID      string            `json:"importId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// JobStatus is the lifecycle state of a background import job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is a background import request and its outcome.
type Job struct {
	ID            string    `json:"id"`
	Variant       string    `json:"variant"`
	InstitutionID string    `json:"institutionId"`
	FileName      string    `json:"fileName"`
	Status        JobStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	ResultJSON    []byte    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store provides record and job persistence backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// schema is applied idempotently on startup. The unique index on
// (variant, institution_id, lower(identifier)) is what rejects records that
// already exist server-side; in-file duplicates are caught earlier by
// validation.
const schema = `
CREATE TABLE IF NOT EXISTS import_records (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	variant        TEXT NOT NULL,
	institution_id TEXT NOT NULL,
	identifier     TEXT NOT NULL,
	fields         JSONB NOT NULL DEFAULT '{}',
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	import_id      UUID,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS import_records_identity
	ON import_records (variant, institution_id, lower(identifier));
CREATE INDEX IF NOT EXISTS import_records_import_id
	ON import_records (import_id);

CREATE TABLE IF NOT EXISTS import_jobs (
	id             UUID PRIMARY KEY,
	variant        TEXT NOT NULL,
	institution_id TEXT NOT NULL,
	file_name      TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'queued',
	error          TEXT NOT NULL DEFAULT '',
	result         JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the storage tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}
