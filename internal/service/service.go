// Package service orchestrates the bulk-import pipeline: it validates
// parsed spreadsheets against a variant's rule set, persists the rows that
// survive, and tracks background import jobs.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/spreadsheet"
	"github.com/internhub/bulkimport/internal/storage"
)

// ErrUnknownVariant is returned for a variant no rule set is registered for.
var ErrUnknownVariant = errors.New("unknown import variant")

// DefaultImportTimeout bounds how long a background import may run.
const DefaultImportTimeout = 5 * time.Minute

// Store is the persistence surface the service needs. *storage.Store
// satisfies it; tests use a fake.
type Store interface {
	InsertBatch(ctx context.Context, records []storage.Record) ([]int, []storage.InsertFailure, error)
	ListRecords(ctx context.Context, variant, institutionID string) ([]storage.Record, error)
	SetRecordActive(ctx context.Context, variant, id string, active bool) error
	DeleteRecord(ctx context.Context, variant, id string) error
	CountRecords(ctx context.Context, variant string) (int64, error)
	DeleteByImportID(ctx context.Context, importID string) (int64, error)

	CreateJob(ctx context.Context, job storage.Job) error
	MarkJobRunning(ctx context.Context, id string) error
	CompleteJob(ctx context.Context, id string, resultJSON []byte) error
	FailJob(ctx context.Context, id, reason string) error
	GetJob(ctx context.Context, id string) (*storage.Job, error)
}

// Service runs validation and submission for every registered variant.
type Service struct {
	store   Store
	limiter *ImportLimiter
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter replaces the default import limiter.
func WithLimiter(l *ImportLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithTimeout bounds background import processing.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service on top of a Store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		limiter: NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime),
		timeout: DefaultImportTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter exposes the import limiter, for shutdown draining.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// Validate parses nothing and persists nothing: it runs a sheet through the
// variant's rule set and returns the valid/invalid partition for review.
func (s *Service) Validate(variant string, sheet *spreadsheet.Sheet) (*importer.Result, error) {
	rs, ok := importer.Get(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return importer.Validate(rs, sheet.Headers, sheet.Rows)
}

// Import validates a sheet and persists the valid rows synchronously,
// returning the per-record outcome envelope. Rows that fail validation are
// reported as failed records without touching the database; rows the
// database rejects (already-existing identifiers) join them.
func (s *Service) Import(ctx context.Context, variant, institutionID string, sheet *spreadsheet.Sheet) (*importer.UploadResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.runImport(ctx, variant, institutionID, sheet, "")
}

// EnqueueImport validates the request, creates a queued job, and processes
// it in the background. Returns the job id immediately; poll JobStatus for
// the outcome. The job id doubles as the import id used for rollback.
func (s *Service) EnqueueImport(ctx context.Context, variant, institutionID, fileName string, sheet *spreadsheet.Sheet) (string, error) {
	if _, ok := importer.Get(variant); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	jobID := uuid.New().String()
	job := storage.Job{
		ID:            jobID,
		Variant:       variant,
		InstitutionID: institutionID,
		FileName:      fileName,
		Status:        storage.JobQueued,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		s.limiter.Release()
		return "", err
	}

	// Detach from the request context so the job survives the response.
	jobCtx, cancel := context.WithTimeout(context.Background(), s.timeout)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in import job",
					"job_id", jobID,
					"variant", variant,
					"panic", r,
				)
				_ = s.store.FailJob(context.Background(), jobID, fmt.Sprintf("internal error: %v", r))
			}
		}()
		s.processJob(jobCtx, jobID, variant, institutionID, sheet)
	}()

	return jobID, nil
}

func (s *Service) processJob(ctx context.Context, jobID, variant, institutionID string, sheet *spreadsheet.Sheet) {
	if err := s.store.MarkJobRunning(ctx, jobID); err != nil {
		slog.Error("mark job running", "job_id", jobID, "error", err)
		return
	}

	result, err := s.runImport(ctx, variant, institutionID, sheet, jobID)
	if err != nil {
		slog.Error("import job failed", "job_id", jobID, "variant", variant, "error", err)
		_ = s.store.FailJob(context.Background(), jobID, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		_ = s.store.FailJob(context.Background(), jobID, fmt.Sprintf("encode result: %v", err))
		return
	}
	if err := s.store.CompleteJob(context.Background(), jobID, payload); err != nil {
		slog.Error("complete job", "job_id", jobID, "error", err)
	}
	slog.Info("import job completed",
		"job_id", jobID,
		"variant", variant,
		"success", result.Success,
		"failed", result.Failed,
	)
}

// runImport is the shared sync/async core: validate, insert, assemble the
// envelope. jobID is empty for synchronous imports.
func (s *Service) runImport(ctx context.Context, variant, institutionID string, sheet *spreadsheet.Sheet, jobID string) (*importer.UploadResult, error) {
	rs, ok := importer.Get(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}

	review, err := importer.Validate(rs, sheet.Headers, sheet.Rows)
	if err != nil {
		return nil, err
	}

	result := &importer.UploadResult{
		Total: len(review.Valid) + len(review.Invalid),
		JobID: jobID,
	}
	for _, row := range review.Invalid {
		result.FailedRecords = append(result.FailedRecords, importer.RecordStatus{
			Row:        row.RowNumber,
			Identifier: row.Identifier,
			Message:    strings.Join(row.Errors, "; "),
		})
	}

	records := make([]storage.Record, 0, len(review.Valid))
	for _, row := range review.Valid {
		records = append(records, storage.Record{
			Variant:       variant,
			InstitutionID: institutionID,
			Identifier:    row.Identifier,
			Fields:        row.Fields,
			ImportID:      jobID,
		})
	}

	var inserted []int
	var rejected []storage.InsertFailure
	if len(records) > 0 {
		inserted, rejected, err = s.store.InsertBatch(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("persist records: %w", err)
		}
	}

	for _, i := range inserted {
		row := review.Valid[i]
		result.SuccessRecords = append(result.SuccessRecords, importer.RecordStatus{
			Row:        row.RowNumber,
			Identifier: row.Identifier,
			Message:    "imported",
		})
	}
	for _, f := range rejected {
		row := review.Valid[f.Index]
		result.FailedRecords = append(result.FailedRecords, importer.RecordStatus{
			Row:        row.RowNumber,
			Identifier: row.Identifier,
			Message:    f.Reason,
		})
	}

	result.Success = len(result.SuccessRecords)
	result.Failed = len(result.FailedRecords)
	return result, nil
}

// JobStatus returns a background job with its decoded result, if any.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*storage.Job, *importer.UploadResult, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	var result *importer.UploadResult
	if job.Status == storage.JobCompleted && len(job.ResultJSON) > 0 && string(job.ResultJSON) != "null" {
		result = &importer.UploadResult{}
		if err := json.Unmarshal(job.ResultJSON, result); err != nil {
			return nil, nil, fmt.Errorf("decode job result: %w", err)
		}
	}
	return job, result, nil
}

// Rollback deletes every record a completed job inserted and returns the
// count removed.
func (s *Service) Rollback(ctx context.Context, jobID string) (int64, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return 0, err
	}
	return s.store.DeleteByImportID(ctx, jobID)
}

// ListRecords returns an institution's records for a variant.
func (s *Service) ListRecords(ctx context.Context, variant, institutionID string) ([]storage.Record, error) {
	if _, ok := importer.Get(variant); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return s.store.ListRecords(ctx, variant, institutionID)
}

// SetRecordActive toggles a record's active flag.
func (s *Service) SetRecordActive(ctx context.Context, variant, id string, active bool) error {
	if _, ok := importer.Get(variant); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return s.store.SetRecordActive(ctx, variant, id, active)
}

// DeleteRecord removes a record.
func (s *Service) DeleteRecord(ctx context.Context, variant, id string) error {
	if _, ok := importer.Get(variant); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return s.store.DeleteRecord(ctx, variant, id)
}

// VariantStats is the stored row count for one variant.
type VariantStats struct {
	Variant string `json:"variant"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
}

// Stats counts stored records for every registered variant, fanning the
// counts out concurrently.
func (s *Service) Stats(ctx context.Context) ([]VariantStats, error) {
	variants := importer.Variants()
	stats := make([]VariantStats, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range variants {
		rs, _ := importer.Get(name)
		stats[i] = VariantStats{Variant: name, Label: rs.Label}
		g.Go(func() error {
			count, err := s.store.CountRecords(ctx, name)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			stats[i].Count = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
