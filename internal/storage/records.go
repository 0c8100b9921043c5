package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecordNotFound is returned when a record id does not exist.
var ErrRecordNotFound = errors.New("record not found")

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// InsertFailure reports one record that the database rejected during a
// batch insert.
type InsertFailure struct {
	Index  int    // position in the submitted batch
	Reason string
}

// InsertBatch inserts records inside a single transaction, one savepoint
// per row so a rejected record does not poison the rest of the batch.
// Returns the indexes that were inserted and the per-row failures.
// A record whose identifier already exists for the institution fails with a
// duplicate reason; this is the server-side half of duplicate detection.
func (s *Store) InsertBatch(ctx context.Context, records []Record) (inserted []int, failed []InsertFailure, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, rec := range records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			failed = append(failed, InsertFailure{Index: i, Reason: fmt.Sprintf("encode fields: %v", err)})
			continue
		}

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return nil, nil, fmt.Errorf("create savepoint: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO import_records (variant, institution_id, identifier, fields, import_id)
			VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)`,
			rec.Variant, rec.InstitutionID, rec.Identifier, fields, rec.ImportID,
		)
		if err != nil {
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp)
			failed = append(failed, InsertFailure{Index: i, Reason: insertReason(err, rec.Identifier)})
			continue
		}

		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+sp)
		inserted = append(inserted, i)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return inserted, failed, nil
}

func insertReason(err error, identifier string) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Sprintf("%q already exists for this institution", identifier)
	}
	return fmt.Sprintf("insert: %v", err)
}

// ListRecords returns an institution's records for a variant, newest first.
func (s *Store) ListRecords(ctx context.Context, variant, institutionID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, variant, institution_id, identifier, fields, active,
		       COALESCE(import_id::text, ''), created_at
		FROM import_records
		WHERE variant = $1 AND institution_id = $2
		ORDER BY created_at DESC, identifier`,
		variant, institutionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var fields []byte
		if err := rows.Scan(&rec.ID, &rec.Variant, &rec.InstitutionID, &rec.Identifier,
			&fields, &rec.Active, &rec.ImportID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetRecordActive toggles a record's active flag.
func (s *Store) SetRecordActive(ctx context.Context, variant, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_records SET active = $3
		WHERE variant = $1 AND id = $2::uuid`,
		variant, id, active,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, variant, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM import_records
		WHERE variant = $1 AND id = $2::uuid`,
		variant, id,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountRecords returns the number of records stored for a variant.
func (s *Store) CountRecords(ctx context.Context, variant string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM import_records WHERE variant = $1`, variant,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// DeleteByImportID removes every record inserted by one import and returns
// the count deleted. Backs the job rollback operation.
func (s *Store) DeleteByImportID(ctx context.Context, importID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM import_records WHERE import_id = $1::uuid`, importID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete by import id: %w", err)
	}
	return tag.RowsAffected(), nil
}
