package storage

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestInsertReasonUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "import_records_identity"}

	reason := insertReason(err, "a@example.com")
	if !strings.Contains(reason, "already exists") {
		t.Errorf("reason = %q, want already-exists message", reason)
	}
	if !strings.Contains(reason, "a@example.com") {
		t.Errorf("reason = %q, should name the identifier", reason)
	}
}

func TestInsertReasonOtherErrors(t *testing.T) {
	err := &pgconn.PgError{Code: "23502", Message: "null value in column"}

	reason := insertReason(err, "a@example.com")
	if strings.Contains(reason, "already exists") {
		t.Errorf("reason = %q, non-unique errors must not read as duplicates", reason)
	}
}
