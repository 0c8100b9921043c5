package importer

import (
	"errors"
	"strings"
	"testing"
)

// rowsFor builds a header + data rows for the internships variant.
func internshipHeaders() []string {
	return []string{"Student Email", "Roll Number", "Enrollment Number", "Company Name", "HR Email", "HR Phone", "Start Date"}
}

func mustGet(t *testing.T, name string) RuleSet {
	t.Helper()
	rs, ok := Get(name)
	if !ok {
		t.Fatalf("variant %q not registered", name)
	}
	return rs
}

// ============================================================================
// Batch precondition tests
// ============================================================================

func TestValidateEmptyFile(t *testing.T) {
	rs := mustGet(t, "internships")

	tests := []struct {
		name string
		rows [][]string
	}{
		{name: "no rows", rows: [][]string{}},
		{name: "nil rows", rows: nil},
		{name: "only blank rows", rows: [][]string{{"", "", ""}, {"  ", "\t", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(rs, internshipHeaders(), tt.rows)
			if !errors.Is(err, ErrEmptyFile) {
				t.Fatalf("Validate() error = %v, want ErrEmptyFile", err)
			}
			if result != nil {
				t.Errorf("Validate() returned a result for an empty file")
			}
		})
	}
}

func TestValidateRowCap(t *testing.T) {
	rs := mustGet(t, "internships")

	rows := make([][]string, MaxRows+1)
	for i := range rows {
		rows[i] = []string{"", "R" + string(rune('0'+i%10)), "", "Acme", "", "", ""}
	}

	result, err := Validate(rs, internshipHeaders(), rows)
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("Validate() error = %v, want ErrTooManyRows", err)
	}
	if result != nil {
		t.Errorf("Validate() returned a result for an oversized batch")
	}

	// Exactly at the cap is accepted.
	if _, err := Validate(rs, internshipHeaders(), rows[:MaxRows]); err != nil {
		t.Fatalf("Validate() at cap returned error: %v", err)
	}
}

// ============================================================================
// Row rule tests
// ============================================================================

func TestValidateMissingIdentifier(t *testing.T) {
	rs := mustGet(t, "internships")

	result, err := Validate(rs, internshipHeaders(), [][]string{
		{"", "", "", "Acme Corp", "", "", ""},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Invalid) != 1 || len(result.Valid) != 0 {
		t.Fatalf("partition = %d valid / %d invalid, want 0/1", len(result.Valid), len(result.Invalid))
	}

	row := result.Invalid[0]
	found := false
	for _, e := range row.Errors {
		if strings.Contains(strings.ToLower(e), "identifier") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v do not mention identifier", row.Errors)
	}
}

func TestValidateDuplicateIdentifier(t *testing.T) {
	rs := mustGet(t, "internships")

	tests := []struct {
		name   string
		first  string
		second string
	}{
		{name: "exact match", first: "a@b.com", second: "a@b.com"},
		{name: "case-insensitive", first: "a@b.com", second: "A@B.COM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(rs, internshipHeaders(), [][]string{
				{tt.first, "", "", "Acme", "", "", ""},
				{tt.second, "", "", "Globex", "", "", ""},
			})
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}

			// First occurrence stays in whichever partition its own fields justify.
			if len(result.Valid) != 1 || result.Valid[0].RowNumber != 2 {
				t.Fatalf("first occurrence not in valid partition: %+v", result)
			}
			if len(result.Invalid) != 1 || result.Invalid[0].RowNumber != 3 {
				t.Fatalf("second occurrence not in invalid partition: %+v", result)
			}

			found := false
			for _, e := range result.Invalid[0].Errors {
				if strings.Contains(e, "Duplicate") {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention Duplicate", result.Invalid[0].Errors)
			}
		})
	}
}

func TestValidateEmailSeverity(t *testing.T) {
	rs := mustGet(t, "internships")

	// Malformed primary email is an error.
	result, err := Validate(rs, internshipHeaders(), [][]string{
		{"not-an-email", "", "", "Acme", "", "", ""},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Invalid) != 1 {
		t.Fatalf("malformed primary email accepted: %+v", result)
	}

	// The same malformed value in a secondary email field is a warning only.
	result, err = Validate(rs, internshipHeaders(), [][]string{
		{"a@b.com", "", "", "Acme", "not-an-email", "", ""},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Valid) != 1 {
		t.Fatalf("secondary email warning excluded row: %+v", result)
	}
	if len(result.Valid[0].Warnings) == 0 {
		t.Errorf("expected a warning for malformed secondary email")
	}
	if len(result.Valid[0].Errors) != 0 {
		t.Errorf("secondary email produced errors: %v", result.Valid[0].Errors)
	}
}

func TestValidatePhoneAndDateAreWarnings(t *testing.T) {
	rs := mustGet(t, "internships")

	result, err := Validate(rs, internshipHeaders(), [][]string{
		{"a@b.com", "", "", "Acme", "", "12345", "not-a-date"},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Valid) != 1 {
		t.Fatalf("phone/date anomalies excluded row: %+v", result)
	}
	if got := len(result.Valid[0].Warnings); got != 2 {
		t.Errorf("warnings = %d (%v), want 2", got, result.Valid[0].Warnings)
	}
}

func TestValidatePhoneStripsFormatting(t *testing.T) {
	rs := mustGet(t, "internships")

	result, err := Validate(rs, internshipHeaders(), [][]string{
		{"a@b.com", "", "", "Acme", "", "(987) 654-3210", ""},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Valid[0].Warnings) != 0 {
		t.Errorf("formatted 10-digit phone produced warnings: %v", result.Valid[0].Warnings)
	}
}

// ============================================================================
// End-to-end scenarios
// ============================================================================

func TestValidateScenarioValidRow(t *testing.T) {
	rs := mustGet(t, "internships")

	result, err := Validate(rs, []string{"Student Email", "Company Name"}, [][]string{
		{"a@b.com", "Acme"},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Valid) != 1 {
		t.Fatalf("row not valid: %+v", result)
	}

	row := result.Valid[0]
	if row.Identifier != "a@b.com" {
		t.Errorf("Identifier = %q, want %q", row.Identifier, "a@b.com")
	}
	if len(row.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", row.Errors)
	}
	if row.Fields["companyName"] != "Acme" {
		t.Errorf("companyName = %q, want %q", row.Fields["companyName"], "Acme")
	}
}

func TestValidateScenarioMissingCompany(t *testing.T) {
	rs := mustGet(t, "internships")

	result, err := Validate(rs, []string{"Roll Number"}, [][]string{
		{"R1"},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(result.Invalid) != 1 {
		t.Fatalf("row without company name not invalid: %+v", result)
	}

	row := result.Invalid[0]
	if row.Identifier != "R1" {
		t.Errorf("Identifier = %q, want %q", row.Identifier, "R1")
	}
	found := false
	for _, e := range row.Errors {
		if strings.Contains(e, "Company Name") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v do not mention Company Name", row.Errors)
	}
}

func TestValidateAliasResolution(t *testing.T) {
	rs := mustGet(t, "students")

	tests := []struct {
		name    string
		headers []string
		row     []string
		field   string
		want    string
	}{
		{
			name:    "primary alias",
			headers: []string{"Student Email", "Student Name"},
			row:     []string{"s@x.edu", "Asha"},
			field:   "studentEmail",
			want:    "s@x.edu",
		},
		{
			name:    "fallback alias",
			headers: []string{"Email", "Student Name"},
			row:     []string{"s@x.edu", "Asha"},
			field:   "studentEmail",
			want:    "s@x.edu",
		},
		{
			name:    "first non-empty wins over later alias",
			headers: []string{"Student Email", "Email", "Student Name"},
			row:     []string{"", "fallback@x.edu", "Asha"},
			field:   "studentEmail",
			want:    "fallback@x.edu",
		},
		{
			name:    "camelCase header",
			headers: []string{"studentEmail", "Student Name"},
			row:     []string{"s@x.edu", "Asha"},
			field:   "studentEmail",
			want:    "s@x.edu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(rs, tt.headers, [][]string{tt.row})
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			var row Row
			switch {
			case len(result.Valid) == 1:
				row = result.Valid[0]
			case len(result.Invalid) == 1:
				row = result.Invalid[0]
			default:
				t.Fatalf("unexpected partition: %+v", result)
			}
			if got := row.Fields[tt.field]; got != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "hello", want: "hello"},
		{name: "whitespace", input: "  hello  ", want: "hello"},
		{name: "excel formula prefix", input: `="R1"`, want: "R1"},
		{name: "surrounding quotes", input: `"Acme"`, want: "Acme"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Student Email", "  Company Name ", "", "student email"})

	if got, ok := idx["student email"]; !ok || got != 0 {
		t.Errorf("first duplicate header should win: got %d, %v", got, ok)
	}
	if got, ok := idx["company name"]; !ok || got != 1 {
		t.Errorf("company name index = %d, %v; want 1", got, ok)
	}
	if _, ok := idx[""]; ok {
		t.Errorf("blank header should not be indexed")
	}
}
