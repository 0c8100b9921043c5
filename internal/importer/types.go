// Package importer provides the validation pipeline for spreadsheet-driven
// bulk record creation. This package has no I/O dependencies and can be used
// by both the import service and the CLI.
package importer

import "errors"

// MaxRows is the maximum number of data rows accepted in a single file.
// Batches above this limit are rejected before any validation runs.
var MaxRows = 500

// ErrEmptyFile is returned when a file contains no data rows after the header.
var ErrEmptyFile = errors.New("file contains no data rows")

// ErrTooManyRows is returned when a file exceeds MaxRows data rows.
var ErrTooManyRows = errors.New("file exceeds the maximum row count")

// FieldKind describes how a field's value is checked.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindPhone
	KindDate
)

// FieldSpec defines a single logical field of an upload variant: its
// canonical name, the ordered list of column-header aliases it may appear
// under, and its validation rule.
type FieldSpec struct {
	Name       string   // Canonical field name: "studentEmail"
	Label      string   // Display name used in messages: "Student Email"
	Aliases    []string // Accepted column headers, highest priority first
	Kind       FieldKind
	Required   bool // Empty value is an error
	Identifier bool // Participates in student/staff identifier resolution
	Primary    bool // Format failure is an error rather than a warning
}

// RuleSet is the fixed per-variant rule set consumed by Validate.
type RuleSet struct {
	Name   string // Variant key: "students", "staff", "internships"
	Label  string // Display name: "Self-Identified Internships"
	Fields []FieldSpec
}

// Field returns the spec with the given canonical name.
func (rs RuleSet) Field(name string) (FieldSpec, bool) {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Headers returns the primary header label for every field, in declaration
// order. Used for template generation.
func (rs RuleSet) Headers() []string {
	headers := make([]string, len(rs.Fields))
	for i, f := range rs.Fields {
		headers[i] = f.Label
	}
	return headers
}

// Row is one spreadsheet row normalized into a canonical record.
type Row struct {
	RowNumber  int               `json:"rowNumber"`
	Identifier string            `json:"identifier,omitempty"`
	Fields     map[string]string `json:"fields"`
	Errors     []string          `json:"errors"`
	Warnings   []string          `json:"warnings"`
}

// Valid reports whether the row carries no errors. Warnings do not
// disqualify a row.
func (r Row) Valid() bool {
	return len(r.Errors) == 0
}

// Result partitions a file's rows by validity.
type Result struct {
	Valid   []Row `json:"valid"`
	Invalid []Row `json:"invalid"`
}

// RecordStatus reports the per-row outcome of a submitted import.
type RecordStatus struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier,omitempty"`
	Message    string `json:"message,omitempty"`
}

// UploadResult is the envelope returned by the import endpoints. A partial
// batch failure is a normal result, not an error: Failed counts rows the
// server rejected, and FailedRecords carries the per-row reasons.
type UploadResult struct {
	Total          int            `json:"total"`
	Success        int            `json:"success"`
	Failed         int            `json:"failed"`
	SuccessRecords []RecordStatus `json:"successRecords"`
	FailedRecords  []RecordStatus `json:"failedRecords"`
	JobID          string         `json:"jobId,omitempty"`
}
