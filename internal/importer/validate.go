package importer

// validate.go implements the row-level validation pipeline.
//
// Validation happens in three stages:
//  1. Batch preconditions: empty files and oversized batches are rejected
//     before any row is inspected.
//  2. Field resolution: each logical field resolves from its alias list,
//     first non-empty cell wins.
//  3. Rule evaluation: identifier presence, in-file duplicates, required
//     fields, and format checks. Format failures on primary fields are
//     errors; on secondary fields they are warnings and never exclude a row.
//
// The pipeline is a pure function of its input plus a running duplicate set.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// emailPattern matches a basic local@domain.tld shape. Intentionally loose;
// the server remains the authority on deliverability.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var nonDigits = regexp.MustCompile(`\D`)

// dateLayouts are the accepted date formats, unambiguous layouts first.
var dateLayouts = []string{
	"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006",
	"01/02/2006", "2006/01/02", "Jan 2, 2006", "2 Jan 2006",
}

// HeaderIndex maps lowercased column headers to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row.
// Later duplicates of the same header are ignored.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell trims whitespace, surrounding quotes, and Excel formula
// prefixes (="value") from a raw cell.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// Validate runs the variant's rule set over a parsed sheet and partitions
// the rows into valid and invalid sets.
//
// Returns ErrEmptyFile when no data rows are present and ErrTooManyRows when
// the batch exceeds MaxRows; in both cases no ValidationResult is produced.
func Validate(rs RuleSet, headers []string, rows [][]string) (*Result, error) {
	dataRows := countDataRows(rows)
	if dataRows == 0 {
		return nil, ErrEmptyFile
	}
	if dataRows > MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, dataRows, MaxRows)
	}

	idx := MakeHeaderIndex(headers)
	seen := make(map[string]int) // lowercased identifier -> first row number

	result := &Result{Valid: []Row{}, Invalid: []Row{}}
	for i, raw := range rows {
		if isEmptyRow(raw) {
			continue
		}
		row := validateRow(rs, idx, raw, i+2, seen) // +2: 1-indexed, after header
		if row.Valid() {
			result.Valid = append(result.Valid, row)
		} else {
			result.Invalid = append(result.Invalid, row)
		}
	}
	return result, nil
}

// validateRow normalizes one raw row into a canonical Row and applies the
// variant's rules. seen carries identifier first-occurrences across the file.
func validateRow(rs RuleSet, idx HeaderIndex, raw []string, rowNum int, seen map[string]int) Row {
	row := Row{
		RowNumber: rowNum,
		Fields:    make(map[string]string, len(rs.Fields)),
		Errors:    []string{},
		Warnings:  []string{},
	}

	for _, spec := range rs.Fields {
		if value := resolveField(spec, idx, raw); value != "" {
			row.Fields[spec.Name] = value
		}
	}

	// Identifier: first non-empty identifier field, in declaration order.
	for _, spec := range rs.Fields {
		if !spec.Identifier {
			continue
		}
		if v, ok := row.Fields[spec.Name]; ok {
			row.Identifier = v
			break
		}
	}
	if row.Identifier == "" {
		row.Errors = append(row.Errors, identifierRequiredMessage(rs))
	} else {
		key := strings.ToLower(row.Identifier)
		if first, dup := seen[key]; dup {
			row.Errors = append(row.Errors,
				fmt.Sprintf("Duplicate entry: %q already appears in row %d", row.Identifier, first))
		} else {
			seen[key] = rowNum
		}
	}

	for _, spec := range rs.Fields {
		value, present := row.Fields[spec.Name]
		if !present {
			if spec.Required {
				row.Errors = append(row.Errors, fmt.Sprintf("%s is required", spec.Label))
			}
			continue
		}

		switch spec.Kind {
		case KindEmail:
			if !emailPattern.MatchString(value) {
				msg := fmt.Sprintf("%s %q is not a valid email address", spec.Label, value)
				if spec.Primary {
					row.Errors = append(row.Errors, msg)
				} else {
					row.Warnings = append(row.Warnings, msg)
				}
			}
		case KindPhone:
			if digits := nonDigits.ReplaceAllString(value, ""); len(digits) != 10 {
				row.Warnings = append(row.Warnings,
					fmt.Sprintf("%s %q is not a 10-digit phone number", spec.Label, value))
			}
		case KindDate:
			if !parseableDate(value) {
				row.Warnings = append(row.Warnings,
					fmt.Sprintf("%s %q is not a recognized date", spec.Label, value))
			}
		}
	}

	return row
}

// resolveField returns the first non-empty cell among the spec's aliases.
func resolveField(spec FieldSpec, idx HeaderIndex, raw []string) string {
	for _, alias := range spec.Aliases {
		pos, ok := idx[strings.ToLower(alias)]
		if !ok || pos >= len(raw) {
			continue
		}
		if v := CleanCell(raw[pos]); v != "" {
			return v
		}
	}
	// The canonical name itself is always an accepted header.
	if pos, ok := idx[strings.ToLower(spec.Name)]; ok && pos < len(raw) {
		return CleanCell(raw[pos])
	}
	return ""
}

// identifierRequiredMessage lists the variant's identifier field labels.
func identifierRequiredMessage(rs RuleSet) string {
	var labels []string
	for _, spec := range rs.Fields {
		if spec.Identifier {
			labels = append(labels, spec.Label)
		}
	}
	return fmt.Sprintf("missing identifier: provide at least one of %s", strings.Join(labels, ", "))
}

func parseableDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func countDataRows(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if !isEmptyRow(row) {
			n++
		}
	}
	return n
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
