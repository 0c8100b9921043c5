// Package spreadsheet reads bulk-upload files (CSV and XLSX) into a
// format-neutral Sheet and generates downloadable XLSX templates.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoHeader is returned when a file contains no non-empty header row.
var ErrNoHeader = errors.New("no header row found")

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format (expected .csv or .xlsx)")

// Sheet is a parsed spreadsheet: one header row plus raw data rows.
// Rows may be ragged; cells are uninterpreted strings.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

// xlsxMagic is the ZIP local-file signature; XLSX files are ZIP containers.
var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// Parse reads a spreadsheet file into a Sheet. Format is chosen by file
// extension, falling back to content sniffing for extensionless uploads.
func Parse(fileName string, data []byte) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ParseCSV(data)
	case ".xlsx":
		return ParseXLSX(data)
	case "":
		if bytes.HasPrefix(data, xlsxMagic) {
			return ParseXLSX(data)
		}
		return ParseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// split separates the first non-empty row as the header.
func split(records [][]string) (*Sheet, error) {
	for i, row := range records {
		if !isBlank(row) {
			return &Sheet{Headers: row, Rows: records[i+1:]}, nil
		}
	}
	return nil, ErrNoHeader
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
