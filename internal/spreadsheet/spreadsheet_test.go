package spreadsheet

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    int
	}{
		{
			name:        "simple file",
			input:       "Student Email,Company Name\na@b.com,Acme\nc@d.com,Globex\n",
			wantHeaders: []string{"Student Email", "Company Name"},
			wantRows:    2,
		},
		{
			name:        "leading blank rows before header",
			input:       ",\n,\nStudent Email,Company Name\na@b.com,Acme\n",
			wantHeaders: []string{"Student Email", "Company Name"},
			wantRows:    1,
		},
		{
			name:        "ragged rows tolerated",
			input:       "A,B,C\n1,2\n1,2,3,4\n",
			wantHeaders: []string{"A", "B", "C"},
			wantRows:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ParseCSV([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseCSV() error: %v", err)
			}
			if len(sheet.Headers) != len(tt.wantHeaders) {
				t.Fatalf("headers = %v, want %v", sheet.Headers, tt.wantHeaders)
			}
			for i, h := range tt.wantHeaders {
				if sheet.Headers[i] != h {
					t.Errorf("header[%d] = %q, want %q", i, sheet.Headers[i], h)
				}
			}
			if len(sheet.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(sheet.Rows), tt.wantRows)
			}
		})
	}
}

func TestParseCSVBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Email\na@b.com\n")...)

	sheet, err := ParseCSV(input)
	if err != nil {
		t.Fatalf("ParseCSV() error: %v", err)
	}
	if sheet.Headers[0] != "Email" {
		t.Errorf("BOM not stripped: header = %q", sheet.Headers[0])
	}
}

func TestParseCSVInvalidUTF8(t *testing.T) {
	input := []byte("Name\ncaf\xe9\n") // Latin-1 high byte

	sheet, err := ParseCSV(input)
	if err != nil {
		t.Fatalf("ParseCSV() error: %v", err)
	}
	if len(sheet.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(sheet.Rows))
	}
	if sheet.Rows[0][0] != "caf�" {
		t.Errorf("cell = %q, want invalid byte replaced", sheet.Rows[0][0])
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	_, err := ParseCSV([]byte(",,\n , ,\n"))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("error = %v, want ErrNoHeader", err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	headers := []string{"Student Email", "Roll Number", "Company Name"}

	data, err := Template("Internships", headers)
	if err != nil {
		t.Fatalf("Template() error: %v", err)
	}
	if !bytes.HasPrefix(data, xlsxMagic) {
		t.Fatalf("template is not a ZIP container")
	}

	sheet, err := ParseXLSX(data)
	if err != nil {
		t.Fatalf("ParseXLSX() error: %v", err)
	}
	if len(sheet.Headers) != len(headers) {
		t.Fatalf("headers = %v, want %v", sheet.Headers, headers)
	}
	for i, h := range headers {
		if sheet.Headers[i] != h {
			t.Errorf("header[%d] = %q, want %q", i, sheet.Headers[i], h)
		}
	}
	if len(sheet.Rows) != 0 {
		t.Errorf("template has %d data rows, want 0", len(sheet.Rows))
	}
}

func TestParseFormatDetection(t *testing.T) {
	csvData := []byte("A,B\n1,2\n")
	xlsxData, err := Template("Sheet1", []string{"A", "B"})
	if err != nil {
		t.Fatalf("Template() error: %v", err)
	}

	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantErr  bool
	}{
		{name: "csv extension", fileName: "roster.csv", data: csvData},
		{name: "xlsx extension", fileName: "roster.xlsx", data: xlsxData},
		{name: "no extension sniffs xlsx", fileName: "roster", data: xlsxData},
		{name: "no extension falls back to csv", fileName: "roster", data: csvData},
		{name: "unsupported extension", fileName: "roster.pdf", data: csvData, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.fileName, tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
		})
	}
}
