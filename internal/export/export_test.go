package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func sampleTable() *Table {
	t := &Table{Columns: []string{"Name", "Requirements", "Progress", "Active", "Created"}}
	t.AddRow("Portal, phase 2", 4, 50.0, true, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	t.AddRow("Año fiscal", 0, 0.0, false, nil)
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  error
	}{
		{"", FormatCSV, nil},
		{"csv", FormatCSV, nil},
		{"EXCEL", FormatExcel, nil},
		{"pdf", FormatPDF, nil},
		{"docx", "", ErrUnknownFormat},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleTable()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data := buf.Bytes()
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatal("missing UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	want := []string{"Portal, phase 2", "4", "50.00", "Yes", "2026-01-02 03:04:05"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}
	if records[2][0] != "Año fiscal" || records[2][3] != "No" || records[2][4] != "" {
		t.Errorf("row 2 = %q", records[2])
	}
}

func TestWriteExcel(t *testing.T) {
	data, err := Render(FormatExcel, sampleTable())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Portal, phase 2" || rows[1][1] != "4" {
		t.Errorf("rows = %q", rows)
	}
}

func TestWritePDFUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatPDF, sampleTable())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Write(pdf) error = %v, want ErrUnsupportedFormat", err)
	}
	if buf.Len() != 0 {
		t.Errorf("pdf wrote %d bytes", buf.Len())
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 5, 1, 0, time.UTC)
	if got := Filename("projects_report", FormatExcel, at); got != "projects_report_20261018_090501.xlsx" {
		t.Errorf("Filename = %q", got)
	}
	if FormatCSV.ContentType() != "text/csv; charset=utf-8" {
		t.Errorf("csv content type = %q", FormatCSV.ContentType())
	}
}
