// Package export serializes flat report tables to downloadable formats.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format is a supported export format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

var (
	// ErrUnsupportedFormat is returned for formats the parser accepts but no writer produces.
	ErrUnsupportedFormat = errors.New("export format not implemented")
	// ErrUnknownFormat is returned for anything outside csv, excel and pdf.
	ErrUnknownFormat = errors.New("format must be one of: csv, excel, pdf")
)

const sheetName = "Report"

// ParseFormat reads the format query value. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatExcel:
		return FormatExcel, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", ErrUnknownFormat
}

// ContentType is the response media type for f
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Extension is the file extension for f
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	}
	return "csv"
}

// Filename builds "<prefix>_YYYYmmdd_HHMMSS.<ext>"
func Filename(prefix string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format("20060102_150405"), f.Extension())
}

// Table is a header plus rows of display values
type Table struct {
	Columns []string
	Rows    [][]any
}

// AddRow appends one row; it must match the column count
func (t *Table) AddRow(values ...any) {
	t.Rows = append(t.Rows, values)
}

// Write serializes t in format f
func Write(w io.Writer, f Format, t *Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatExcel:
		return WriteExcel(w, t)
	case FormatPDF:
		return ErrUnsupportedFormat
	}
	return ErrUnknownFormat
}

// Render is Write into a byte slice
func Render(f Format, t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes UTF-8 CSV prefixed with a byte order mark so spreadsheet
// applications pick the right encoding.
func WriteCSV(w io.Writer, t *Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cell(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExcel writes a single-sheet xlsx workbook
func WriteExcel(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = excelCell(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, axis, &values); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		return fmt.Sprintf("%.2f", x)
	}
	return fmt.Sprint(v)
}

// Numbers stay numeric in spreadsheets; everything else uses the CSV rendering.
func excelCell(v any) any {
	switch x := v.(type) {
	case int, int64, float64:
		return x
	}
	return cell(v)
}
