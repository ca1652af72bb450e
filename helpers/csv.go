package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/tabula/dataset"
)

// ============================================================================
// TABLE READERS — CSV / XLSX → header + rows
// ============================================================================
// Readers only split the file into a header row and data rows. Cleaning,
// typing and date handling happen in dataset.Build.
// XLSX cells are read raw, so date cells arrive as serial numbers.
// ============================================================================

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = errors.New("helpers: unsupported file format")

// ErrNoHeader is returned when a file has no header row.
var ErrNoHeader = errors.New("helpers: no header row")

// Table is a parsed sheet.
type Table struct {
	Name   string
	Header []string
	Rows   []dataset.RawRow
}

// ReadFile reads a .csv, .tsv or .xlsx file.
func ReadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		t, err = ReadCSV(bytes.NewReader(data), ',')
	case ".tsv":
		t, err = ReadCSV(bytes.NewReader(data), '\t')
	case ".xlsx", ".xlsm":
		t, err = ReadXLSX(bytes.NewReader(data), "")
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	t.Name = name
	return t, nil
}

// ReadCSV parses delimited text. Ragged rows are allowed; a UTF-8 BOM on
// the header is dropped.
func ReadCSV(r io.Reader, comma rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, ErrNoHeader
	}
	if err != nil {
		return Table{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []dataset.RawRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, toRawRow(rec))
	}
	return Table{Header: header, Rows: rows}, nil
}

// ReadXLSX parses one sheet of a workbook. An empty sheet name selects the
// first sheet.
func ReadXLSX(r io.Reader, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("no sheets found")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	// skip leading empty rows
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return Table{}, ErrNoHeader
	}

	out := Table{Name: sheet, Header: rows[start]}
	for _, row := range rows[start+1:] {
		out.Rows = append(out.Rows, toRawRow(row))
	}
	return out, nil
}

func toRawRow(cells []string) dataset.RawRow {
	row := make(dataset.RawRow, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
