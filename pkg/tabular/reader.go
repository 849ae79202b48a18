// pkg/tabular/reader.go
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// ErrEmptyTable is returned when an input has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// ErrUnsupportedFormat is returned for file extensions the reader
// does not handle.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// DelimiterFor picks the delimiter implied by a file name. Only .tsv
// switches to tabs; everything else reads as comma separated.
func DelimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ReadFile loads a tabular file into a Dataset based on its
// extension: .csv and .tsv as delimited text, .xlsx via the first
// worksheet. All values are read as text so identifiers never pass
// through numeric coercion.
func ReadFile(path string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return ReadDelimited(f, filepath.Base(path), DelimiterFor(path))
	case ".xlsx":
		return readExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadDelimited parses delimited text. The first row is the header;
// short rows are padded to the header width and long rows truncated,
// so every record exposes exactly the header's columns.
func ReadDelimited(r io.Reader, name string, delimiter rune) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(stripBOM(h))
	}

	ds := model.NewDataset(name, headers)
	for i, row := range rows[1:] {
		ds.Append(rowToRecord(headers, row, i+2))
	}
	return ds, nil
}

func readExcel(path string) (*model.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(stripBOM(h))
	}

	ds := model.NewDataset(filepath.Base(path), headers)
	for i, row := range rows[1:] {
		ds.Append(rowToRecord(headers, row, i+2))
	}
	return ds, nil
}

// rowToRecord maps one raw row onto the header. The row number counts
// from the top of the file, header included, matching what a person
// sees in a spreadsheet application.
func rowToRecord(headers, row []string, rowNum int) model.Record {
	rec := model.NewRecord(rowNum)
	for i, h := range headers {
		if i < len(row) {
			rec.Set(h, row[i])
		} else {
			rec.Set(h, "")
		}
	}
	return rec
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
