// Package bulk turns an uploaded spreadsheet into candidate RFCs and checks
// them as one batch.
package bulk

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	dErrors "rfcheck/pkg/domain-errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor flattens tabular files into trimmed candidate strings, in cell
// order. Cells shorter than MinLength are dropped.
type Extractor struct {
	MinLength int
}

// Extract reads CSV or XLSX content from r. The format is chosen from the
// filename extension, then the content type.
func (e Extractor) Extract(filename, contentType string, r io.Reader) ([]string, error) {
	switch detectFormat(filename, contentType) {
	case formatXLSX:
		return e.extractXLSX(r)
	case formatCSV:
		return e.extractCSV(r)
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported file type: upload a .csv or .xlsx file")
	}
}

type format int

const (
	formatUnknown format = iota
	formatCSV
	formatXLSX
)

func detectFormat(filename, contentType string) format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".csv", ".txt":
		return formatCSV
	case "":
	default:
		return formatUnknown
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, xlsxContentType):
		return formatXLSX
	case strings.HasPrefix(ct, "text/csv"), strings.HasPrefix(ct, "text/plain"):
		return formatCSV
	}
	return formatUnknown
}

func (e Extractor) extractCSV(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed csv file")
		}
		out = e.appendCells(out, record)
	}
	return out, nil
}

func (e Extractor) extractXLSX(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable spreadsheet")
	}
	var out []string
	for _, row := range rows {
		out = e.appendCells(out, row)
	}
	return out, nil
}

func (e Extractor) appendCells(out, cells []string) []string {
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" || len(c) < e.MinLength {
			continue
		}
		out = append(out, c)
	}
	return out
}
