// Package training fits a disease model from a labelled CSV and produces a
// saved artifact plus an evaluation report.
package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoData is returned when the training data is missing or empty.
var ErrNoData = errors.New("training: no data")

// Dataset is a table of string cells keyed by header name. Blank cells are
// absent from their row map.
type Dataset struct {
	Header []string
	Rows   []map[string]string
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	defer f.Close()
	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV from r. Rows shorter than the header are padded with
// absent cells.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("training: read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	ds := &Dataset{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("training: read row %d: %w", len(ds.Rows)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i >= len(rec) {
				break
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				row[h] = v
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrNoData)
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether the header contains col.
func (d *Dataset) HasColumn(col string) bool {
	for _, h := range d.Header {
		if h == col {
			return true
		}
	}
	return false
}

// ValueCounts counts the non-missing values of col.
func (d *Dataset) ValueCounts(col string) map[string]int {
	out := make(map[string]int)
	for _, r := range d.Rows {
		if v, ok := r[col]; ok {
			out[v]++
		}
	}
	return out
}
