package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/model"
)

// ErrBadRow marks a single malformed input row. Sources return it (wrapped in
// a *RowError) and keep going; the pipeline skips the row.
var ErrBadRow = errors.New("pipeline: bad row")

// RowError locates a malformed row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() []error { return []error{ErrBadRow, e.Err} }

// Item is one case read from a source.
type Item struct {
	ID      string // optional caller-supplied identifier
	Line    int
	Request engine.Request
}

// Source yields cases one at a time. Next returns io.EOF when exhausted.
type Source interface {
	Next() (Item, error)
	Close() error
}

// Open picks a source by file extension: .csv is read as a table with the
// training columns, anything else as JSON lines. "-" reads JSON lines from stdin.
func Open(path string) (Source, error) {
	if path == "-" {
		return NewJSONLSource(io.NopCloser(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open source: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		src, err := NewCSVSource(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return src, nil
	}
	return NewJSONLSource(f), nil
}

// jsonCase is the JSON-lines shape: the HTTP request body plus an optional id.
type jsonCase struct {
	ID       string   `json:"id"`
	Symptoms []string `json:"symptoms"`
	model.Attributes
}

// JSONLSource reads one JSON object per line. Blank lines are ignored.
type JSONLSource struct {
	rc   io.ReadCloser
	sc   *bufio.Scanner
	line int
}

// NewJSONLSource reads from rc and closes it on Close.
func NewJSONLSource(rc io.ReadCloser) *JSONLSource {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLSource{rc: rc, sc: sc}
}

func (s *JSONLSource) Next() (Item, error) {
	for s.sc.Scan() {
		s.line++
		raw := bytes.TrimSpace(s.sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c jsonCase
		if err := json.Unmarshal(raw, &c); err != nil {
			return Item{Line: s.line}, &RowError{Line: s.line, Err: err}
		}
		return Item{
			ID:      c.ID,
			Line:    s.line,
			Request: engine.Request{Symptoms: c.Symptoms, Attributes: c.Attributes},
		}, nil
	}
	if err := s.sc.Err(); err != nil {
		return Item{}, fmt.Errorf("pipeline: read json lines: %w", err)
	}
	return Item{}, io.EOF
}

func (s *JSONLSource) Close() error { return s.rc.Close() }

// CSVSource reads rows laid out like the training dataset: Symptom_1..4,
// Animal_Type, Breed, Age, Gender, Weight, Duration, Heart_Rate and
// Body_Temperature. An "id" column is carried through when present. Columns
// may be missing; missing attributes take their defaults.
type CSVSource struct {
	rc     io.ReadCloser
	r      *csv.Reader
	header map[string]int
	line   int
}

// NewCSVSource reads the header row from rc immediately.
func NewCSVSource(rc io.ReadCloser) (*CSVSource, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("pipeline: read csv header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[h] = i
	}
	return &CSVSource{rc: rc, r: r, header: header, line: 1}, nil
}

func (s *CSVSource) Next() (Item, error) {
	row, err := s.r.Read()
	if err == io.EOF {
		return Item{}, io.EOF
	}
	s.line++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Item{Line: s.line}, &RowError{Line: s.line, Err: err}
		}
		return Item{}, fmt.Errorf("pipeline: read csv: %w", err)
	}

	cell := func(col string) string {
		i, ok := s.header[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var symptoms []string
	for _, col := range encoder.SymptomColumns {
		if v := cell(col); v != "" && v != encoder.EmptySlot {
			symptoms = append(symptoms, v)
		}
	}

	attrs := model.Attributes{
		Species:  cell(encoder.ColAnimalType),
		Breed:    cell(encoder.ColBreed),
		Gender:   cell(encoder.ColGender),
		Duration: cell(encoder.ColDuration),
	}
	numeric := []struct {
		col string
		dst **float64
	}{
		{encoder.ColAge, &attrs.Age},
		{encoder.ColWeight, &attrs.Weight},
		{encoder.ColHeartRate, &attrs.HeartRate},
	}
	for _, n := range numeric {
		v := cell(n.col)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Item{Line: s.line}, &RowError{Line: s.line, Err: fmt.Errorf("%s: %w", n.col, err)}
		}
		*n.dst = model.Float(f)
	}
	if v := cell(encoder.ColTemperature); v != "" {
		t, err := encoder.ParseTemperature(v)
		if err != nil {
			return Item{Line: s.line}, &RowError{Line: s.line, Err: fmt.Errorf("%s: %w", encoder.ColTemperature, err)}
		}
		attrs.Temperature = model.Float(t)
	}

	return Item{
		ID:      cell("id"),
		Line:    s.line,
		Request: engine.Request{Symptoms: symptoms, Attributes: attrs},
	}, nil
}

func (s *CSVSource) Close() error { return s.rc.Close() }

// SliceSource serves in-memory requests.
type SliceSource struct {
	items []Item
	pos   int
}

// NewSliceSource wraps reqs, numbering them from line 1.
func NewSliceSource(reqs ...engine.Request) *SliceSource {
	items := make([]Item, len(reqs))
	for i, r := range reqs {
		items[i] = Item{Line: i + 1, Request: r}
	}
	return &SliceSource{items: items}
}

func (s *SliceSource) Next() (Item, error) {
	if s.pos >= len(s.items) {
		return Item{}, io.EOF
	}
	it := s.items[s.pos]
	s.pos++
	return it, nil
}

func (s *SliceSource) Close() error { return nil }
