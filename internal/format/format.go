// Package format renders reports and prediction listings as terminal or
// Markdown tables.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "ascii"/"table" and "markdown"/"md" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "ascii", "table":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("format: unknown mode %q", s)
}

// ColumnAlign specifies the horizontal alignment for a column.
type ColumnAlign int

const (
	AlignDefault ColumnAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ColumnConfig controls per-column formatting.
type ColumnConfig struct {
	Number   int         // 1-based column index
	Align    ColumnAlign // horizontal alignment
	MaxWidth int         // wrap content beyond this width (0 = unlimited)
}

// TableBuilder builds a table once and renders it in the Mode chosen at
// creation.
type TableBuilder interface {
	Header(cols ...string)
	// Row appends a data row. Values are converted with fmt.Sprint.
	Row(vals ...any)
	Footer(vals ...any)
	Columns(cfgs ...ColumnConfig)
	Title(s string)
	String() string
}

// NewTable returns a TableBuilder that renders in the given Mode.
func NewTable(m Mode) TableBuilder {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &prettyAdapter{writer: w, mode: m}
}

type prettyAdapter struct {
	writer table.Writer
	mode   Mode
}

func (a *prettyAdapter) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	a.writer.AppendHeader(row)
}

func (a *prettyAdapter) Row(vals ...any) {
	a.writer.AppendRow(table.Row(append([]any(nil), vals...)))
}

func (a *prettyAdapter) Footer(vals ...any) {
	a.writer.AppendFooter(table.Row(append([]any(nil), vals...)))
}

func (a *prettyAdapter) Title(s string) {
	a.writer.SetTitle(s)
}

func (a *prettyAdapter) Columns(cfgs ...ColumnConfig) {
	out := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		out[i] = table.ColumnConfig{
			Number:   c.Number,
			Align:    toTextAlign(c.Align),
			WidthMax: c.MaxWidth,
		}
	}
	a.writer.SetColumnConfigs(out)
}

func (a *prettyAdapter) String() string {
	if a.mode == Markdown {
		return a.writer.RenderMarkdown()
	}
	return a.writer.Render()
}

func toTextAlign(a ColumnAlign) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	case AlignCenter:
		return text.AlignCenter
	default:
		return text.AlignDefault
	}
}
