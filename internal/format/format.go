// Package format owns the table rendering and value formatting shared by the
// scan reports and the status listing.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the rendering target.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// Table is a report table with a fixed header, rendered in the Mode chosen
// at construction. Backed by go-pretty; rows render values via fmt.Sprint.
type Table struct {
	mode    Mode
	writer  table.Writer
	columns []table.ColumnConfig
}

// NewTable starts a table with the given header columns.
func NewTable(mode Mode, header ...string) *Table {
	w := table.NewWriter()
	if mode == ASCII {
		w.SetStyle(table.StyleLight)
	}
	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	w.AppendHeader(row)
	return &Table{mode: mode, writer: w}
}

// Row appends one data row.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// AlignRight right-aligns the given 1-based columns. Numeric report columns
// read better right-aligned under a left-aligned header.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.columns = append(t.columns, table.ColumnConfig{Number: c, Align: text.AlignRight})
	}
	t.writer.SetColumnConfigs(t.columns)
}

// LimitWidth caps a 1-based column at max characters; longer content wraps.
func (t *Table) LimitWidth(col, max int) {
	t.columns = append(t.columns, table.ColumnConfig{Number: col, WidthMax: max})
	t.writer.SetColumnConfigs(t.columns)
}

// String renders the table in the configured Mode.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
