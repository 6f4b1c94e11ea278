// Package table holds the in-memory Table every pipeline stage reads and mutates.
package table

import (
	"strings"

	"tabprep/internal/errors"
)

// Table is an ordered collection of named, equal-length columns
type Table struct {
	columns []*Column
	index   map[string]int
}

// New creates a table from columns. All columns must have the same length and
// unique, non-empty names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New for fixtures; it panics on invalid input
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(c *Column) error {
	if c == nil {
		return errors.InvalidInput("column cannot be nil")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.InvalidInput("column name cannot be empty")
	}
	if _, dup := t.index[c.Name]; dup {
		return errors.Newf(errors.CodeInvalidInput, "duplicate column name %q", c.Name)
	}
	if c.Kind != KindNumeric && c.Kind != KindCategorical {
		return errors.Newf(errors.CodeInvalidInput, "column %q has unknown kind %q", c.Name, c.Kind)
	}
	if len(t.columns) > 0 && c.Len() != t.NumRows() {
		return errors.Newf(errors.CodeInvalidInput,
			"column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// AddColumn appends a column, enforcing the equal-length invariant
func (t *Table) AddColumn(c *Column) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	return t.add(c)
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumCols returns the column count
func (t *Table) NumCols() int { return len(t.columns) }

// Names returns column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the column at position i
func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// NumericColumns returns the numeric columns in order
func (t *Table) NumericColumns() []*Column { return t.byKind(KindNumeric) }

// CategoricalColumns returns the categorical columns in order
func (t *Table) CategoricalColumns() []*Column { return t.byKind(KindCategorical) }

func (t *Table) byKind(kind Kind) []*Column {
	var out []*Column
	for _, c := range t.columns {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Drop removes the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) {
	if len(names) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.columns[:0]
	for _, c := range t.columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(t.columns); i++ {
		t.columns[i] = nil
	}
	t.columns = kept
	t.reindex()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{
		columns: make([]*Column, len(t.columns)),
	}
	for i, c := range t.columns {
		out.columns[i] = c.Clone()
	}
	out.reindex()
	return out
}

// Cell renders the value at (row, col) as text
func (t *Table) Cell(row, col int) string {
	return t.columns[col].Format(row)
}

// Records renders the table as a header row followed by data rows
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.NumRows()+1)
	records = append(records, t.Names())
	for r := 0; r < t.NumRows(); r++ {
		row := make([]string, len(t.columns))
		for c := range t.columns {
			row[c] = t.Cell(r, c)
		}
		records = append(records, row)
	}
	return records
}

// Head returns the first n rows as a new table
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	out := &Table{columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		head := &Column{Name: c.Name, Kind: c.Kind}
		if c.IsNumeric() {
			head.Floats = append([]float64{}, c.Floats[:n]...)
		} else {
			head.Strings = append([]*string{}, c.Strings[:n]...)
		}
		out.columns[i] = head
	}
	out.reindex()
	return out
}

// NullCount returns the total number of missing cells
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.columns {
		n += c.NullCount()
	}
	return n
}
