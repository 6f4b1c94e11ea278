package file

import "tabprep/domain/table"

// columnSet collects loosely structured values into named columns, keeping
// first-seen column order. Cells never set are missing.
type columnSet struct {
	names  []string
	values map[string][]interface{}
	rows   int
}

func newColumnSet() *columnSet {
	return &columnSet{values: make(map[string][]interface{})}
}

func (s *columnSet) set(name string, row int, v interface{}) {
	if row >= s.rows {
		s.grow(row + 1)
	}
	vals, ok := s.values[name]
	if !ok {
		s.names = append(s.names, name)
		vals = make([]interface{}, s.rows)
	}
	vals[row] = v
	s.values[name] = vals
}

func (s *columnSet) grow(rows int) {
	if rows <= s.rows {
		return
	}
	s.rows = rows
	for name, vals := range s.values {
		for len(vals) < rows {
			vals = append(vals, nil)
		}
		s.values[name] = vals
	}
}

func (s *columnSet) table() (*table.Table, error) {
	columns := make([]*table.Column, len(s.names))
	for i, name := range s.names {
		columns[i] = defaultCoercer.Values(name, s.values[name])
	}
	return table.New(columns...)
}

// textTable builds the table from text cells, inferring each column's kind
// from its text
func (s *columnSet) textTable() (*table.Table, error) {
	columns := make([]*table.Column, len(s.names))
	for i, name := range s.names {
		cells := make([]string, s.rows)
		for r, v := range s.values[name] {
			if text, ok := v.(string); ok {
				cells[r] = text
			}
		}
		columns[i] = defaultCoercer.Column(name, cells)
	}
	return table.New(columns...)
}
