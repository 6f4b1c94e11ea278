package table

import (
	"math"
	"strconv"
)

// Kind tags a column as numeric or categorical. The tag is decided once at
// import time and never re-inspected by later stages.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column is a named, typed sequence of values.
//
// Numeric columns store values in Floats with NaN marking a missing value.
// Categorical columns store values in Strings with nil marking a missing value.
// Exactly one of the two slices is used, selected by Kind.
type Column struct {
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Floats  []float64 `json:"floats,omitempty"`
	Strings []*string `json:"strings,omitempty"`
}

// NewNumeric creates a numeric column. NaN values are treated as missing.
func NewNumeric(name string, values []float64) *Column {
	if values == nil {
		values = []float64{}
	}
	return &Column{Name: name, Kind: KindNumeric, Floats: values}
}

// NewCategorical creates a categorical column. Nil entries are treated as missing.
func NewCategorical(name string, values []*string) *Column {
	if values == nil {
		values = []*string{}
	}
	return &Column{Name: name, Kind: KindCategorical, Strings: values}
}

// NewCategoricalFromStrings creates a categorical column from plain strings,
// treating any value listed in missing as a null.
func NewCategoricalFromStrings(name string, values []string, missing ...string) *Column {
	skip := make(map[string]bool, len(missing))
	for _, m := range missing {
		skip[m] = true
	}
	out := make([]*string, len(values))
	for i := range values {
		if skip[values[i]] {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return NewCategorical(name, out)
}

// Str returns a pointer to s, handy for building categorical columns.
func Str(s string) *string { return &s }

// IsNumeric reports whether the column holds numbers
func (c *Column) IsNumeric() bool { return c.Kind == KindNumeric }

// IsCategorical reports whether the column holds strings
func (c *Column) IsCategorical() bool { return c.Kind == KindCategorical }

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.IsNumeric() {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsNull reports whether the value at row i is missing
func (c *Column) IsNull(i int) bool {
	if c.IsNumeric() {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == nil
}

// NullCount returns the number of missing values
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// NullRatio returns the fraction of missing values, or 0 for an empty column
func (c *Column) NullRatio() float64 {
	if c.Len() == 0 {
		return 0
	}
	return float64(c.NullCount()) / float64(c.Len())
}

// DistinctCount returns the number of distinct non-null values
func (c *Column) DistinctCount() int {
	if c.IsNumeric() {
		seen := make(map[float64]struct{})
		for _, v := range c.Floats {
			if !math.IsNaN(v) {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
	seen := make(map[string]struct{})
	for _, v := range c.Strings {
		if v != nil {
			seen[*v] = struct{}{}
		}
	}
	return len(seen)
}

// NonNullFloats returns the non-missing numeric values in row order
func (c *Column) NonNullFloats() []float64 {
	out := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NonNullStrings returns the non-missing categorical values in row order
func (c *Column) NonNullStrings() []string {
	out := make([]string, 0, len(c.Strings))
	for _, v := range c.Strings {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Format renders the value at row i as text. Missing values render as "".
func (c *Column) Format(i int) string {
	if c.IsNull(i) {
		return ""
	}
	if c.IsNumeric() {
		return FormatFloat(c.Floats[i])
	}
	return *c.Strings[i]
}

// Value returns the value at row i as float64, string or nil.
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	if c.IsNumeric() {
		return c.Floats[i]
	}
	return *c.Strings[i]
}

// Clone returns a deep copy of the column
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.IsNumeric() {
		out.Floats = append([]float64(nil), c.Floats...)
		return out
	}
	out.Strings = make([]*string, len(c.Strings))
	for i, v := range c.Strings {
		if v != nil {
			s := *v
			out.Strings[i] = &s
		}
	}
	return out
}

// FormatFloat renders a number with the shortest representation that parses
// back to the same float64
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
