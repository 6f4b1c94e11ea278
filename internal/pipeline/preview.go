package pipeline

import (
	"fmt"
	"strings"

	"tabprep/domain/profiling"
	"tabprep/domain/table"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Preview renders the first n rows as a gota DataFrame. Missing values print
// as NaN.
func Preview(t *table.Table, n int) string {
	head := t.Head(n)
	if head.NumCols() == 0 {
		return "Empty DataFrame"
	}
	cols := make([]series.Series, 0, head.NumCols())
	for _, c := range head.Columns() {
		if c.IsNumeric() {
			cols = append(cols, series.New(c.Floats, series.Float, c.Name))
			continue
		}
		values := make([]string, c.Len())
		for i := range values {
			if c.IsNull(i) {
				values[i] = "NaN"
			} else {
				values[i] = *c.Strings[i]
			}
		}
		cols = append(cols, series.New(values, series.String, c.Name))
	}
	return dataframe.New(cols...).String()
}

// FormatInfo renders a profile report the way the info summary is printed
func FormatInfo(r *profiling.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  total_rows: %d\n", r.TotalRows)
	fmt.Fprintf(&b, "  total_columns: %d\n", r.TotalColumns)
	fmt.Fprintf(&b, "  numeric_columns: [%s]\n", strings.Join(r.NumericColumns, ", "))
	fmt.Fprintf(&b, "  string_columns: [%s]\n", strings.Join(r.CategoricalColumns, ", "))

	b.WriteString("  null_values_per_column:\n")
	for _, c := range r.Columns {
		fmt.Fprintf(&b, "    %s: %d\n", c.Name, r.NullCounts[c.Name])
	}
	fmt.Fprintf(&b, "  columns_with_null_values: [%s]", strings.Join(r.ColumnsWithNulls, ", "))
	return b.String()
}
