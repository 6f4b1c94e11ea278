package coercer

import (
	"math"
	"testing"

	"tabprep/domain/table"
)

func TestColumnKindInference(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		cells    []string
		expected table.Kind
	}{
		{
			name:     "integer strings are numeric",
			cells:    []string{"25", "34", "45", "28"},
			expected: table.KindNumeric,
		},
		{
			name:     "floats with missing tokens are numeric",
			cells:    []string{"1.5", "NA", "", " 2e3 ", "null"},
			expected: table.KindNumeric,
		},
		{
			name:     "all missing is numeric",
			cells:    []string{"", "NaN", "N/A"},
			expected: table.KindNumeric,
		},
		{
			name:     "one text cell makes the column categorical",
			cells:    []string{"1", "2", "three"},
			expected: table.KindCategorical,
		},
		{
			name:     "currency is not parsed",
			cells:    []string{"$45000", "$78000"},
			expected: table.KindCategorical,
		},
		{
			name:     "booleans are categorical",
			cells:    []string{"true", "false"},
			expected: table.KindCategorical,
		},
		{
			name:     "infinity is not a number",
			cells:    []string{"1", "Inf"},
			expected: table.KindCategorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := c.Column("x", tt.cells)
			if col.Kind != tt.expected {
				t.Errorf("Expected kind %s, got %s for cells: %v", tt.expected, col.Kind, tt.cells)
			}
			if col.Len() != len(tt.cells) {
				t.Errorf("Expected %d rows, got %d", len(tt.cells), col.Len())
			}
		})
	}
}

func TestColumnMissingValues(t *testing.T) {
	c := Default()

	num := c.Column("n", []string{"1", "", "3", "NA"})
	if num.NullCount() != 2 {
		t.Errorf("Expected 2 nulls, got %d", num.NullCount())
	}
	if !math.IsNaN(num.Floats[1]) || num.Floats[2] != 3 {
		t.Errorf("Unexpected values: %v", num.Floats)
	}

	cat := c.Column("c", []string{" Oslo ", "None", "Lima"})
	if cat.NullCount() != 1 {
		t.Errorf("Expected 1 null, got %d", cat.NullCount())
	}
	if *cat.Strings[0] != "Oslo" {
		t.Errorf("Expected trimmed value, got %q", *cat.Strings[0])
	}
}

func TestTablePadsShortRowsAndRejectsLongOnes(t *testing.T) {
	c := Default()

	tbl, err := c.Table([]string{"a", "b"}, [][]string{{"1", "x"}, {"2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := tbl.Column("b")
	if !b.IsNull(1) {
		t.Errorf("Expected padded cell to be missing")
	}

	if _, err := c.Table([]string{"a"}, [][]string{{"1", "2"}}); err == nil {
		t.Errorf("Expected error for row wider than header")
	}
}

func TestTableNamesBlankAndDuplicateHeaders(t *testing.T) {
	tbl, err := Default().Table([]string{"id", "", "id"}, [][]string{{"1", "2", "3"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"id", "Unnamed: 1", "id.1"}
	for i, name := range tbl.Names() {
		if name != want[i] {
			t.Errorf("column %d: expected %q, got %q", i, want[i], name)
		}
	}
}

func TestTableDuplicateHeaderSuffixesStayUnique(t *testing.T) {
	tests := []struct {
		header []string
		want   []string
	}{
		{[]string{"a", "a", "a.1"}, []string{"a", "a.1", "a.1.1"}},
		{[]string{"a", "a.1", "a"}, []string{"a", "a.1", "a.1.1"}},
		{[]string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
	}
	for _, tt := range tests {
		row := make([]string, len(tt.header))
		tbl, err := Default().Table(tt.header, [][]string{row})
		if err != nil {
			t.Fatalf("header %v: unexpected error: %v", tt.header, err)
		}
		got := tbl.Names()
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("header %v: column %d expected %q, got %q", tt.header, i, tt.want[i], got[i])
			}
		}
	}
}

func TestValuesFromTypedSources(t *testing.T) {
	c := Default()

	num := c.Values("n", []interface{}{int64(1), nil, 2.5})
	if !num.IsNumeric() || num.NullCount() != 1 {
		t.Errorf("Expected numeric column with one null, got %s with %d", num.Kind, num.NullCount())
	}

	mixed := c.Values("m", []interface{}{1.0, "b", true, nil})
	if !mixed.IsCategorical() {
		t.Fatalf("Expected categorical column, got %s", mixed.Kind)
	}
	if mixed.Format(0) != "1" || mixed.Format(2) != "true" || !mixed.IsNull(3) {
		t.Errorf("Unexpected rendering: %q %q", mixed.Format(0), mixed.Format(2))
	}
}

func TestAnalyzeTypeDistributionThreshold(t *testing.T) {
	cfg := DefaultCoercionConfig()
	cfg.NumericThreshold = 0.5
	c := NewTypeCoercer(cfg)

	analysis := c.AnalyzeTypeDistribution([]string{"1", "2", "x", ""})
	if analysis.ValidCount != 3 || analysis.NumericCount != 2 {
		t.Errorf("Unexpected counts: %+v", analysis)
	}
	if analysis.RecommendedKind != table.KindNumeric {
		t.Errorf("Expected numeric at 0.5 threshold, got %s", analysis.RecommendedKind)
	}

	col := c.Column("x", []string{"1", "2", "x", ""})
	if col.NullCount() != 2 {
		t.Errorf("Expected unparseable cell to become missing, got %d nulls", col.NullCount())
	}
}
