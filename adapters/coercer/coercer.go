// Package coercer turns raw cells into typed table columns. Each column's kind
// is decided once, here, from the values it holds.
package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tabprep/domain/table"
)

// DefaultMissingTokens are the cell texts read as missing values
var DefaultMissingTokens = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "null", "NULL", "None",
	"<NA>", "#N/A", "#NA", "#N/A N/A", "1.#IND", "1.#QNAN", "-1.#IND", "-1.#QNAN",
}

// TypeCoercer decides column kinds and parses cells
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]struct{}
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	// NumericThreshold is the share of non-missing cells that must parse as
	// numbers for the column to be numeric. 1 means all of them.
	NumericThreshold float64  `json:"numeric_threshold"`
	MissingTokens    []string `json:"missing_tokens"`
	TrimSpace        bool     `json:"trim_space"`
}

// DefaultCoercionConfig returns the rules used by every importer
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		MissingTokens:    DefaultMissingTokens,
		TrimSpace:        true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]struct{}, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[tok] = struct{}{}
	}
	return &TypeCoercer{config: config, missing: missing}
}

// Default returns a coercer with DefaultCoercionConfig
func Default() *TypeCoercer {
	return NewTypeCoercer(DefaultCoercionConfig())
}

// IsMissing reports whether a cell text stands for a missing value
func (c *TypeCoercer) IsMissing(cell string) bool {
	_, ok := c.missing[c.clean(cell)]
	return ok
}

func (c *TypeCoercer) clean(cell string) string {
	if c.config.TrimSpace {
		return strings.TrimSpace(cell)
	}
	return cell
}

// tryParseNumeric parses a finite float. Thousands separators and currency
// signs are not accepted.
func (c *TypeCoercer) tryParseNumeric(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(c.clean(cell), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int        `json:"total_count"`
	ValidCount      int        `json:"valid_count"`
	NumericCount    int        `json:"numeric_count"`
	NumericRatio    float64    `json:"numeric_ratio"`
	RecommendedKind table.Kind `json:"recommended_kind"`
}

// AnalyzeTypeDistribution counts how many cells parse as numbers and picks a
// kind. Columns with no values at all are numeric.
func (c *TypeCoercer) AnalyzeTypeDistribution(cells []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(cells)}
	for _, cell := range cells {
		if c.IsMissing(cell) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(cell); ok {
			analysis.NumericCount++
		}
	}

	if analysis.ValidCount == 0 {
		analysis.NumericRatio = 1
	} else {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}

	analysis.RecommendedKind = table.KindCategorical
	if analysis.NumericRatio >= c.config.NumericThreshold {
		analysis.RecommendedKind = table.KindNumeric
	}
	return analysis
}

// Column builds a typed column from raw cell texts
func (c *TypeCoercer) Column(name string, cells []string) *table.Column {
	analysis := c.AnalyzeTypeDistribution(cells)
	if analysis.RecommendedKind == table.KindNumeric {
		values := make([]float64, len(cells))
		for i, cell := range cells {
			v, ok := c.tryParseNumeric(cell)
			if !ok || c.IsMissing(cell) {
				v = math.NaN()
			}
			values[i] = v
		}
		return table.NewNumeric(name, values)
	}

	values := make([]*string, len(cells))
	for i, cell := range cells {
		if c.IsMissing(cell) {
			continue
		}
		s := c.clean(cell)
		values[i] = &s
	}
	return table.NewCategorical(name, values)
}

// Table builds a table from a header and data rows. Short rows are padded
// with missing values; rows longer than the header are rejected.
func (c *TypeCoercer) Table(header []string, rows [][]string) (*table.Table, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	names = dedupe(names)

	cells := make([][]string, len(names))
	for i := range cells {
		cells[i] = make([]string, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(names))
		}
		for col := range names {
			if col < len(row) {
				cells[col][r] = row[col]
			}
		}
	}

	columns := make([]*table.Column, len(names))
	for i, name := range names {
		columns[i] = c.Column(name, cells[i])
	}
	return table.New(columns...)
}

// Values builds a column from already-typed values (nil, numbers, strings,
// bools). The column is numeric when every non-nil value is a number.
func (c *TypeCoercer) Values(name string, values []interface{}) *table.Column {
	numeric := true
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := toFloat(v); !ok {
			numeric = false
			break
		}
	}

	if numeric {
		out := make([]float64, len(values))
		for i, v := range values {
			f, ok := toFloat(v)
			if v == nil || !ok {
				f = math.NaN()
			}
			out[i] = f
		}
		return table.NewNumeric(name, out)
	}

	out := make([]*string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		s := toString(v)
		if c.IsMissing(s) {
			continue
		}
		out[i] = &s
	}
	return table.NewCategorical(name, out)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsInf(n, 0)
	case float32:
		return float64(n), !math.IsInf(float64(n), 0)
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toString converts interface{} to string safely
func toString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return table.FormatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// dedupe renames repeated headers to name.1, name.2, ... and keeps appending
// suffixes until the result no longer collides with another header
func dedupe(names []string) []string {
	counts := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		count := counts[n]
		for count > 0 {
			counts[n] = count + 1
			n = fmt.Sprintf("%s.%d", n, count)
			count = counts[n]
		}
		out[i] = n
		counts[n] = count + 1
	}
	return out
}
