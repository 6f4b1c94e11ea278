// Package profiling holds the report types produced by the profiler.
package profiling

import "tabprep/domain/core"

// Report summarises the shape and missing values of a table
type Report struct {
	TotalRows          int             `json:"total_rows"`
	TotalColumns       int             `json:"total_columns"`
	NumericColumns     []string        `json:"numeric_columns"`
	CategoricalColumns []string        `json:"categorical_columns"`
	NullCounts         map[string]int  `json:"null_counts"`
	ColumnsWithNulls   []string        `json:"columns_with_nulls"`
	Columns            []ColumnProfile `json:"columns"`
	ComputedAt         core.Timestamp  `json:"computed_at"`
}

// ColumnProfile contains the statistical profile of one column
type ColumnProfile struct {
	Name             string            `json:"name"`
	Kind             string            `json:"kind"`
	SampleSize       int               `json:"sample_size"`
	UniqueCount      int               `json:"unique_count"`
	MissingStats     MissingStats      `json:"missing_stats"`
	NumericStats     *NumericStats     `json:"numeric_stats,omitempty"`
	CategoricalStats *CategoricalStats `json:"categorical_stats,omitempty"`
}

// MissingStats tracks missing value patterns
type MissingStats struct {
	MissingCount       int     `json:"missing_count"`
	MissingRate        float64 `json:"missing_rate"`
	ConsecutiveMissing int     `json:"consecutive_missing"` // longest run of missing rows
}

// NumericStats contains statistics for numeric columns
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"` // sample standard deviation, 0 below two values
}

// CategoricalStats contains statistics for categorical columns
type CategoricalStats struct {
	Mode          string       `json:"mode"`
	ModeFrequency int          `json:"mode_frequency"`
	TopValues     []ValueCount `json:"top_values"`
}

// ValueCount represents a value and its frequency
type ValueCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

// Result is the outcome of profiling a file. Err is set instead of returning a
// Go error so callers can branch on the code.
type Result struct {
	Report *Report    `json:"report,omitempty"`
	Err    *ErrorInfo `json:"error,omitempty"`
}

// OK reports whether profiling succeeded
func (r Result) OK() bool { return r.Err == nil && r.Report != nil }

// ErrorInfo is the structured error carried by a Result
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
