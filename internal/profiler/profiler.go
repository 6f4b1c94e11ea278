// Package profiler summarises a table's shape, column kinds and missing values.
package profiler

import (
	"context"
	"log/slog"
	"sort"

	"tabprep/adapters/file"
	"tabprep/domain/core"
	"tabprep/domain/profiling"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/montanaflynn/stats"
)

// DefaultTopValues is the number of most frequent values kept per categorical column
const DefaultTopValues = 10

// Profiler builds profile reports
type Profiler struct {
	logger    *slog.Logger
	topValues int
}

// New creates a profiler
func New(logger *slog.Logger) *Profiler {
	return &Profiler{logger: logging.Component(logger, "profiler"), topValues: DefaultTopValues}
}

// Profile reports the table's shape, kinds and null counts. The table is
// not modified.
func (p *Profiler) Profile(t *table.Table) *profiling.Report {
	report := &profiling.Report{
		TotalRows:          t.NumRows(),
		TotalColumns:       t.NumCols(),
		NumericColumns:     []string{},
		CategoricalColumns: []string{},
		NullCounts:         make(map[string]int, t.NumCols()),
		ColumnsWithNulls:   []string{},
		Columns:            make([]profiling.ColumnProfile, 0, t.NumCols()),
		ComputedAt:         core.Now(),
	}

	for _, col := range t.Columns() {
		if col.IsNumeric() {
			report.NumericColumns = append(report.NumericColumns, col.Name)
		} else {
			report.CategoricalColumns = append(report.CategoricalColumns, col.Name)
		}
		nulls := col.NullCount()
		report.NullCounts[col.Name] = nulls
		if nulls > 0 {
			report.ColumnsWithNulls = append(report.ColumnsWithNulls, col.Name)
		}
		report.Columns = append(report.Columns, p.profileColumn(col))
	}
	return report
}

// ProfileFile reads a delimited file and profiles it. Read failures are
// reported in the result, never returned.
func (p *Profiler) ProfileFile(ctx context.Context, path string) profiling.Result {
	t, err := file.Delimited{Path: path}.Load(ctx)
	if err != nil {
		code := errors.GetCode(err)
		if code != errors.CodeNotFound && code != errors.CodeParseError {
			code = errors.CodeParseError
		}
		p.logger.WarnContext(ctx, "profile source unreadable", "path", path, "code", code, "error", err)
		return profiling.Result{Err: &profiling.ErrorInfo{Code: code, Message: err.Error()}}
	}
	return profiling.Result{Report: p.Profile(t)}
}

func (p *Profiler) profileColumn(col *table.Column) profiling.ColumnProfile {
	nulls := col.NullCount()
	cp := profiling.ColumnProfile{
		Name:        col.Name,
		Kind:        string(col.Kind),
		SampleSize:  col.Len(),
		UniqueCount: col.DistinctCount(),
		MissingStats: profiling.MissingStats{
			MissingCount:       nulls,
			MissingRate:        col.NullRatio(),
			ConsecutiveMissing: longestMissingRun(col),
		},
	}
	if col.IsNumeric() {
		cp.NumericStats = computeNumericStats(col.NonNullFloats())
	} else {
		cp.CategoricalStats = p.computeCategoricalStats(col)
	}
	return cp
}

// computeNumericStats returns nil when there are no values
func computeNumericStats(values []float64) *profiling.NumericStats {
	if len(values) == 0 {
		return nil
	}
	data := stats.Float64Data(values)
	ns := &profiling.NumericStats{}
	ns.Min, _ = stats.Min(data)
	ns.Max, _ = stats.Max(data)
	ns.Mean, _ = stats.Mean(data)
	ns.Median, _ = stats.Median(data)
	if len(values) > 1 {
		ns.StdDev, _ = stats.StandardDeviationSample(data)
	}
	return ns
}

func (p *Profiler) computeCategoricalStats(col *table.Column) *profiling.CategoricalStats {
	counts := Frequencies(col)
	cs := &profiling.CategoricalStats{TopValues: counts}
	if len(counts) > p.topValues {
		cs.TopValues = counts[:p.topValues]
	}
	if len(counts) > 0 {
		cs.Mode = counts[0].Value
		cs.ModeFrequency = counts[0].Count
	}
	return cs
}

// Frequencies counts the non-missing values of a categorical column, most
// frequent first. Equal counts are ordered by value, so the first entry is
// the mode with ties going to the smallest value.
func Frequencies(col *table.Column) []profiling.ValueCount {
	values := col.NonNullStrings()
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]profiling.ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, profiling.ValueCount{
			Value: v,
			Count: n,
			Ratio: float64(n) / float64(len(values)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func longestMissingRun(col *table.Column) int {
	longest, run := 0, 0
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}
