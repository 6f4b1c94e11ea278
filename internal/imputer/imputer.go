// Package imputer drops mostly-empty columns and fills the remaining missing
// values with a statistic chosen by column kind and cardinality.
package imputer

import (
	"log/slog"
	"math"

	"tabprep/domain/imputation"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"
	"tabprep/internal/profiler"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultThreshold is the missing ratio above which a column is dropped
	DefaultThreshold = 0.3
	// CardinalityCutoff separates median imputation (more distinct values)
	// from mean imputation (this many or fewer)
	CardinalityCutoff = 10
)

// Imputer fills missing values in place
type Imputer struct {
	logger *slog.Logger
}

// New creates an imputer
func New(logger *slog.Logger) *Imputer {
	return &Imputer{logger: logging.Component(logger, "imputer")}
}

// Impute drops every column whose missing ratio is strictly above threshold,
// then fills the missing values of the columns that remain. threshold must
// be non-negative. A threshold of 1 or more keeps every column, so a column
// with no present values fails the call and the table is left untouched.
func (im *Imputer) Impute(t *table.Table, threshold float64) (imputation.Result, error) {
	if math.IsNaN(threshold) || threshold < 0 {
		return imputation.Result{}, errors.Newf(errors.CodeInvalidInput,
			"imputation threshold must be a non-negative number, got %v", threshold)
	}

	result := imputation.Result{
		Table:   t,
		Imputed: []imputation.Record{},
		Dropped: []string{},
	}
	if t.NumRows() == 0 {
		return result, nil
	}

	for _, col := range t.Columns() {
		if col.NullRatio() > threshold {
			result.Dropped = append(result.Dropped, col.Name)
			continue
		}
		if col.NullCount() == col.Len() {
			return imputation.Result{}, errors.Newf(errors.CodeInvalidInput,
				"column %q has no values to impute from at threshold %v", col.Name, threshold)
		}
	}
	t.Drop(result.Dropped...)

	for _, col := range t.Columns() {
		if col.NullCount() == 0 {
			continue
		}
		rec, err := fill(col)
		if err != nil {
			return imputation.Result{}, err
		}
		result.Imputed = append(result.Imputed, rec)
	}

	im.logger.Info("imputation complete",
		"threshold", threshold,
		"dropped", result.Dropped,
		"imputed", result.ImputedColumns())
	return result, nil
}

// fill replaces the missing values of one column. The column has at least
// one missing and, having survived the drop, at least one present value.
func fill(col *table.Column) (imputation.Record, error) {
	rec := imputation.Record{Column: col.Name, Filled: col.NullCount()}

	if col.IsCategorical() {
		mode := profiler.Frequencies(col)[0].Value
		for i := range col.Strings {
			if col.Strings[i] == nil {
				v := mode
				col.Strings[i] = &v
			}
		}
		rec.Strategy = imputation.StrategyMode
		rec.Fill = mode
		return rec, nil
	}

	values := col.NonNullFloats()
	var (
		value float64
		err   error
	)
	if col.DistinctCount() > CardinalityCutoff {
		rec.Strategy = imputation.StrategyMedian
		value, err = stats.Median(values)
	} else {
		rec.Strategy = imputation.StrategyMean
		value, err = stats.Mean(values)
	}
	if err != nil {
		return imputation.Record{}, errors.Wrapf(err, "computing %s of %s", rec.Strategy, col.Name)
	}

	for i, v := range col.Floats {
		if math.IsNaN(v) {
			col.Floats[i] = value
		}
	}
	rec.Fill = table.FormatFloat(value)
	return rec, nil
}
