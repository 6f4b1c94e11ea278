// Package imputation holds the strategy and result types of the imputer.
package imputation

import "tabprep/domain/table"

// Strategy names the statistic used to fill a column's missing values
type Strategy string

const (
	StrategyMode   Strategy = "mode"
	StrategyMedian Strategy = "median"
	StrategyMean   Strategy = "mean"
)

// Record notes that Column was filled using Strategy
type Record struct {
	Column   string   `json:"column"`
	Strategy Strategy `json:"strategy"`
	Fill     string   `json:"fill"` // rendered fill value
	Filled   int      `json:"filled"`
}

// Result is the outcome of one imputation pass. Table is the input table,
// mutated in place.
type Result struct {
	Table   *table.Table `json:"-"`
	Imputed []Record     `json:"imputed"`
	Dropped []string     `json:"dropped"`
}

// ImputedColumns returns the names of the imputed columns in order
func (r Result) ImputedColumns() []string {
	names := make([]string, len(r.Imputed))
	for i, rec := range r.Imputed {
		names[i] = rec.Column
	}
	return names
}
