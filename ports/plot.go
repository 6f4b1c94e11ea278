package ports

import "tabprep/domain/profiling"

// PlotRenderer draws charts to image files. Values may contain NaN; renderers
// leave missing values out of every chart.
type PlotRenderer interface {
	// Distribution draws a histogram with a density curve
	Distribution(column string, values []float64, path string) error
	// Box draws a box plot with outliers
	Box(column string, values []float64, path string) error
	// PairGrid draws every numeric column against every other; the diagonal
	// holds histograms. Rows where either value is missing are skipped per pair.
	PairGrid(columns []string, values [][]float64, path string) error
	// Frequency draws one bar per category in the order given
	Frequency(column string, counts []profiling.ValueCount, path string) error
}
