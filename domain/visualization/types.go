// Package visualization describes the plots rendered for a table.
package visualization

// PlotKind names one of the chart types the visualizer produces
type PlotKind string

const (
	PlotDistribution PlotKind = "distribution"
	PlotBox          PlotKind = "box"
	PlotPairGrid     PlotKind = "pair_grid"
	PlotFrequency    PlotKind = "frequency"
)

// Plot is one rendered chart
type Plot struct {
	Kind    PlotKind `json:"kind"`
	Columns []string `json:"columns"`
	Path    string   `json:"path"`
}

// Report lists what the visualizer rendered
type Report struct {
	OutputDir string `json:"output_dir"`
	Plots     []Plot `json:"plots"`
	IndexPath string `json:"index_path,omitempty"`
}

// Count returns the number of plots of the given kind
func (r Report) Count(kind PlotKind) int {
	n := 0
	for _, p := range r.Plots {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
