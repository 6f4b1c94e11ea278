// Package plot renders exploratory charts to PNG files with gonum/plot.
package plot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"tabprep/domain/profiling"
	"tabprep/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Renderer draws charts with gonum/plot
type Renderer struct {
	Width    vg.Length
	Height   vg.Length
	Bins     int       // histogram bins; 0 picks sqrt(n)
	CellSize vg.Length // pair grid cell edge
}

// NewRenderer returns a renderer producing 6x4 inch charts
func NewRenderer() *Renderer {
	return &Renderer{
		Width:    6 * vg.Inch,
		Height:   4 * vg.Inch,
		CellSize: 2 * vg.Inch,
	}
}

// Distribution draws a density-normalised histogram with a Gaussian KDE curve
func (r *Renderer) Distribution(column string, values []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Distribution of " + column
	p.X.Label.Text = column
	p.Y.Label.Text = "Density"

	data := present(values)
	if err := r.addHistogram(p, data, true); err != nil {
		return errors.Wrapf(err, "histogram of %s", column)
	}
	if kde := densityCurve(data); kde != nil {
		p.Add(kde)
	}
	return r.save(p, path)
}

// Box draws a box plot; points beyond 1.5 IQR are drawn as outliers
func (r *Renderer) Box(column string, values []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Box plot of " + column
	p.Y.Label.Text = column

	data := present(values)
	if len(data) > 0 {
		box, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(data))
		if err != nil {
			return errors.Wrapf(err, "box plot of %s", column)
		}
		box.FillColor = plotutil.Color(0)
		p.Add(box)
		p.NominalX(column)
	}
	return r.save(p, path)
}

// PairGrid draws an n×n grid: histograms on the diagonal, scatter plots of
// row column against grid column elsewhere
func (r *Renderer) PairGrid(columns []string, values [][]float64, path string) error {
	n := len(columns)
	if n == 0 || len(values) != n {
		return errors.InvalidInput("pair grid needs one value slice per column")
	}

	plots := make([][]*plot.Plot, n)
	for i := range plots {
		plots[i] = make([]*plot.Plot, n)
		for j := range plots[i] {
			p := plot.New()
			if i == n-1 {
				p.X.Label.Text = columns[j]
			}
			if j == 0 {
				p.Y.Label.Text = columns[i]
			}
			if i == j {
				if err := r.addHistogram(p, present(values[i]), false); err != nil {
					return errors.Wrapf(err, "pair grid histogram of %s", columns[i])
				}
			} else if xys := pairs(values[j], values[i]); len(xys) > 0 {
				sc, err := plotter.NewScatter(xys)
				if err != nil {
					return errors.Wrapf(err, "scatter of %s against %s", columns[i], columns[j])
				}
				sc.GlyphStyle.Radius = vg.Points(1.5)
				sc.GlyphStyle.Color = plotutil.Color(0)
				p.Add(sc)
			}
			plots[i][j] = p
		}
	}

	side := r.CellSize * vg.Length(n)
	img := vgimg.New(side, side)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: n, Cols: n, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	f, err := createFile(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

// Frequency draws one bar per category in the given order
func (r *Renderer) Frequency(column string, counts []profiling.ValueCount, path string) error {
	p := plot.New()
	p.Title.Text = "Frequency of " + column
	p.Y.Label.Text = "Count"

	if len(counts) > 0 {
		heights := make(plotter.Values, len(counts))
		labels := make([]string, len(counts))
		for i, c := range counts {
			heights[i] = float64(c.Count)
			labels[i] = c.Value
		}
		bars, err := plotter.NewBarChart(heights, vg.Points(18))
		if err != nil {
			return errors.Wrapf(err, "bar chart of %s", column)
		}
		bars.Color = plotutil.Color(0)
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return r.save(p, path)
}

func (r *Renderer) addHistogram(p *plot.Plot, data []float64, normalize bool) error {
	if len(data) == 0 {
		return nil
	}
	lo, hi := minMax(data)
	if lo == hi {
		// a single bin cannot be drawn with zero width; show one bar instead
		bars, err := plotter.NewBarChart(plotter.Values{float64(len(data))}, vg.Points(30))
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(0)
		p.Add(bars)
		p.NominalX(fmt.Sprintf("%g", lo))
		return nil
	}

	bins := r.Bins
	if bins <= 0 {
		bins = int(math.Ceil(math.Sqrt(float64(len(data)))))
	}
	h, err := plotter.NewHist(plotter.Values(data), bins)
	if err != nil {
		return err
	}
	if normalize {
		h.Normalize(1)
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return nil
}

// densityCurve returns a Gaussian kernel density estimate with Scott's
// bandwidth, or nil when the data has no spread
func densityCurve(data []float64) *plotter.Function {
	if len(data) < 2 {
		return nil
	}
	_, std := stat.MeanStdDev(data, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	bw := 1.06 * std * math.Pow(float64(len(data)), -0.2)
	kernels := make([]distuv.Normal, len(data))
	for i, x := range data {
		kernels[i] = distuv.Normal{Mu: x, Sigma: bw}
	}

	lo, hi := minMax(data)
	fn := plotter.NewFunction(func(x float64) float64 {
		sum := 0.0
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		return sum / float64(len(kernels))
	})
	fn.XMin = lo - 3*bw
	fn.XMax = hi + 3*bw
	fn.Samples = 200
	fn.Color = plotutil.Color(1)
	fn.Width = vg.Points(1.5)
	return fn
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := mkdirFor(path); err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// present drops missing values
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// pairs zips x and y, skipping rows where either is missing
func pairs(x, y []float64) plotter.XYs {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	out := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		out = append(out, plotter.XY{X: x[i], Y: y[i]})
	}
	return out
}

func minMax(data []float64) (float64, float64) {
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func mkdirFor(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if err := mkdirFor(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}
