// Package visualizer renders exploratory charts for a table and an HTML index
// linking them.
package visualizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"tabprep/domain/table"
	"tabprep/domain/visualization"
	"tabprep/internal/errors"
	"tabprep/internal/logging"
	"tabprep/internal/profiler"
	"tabprep/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const (
	DefaultOutputDir     = "plots"
	DefaultMaxCategories = 30
	IndexFile            = "index.html"
)

// Visualizer draws charts through a PlotRenderer. It never modifies the table.
type Visualizer struct {
	logger        *slog.Logger
	renderer      ports.PlotRenderer
	outputDir     string
	maxCategories int
	index         bool
}

// Option configures a Visualizer
type Option func(*Visualizer)

// WithMaxCategories caps the bars in a frequency chart
func WithMaxCategories(n int) Option {
	return func(v *Visualizer) {
		if n > 0 {
			v.maxCategories = n
		}
	}
}

// WithoutIndex disables index.html
func WithoutIndex() Option {
	return func(v *Visualizer) { v.index = false }
}

// New creates a visualizer writing into outputDir
func New(logger *slog.Logger, renderer ports.PlotRenderer, outputDir string, opts ...Option) *Visualizer {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	v := &Visualizer{
		logger:        logging.Component(logger, "visualizer"),
		renderer:      renderer,
		outputDir:     outputDir,
		maxCategories: DefaultMaxCategories,
		index:         true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Visualize renders a distribution and a box plot per numeric column, one pair
// grid across the numeric columns, and a frequency chart per categorical column.
func (v *Visualizer) Visualize(ctx context.Context, t *table.Table) (visualization.Report, error) {
	report := visualization.Report{OutputDir: v.outputDir, Plots: []visualization.Plot{}}
	if err := os.MkdirAll(v.outputDir, 0o755); err != nil {
		return report, errors.Wrapf(err, "creating %s", v.outputDir)
	}

	names := newFileNames()
	render := func(kind visualization.PlotKind, columns []string, draw func(path string) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(v.outputDir, names.next(columns, kind))
		if err := draw(path); err != nil {
			return errors.Wrapf(err, "rendering %s plot for %s", kind, strings.Join(columns, ", "))
		}
		report.Plots = append(report.Plots, visualization.Plot{Kind: kind, Columns: columns, Path: path})
		return nil
	}

	numeric := t.NumericColumns()
	for _, col := range numeric {
		values := append([]float64(nil), col.Floats...)
		name := col.Name
		if err := render(visualization.PlotDistribution, []string{name}, func(path string) error {
			return v.renderer.Distribution(name, values, path)
		}); err != nil {
			return report, err
		}
		if err := render(visualization.PlotBox, []string{name}, func(path string) error {
			return v.renderer.Box(name, values, path)
		}); err != nil {
			return report, err
		}
	}

	if len(numeric) > 0 {
		columns := make([]string, len(numeric))
		values := make([][]float64, len(numeric))
		for i, col := range numeric {
			columns[i] = col.Name
			values[i] = append([]float64(nil), col.Floats...)
		}
		if err := render(visualization.PlotPairGrid, columns, func(path string) error {
			return v.renderer.PairGrid(columns, values, path)
		}); err != nil {
			return report, err
		}
	}

	for _, col := range t.CategoricalColumns() {
		counts := profiler.Frequencies(col)
		if len(counts) > v.maxCategories {
			counts = counts[:v.maxCategories]
		}
		name := col.Name
		if err := render(visualization.PlotFrequency, []string{name}, func(path string) error {
			return v.renderer.Frequency(name, counts, path)
		}); err != nil {
			return report, err
		}
	}

	if v.index {
		path := filepath.Join(v.outputDir, IndexFile)
		if err := os.WriteFile(path, renderIndex(t, report), 0o644); err != nil {
			return report, errors.Wrapf(err, "writing %s", path)
		}
		report.IndexPath = path
	}

	v.logger.Info("visualization complete",
		"output_dir", v.outputDir,
		"plots", len(report.Plots),
	)
	return report, nil
}

// renderIndex builds a markdown summary of the plots and converts it to a
// complete HTML page. Links are relative to the output directory.
func renderIndex(t *table.Table, report visualization.Report) []byte {
	var md strings.Builder
	fmt.Fprintf(&md, "# Exploratory plots\n\n")
	fmt.Fprintf(&md, "%d rows, %d columns (%d numeric, %d categorical)\n\n",
		t.NumRows(), t.NumCols(), len(t.NumericColumns()), len(t.CategoricalColumns()))

	sections := []struct {
		kind  visualization.PlotKind
		title string
	}{
		{visualization.PlotDistribution, "Distributions"},
		{visualization.PlotBox, "Box plots"},
		{visualization.PlotPairGrid, "Pairwise relationships"},
		{visualization.PlotFrequency, "Category frequencies"},
	}
	for _, s := range sections {
		if report.Count(s.kind) == 0 {
			continue
		}
		fmt.Fprintf(&md, "## %s\n\n", s.title)
		for _, p := range report.Plots {
			if p.Kind != s.kind {
				continue
			}
			label := strings.Join(p.Columns, ", ")
			fmt.Fprintf(&md, "### %s\n\n![%s](%s)\n\n", label, label, filepath.Base(p.Path))
		}
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Exploratory plots",
	})
	return markdown.ToHTML([]byte(md.String()), p, r)
}

// fileNames hands out unique, filesystem-safe plot file names
type fileNames struct {
	used map[string]int
}

func newFileNames() *fileNames {
	return &fileNames{used: make(map[string]int)}
}

func (f *fileNames) next(columns []string, kind visualization.PlotKind) string {
	base := string(kind)
	if kind != visualization.PlotPairGrid {
		base = slug(columns[0]) + "_" + base
	}
	n := f.used[base]
	f.used[base] = n + 1
	if n > 0 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	return base + ".png"
}

func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return unicode.ToLower(r)
		}
		return '_'
	}, strings.TrimSpace(name))
	if s == "" {
		return "column"
	}
	return s
}
