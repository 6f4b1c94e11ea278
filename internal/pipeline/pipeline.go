// Package pipeline runs import, profiling, imputation, standardization,
// visualization and export in order, printing progress as it goes.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tabprep/adapters/plot"
	"tabprep/domain/run"
	"tabprep/domain/stage"
	"tabprep/domain/table"
	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"
	"tabprep/internal/imputer"
	"tabprep/internal/logging"
	"tabprep/internal/metrics"
	"tabprep/internal/profiler"
	"tabprep/internal/standardizer"
	"tabprep/internal/visualizer"
	"tabprep/ports"
)

// Pipeline wires the stage components together. It is safe for concurrent
// runs; each run works on its own table.
type Pipeline struct {
	base        *slog.Logger
	logger      *slog.Logger
	out         io.Writer
	importer    *importer.Importer
	profiler    *profiler.Profiler
	imputer     *imputer.Imputer
	exporter    *exporter.Exporter
	renderer    ports.PlotRenderer
	metrics     *metrics.Metrics
	manifestDir string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithOutput sets where progress is printed; io.Discard silences it
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithRenderer replaces the gonum/plot renderer
func WithRenderer(r ports.PlotRenderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithExporter replaces the default exporter
func WithExporter(e *exporter.Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithMetrics records stage timings and outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithManifestDir writes <run_id>.json with the run manifest and summary
// into dir after every run
func WithManifestDir(dir string) Option {
	return func(p *Pipeline) { p.manifestDir = dir }
}

// New creates a pipeline
func New(logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		base:     logger,
		logger:   logging.Component(logger, "pipeline"),
		out:      os.Stdout,
		importer: importer.New(logger),
		profiler: profiler.New(logger),
		imputer:  imputer.New(logger),
		exporter: exporter.New(logger),
		renderer: plot.NewRenderer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run imports the configured source and processes it. The summary is
// returned even when the run fails.
func (p *Pipeline) Run(ctx context.Context, cfg *config.PipelineConfig) (*run.Summary, error) {
	summary := run.NewSummary(cfg.Name)
	ctx = logging.WithRunID(ctx, summary.RunID.String())
	p.metrics.RunStarted()

	var t *table.Table
	err := p.stage(summary, stage.Import, func() error {
		var err error
		t, err = p.importer.Import(ctx, cfg.Source)
		return err
	})
	if err == nil {
		fmt.Fprintf(p.out, "Data Imported\n%s\n", Preview(t, cfg.PreviewRows))
		err = p.process(ctx, summary, t, cfg)
	}
	return p.finish(ctx, summary, cfg, err)
}

// RunTable processes an already loaded table, skipping the import stage
func (p *Pipeline) RunTable(ctx context.Context, t *table.Table, cfg *config.PipelineConfig) (*run.Summary, error) {
	summary := run.NewSummary(cfg.Name)
	ctx = logging.WithRunID(ctx, summary.RunID.String())
	p.metrics.RunStarted()
	summary.Record(stage.Import, stage.StatusSkipped, 0)

	err := p.process(ctx, summary, t, cfg)
	return p.finish(ctx, summary, cfg, err)
}

func (p *Pipeline) process(ctx context.Context, summary *run.Summary, t *table.Table, cfg *config.PipelineConfig) error {
	summary.Table = t

	_ = p.stage(summary, stage.Profile, func() error {
		summary.Profile = p.profiler.Profile(t)
		return nil
	})
	fmt.Fprintf(p.out, "Data Info:\n%s\n", FormatInfo(summary.Profile))

	if err := p.stage(summary, stage.Impute, func() error {
		res, err := p.imputer.Impute(t, cfg.Imputation.ThresholdValue())
		if err != nil {
			return err
		}
		summary.Imputed = res.Imputed
		summary.Dropped = res.Dropped
		fmt.Fprintf(p.out, "Imputation Complete. Imputed columns: %v Dropped columns: %v\n",
			res.ImputedColumns(), res.Dropped)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(summary, stage.Standardize, func() error {
		res, err := standardizer.New(p.base, cfg.Standardization.Degenerate).Apply(t, cfg.Standardization.Mode)
		if err != nil {
			return err
		}
		summary.Standardization = &res
		fmt.Fprintf(p.out, "Standardization Complete\n%s\n", Preview(t, cfg.PreviewRows))
		return nil
	}); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if cfg.Visualization.IsEnabled() {
		fmt.Fprintln(p.out, "Visualizing Data")
		err := p.stage(summary, stage.Visualize, func() error {
			v := visualizer.New(p.base, p.renderer, cfg.Visualization.OutputDir,
				visualizer.WithMaxCategories(cfg.Visualization.MaxCategories))
			report, err := v.Visualize(ctx, t)
			summary.Visualization = &report
			return err
		})
		if err != nil {
			p.logger.WarnContext(ctx, "visualization failed, continuing", "error", err)
			summary.VisualizationError = err.Error()
		}
	} else {
		summary.Record(stage.Visualize, stage.StatusSkipped, 0)
	}

	if len(cfg.Destinations) == 0 {
		summary.Record(stage.Export, stage.StatusSkipped, 0)
		return nil
	}
	_ = p.stage(summary, stage.Export, func() error {
		for _, d := range cfg.Destinations {
			ok := p.exporter.Export(ctx, t, d)
			p.metrics.ExportFinished(string(d.Kind), ok)
			summary.Exports = append(summary.Exports, run.ExportOutcome{
				Kind:        string(d.Kind),
				Destination: d.Describe(),
				OK:          ok,
			})
			fmt.Fprintf(p.out, "Data Exported (%s): %t\n", d.Describe(), ok)
		}
		if !summary.ExportsOK() {
			return errors.InternalError("one or more exports failed")
		}
		return nil
	})
	return nil
}

// stage times fn and records the outcome on the summary and the metrics
func (p *Pipeline) stage(summary *run.Summary, name stage.Name, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	status := stage.StatusOK
	if err != nil {
		status = stage.StatusFailed
	}
	summary.Record(name, status, elapsed)
	p.metrics.ObserveStage(string(name), elapsed)
	return err
}

func (p *Pipeline) finish(ctx context.Context, summary *run.Summary, cfg *config.PipelineConfig, err error) (*run.Summary, error) {
	summary.Finish(err)
	p.metrics.RunFinished(string(summary.Status))

	if err != nil {
		p.logger.ErrorContext(ctx, "run failed",
			"name", summary.Name, "code", errors.GetCode(err), "error", err)
	} else {
		p.logger.InfoContext(ctx, "run complete",
			"name", summary.Name,
			"status", summary.Status,
			"duration_ms", summary.Duration().Milliseconds())
	}

	if p.manifestDir != "" {
		if werr := p.writeManifest(ctx, summary, cfg); werr != nil {
			p.logger.WarnContext(ctx, "could not write run manifest", "error", werr)
		}
	}
	return summary, err
}

func (p *Pipeline) writeManifest(ctx context.Context, summary *run.Summary, cfg *config.PipelineConfig) error {
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding pipeline configuration")
	}
	manifest := run.NewManifest(summary.RunID, summary.Name, cfg.Source.Describe(), encoded)
	if err := manifest.Validate(); err != nil {
		return err
	}

	doc, err := json.MarshalIndent(struct {
		Manifest *run.Manifest `json:"manifest"`
		Summary  *run.Summary  `json:"summary"`
	}{manifest, summary}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding run manifest")
	}
	if err := os.MkdirAll(p.manifestDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", p.manifestDir)
	}
	path := filepath.Join(p.manifestDir, summary.RunID.String()+".json")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	p.logger.DebugContext(ctx, "wrote run manifest", "path", path, "fingerprint", manifest.Fingerprint.Short())
	return nil
}
