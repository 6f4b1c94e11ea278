package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tabprep/domain/standardization"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"

	"gopkg.in/yaml.v3"
)

// Pipeline defaults
const (
	DefaultThreshold     = 0.3
	DefaultMaxCategories = 30
	DefaultPreviewRows   = 5
	DefaultPlotsDir      = "plots"
)

// PipelineConfig describes one pipeline run
type PipelineConfig struct {
	Name            string                 `yaml:"name"`
	Source          importer.Source        `yaml:"source"`
	Imputation      ImputationConfig       `yaml:"imputation"`
	Standardization StandardizationConfig  `yaml:"standardization"`
	Visualization   VisualizationConfig    `yaml:"visualization"`
	Destinations    []exporter.Destination `yaml:"destinations" validate:"dive"`
	PreviewRows     int                    `yaml:"preview_rows" validate:"gte=0"`
}

// ImputationConfig sets the drop threshold. Nil means DefaultThreshold.
type ImputationConfig struct {
	Threshold *float64 `yaml:"threshold" validate:"omitempty,gte=0"`
}

// StandardizationConfig selects the rescaling mode and what to do with
// columns that cannot be rescaled
type StandardizationConfig struct {
	Mode       standardization.Mode             `yaml:"mode" validate:"required,oneof=z-score min-max"`
	Degenerate standardization.DegeneratePolicy `yaml:"degenerate" validate:"required,oneof=skip fail"`
}

// VisualizationConfig controls chart rendering. Nil Enabled means true.
type VisualizationConfig struct {
	Enabled       *bool  `yaml:"enabled"`
	OutputDir     string `yaml:"output_dir"`
	MaxCategories int    `yaml:"max_categories" validate:"gte=0"`
}

// IsEnabled reports whether plots are rendered
func (v VisualizationConfig) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// ThresholdValue returns the configured threshold or the default
func (i ImputationConfig) ThresholdValue() float64 {
	if i.Threshold == nil {
		return DefaultThreshold
	}
	return *i.Threshold
}

// DefaultPipeline returns the pipeline the single-file driver runs: z-score
// standardization, plots, and a CSV export next to the working directory
func DefaultPipeline(path string) *PipelineConfig {
	p := &PipelineConfig{
		Source:       importer.Source{Kind: importer.KindCSV, Path: path},
		Destinations: []exporter.Destination{{Kind: exporter.KindCSV}},
	}
	p.ApplyDefaults("")
	return p
}

// LoadPipeline reads and validates a YAML pipeline file
func LoadPipeline(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("pipeline file " + path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParsePipeline(bytes.NewReader(data), filepath.Dir(path))
}

// ParsePipeline decodes a pipeline from YAML. Relative source and
// destination paths are left as written; baseDir is only used to place the
// default plots directory.
func ParsePipeline(r io.Reader, baseDir string) (*PipelineConfig, error) {
	var p PipelineConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.ConfigInvalid("pipeline file is empty")
		}
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	p.ApplyDefaults(baseDir)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyDefaults fills every unset field
func (p *PipelineConfig) ApplyDefaults(baseDir string) {
	if p.Name == "" {
		p.Name = "pipeline"
	}
	if p.Standardization.Mode == "" {
		p.Standardization.Mode = standardization.ModeZScore
	}
	if p.Standardization.Degenerate == "" {
		p.Standardization.Degenerate = standardization.PolicySkip
	}
	if p.Visualization.OutputDir == "" {
		p.Visualization.OutputDir = filepath.Join(baseDir, DefaultPlotsDir)
	}
	if p.Visualization.MaxCategories == 0 {
		p.Visualization.MaxCategories = DefaultMaxCategories
	}
	if p.PreviewRows == 0 {
		p.PreviewRows = DefaultPreviewRows
	}
}

// Validate checks the pipeline's struct tags
func (p *PipelineConfig) Validate() error {
	return Validate(p)
}
