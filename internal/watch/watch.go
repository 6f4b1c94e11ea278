// Package watch triggers pipeline runs when files land in a directory or on
// a cron schedule. Runs never overlap.
package watch

import (
	"context"
	"path/filepath"
	"strings"

	"tabprep/internal/config"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"
)

// RunFunc executes one pipeline run
type RunFunc func(ctx context.Context, cfg *config.PipelineConfig) error

// NamePlaceholder in a destination path or plots directory is replaced by
// the stem of the file that triggered the run
const NamePlaceholder = "{name}"

var kindsByExt = map[string]importer.Kind{
	".csv":     importer.KindCSV,
	".txt":     importer.KindTXT,
	".tsv":     importer.KindTXT,
	".xlsx":    importer.KindExcel,
	".json":    importer.KindJSON,
	".xml":     importer.KindXML,
	".parquet": importer.KindParquet,
}

// KindForPath returns the import kind implied by a file extension
func KindForPath(path string) (importer.Kind, bool) {
	kind, ok := kindsByExt[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// ForFile derives the run configuration for one input file from base.
// Reader options of base.Source carry over; a .tsv file defaults to tabs.
func ForFile(base *config.PipelineConfig, path string) (*config.PipelineConfig, bool) {
	kind, ok := KindForPath(path)
	if !ok {
		return nil, false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	cfg := *base
	cfg.Name = base.Name + ":" + stem
	cfg.Source.Kind = kind
	cfg.Source.Path = path
	if strings.EqualFold(filepath.Ext(path), ".tsv") && cfg.Source.Delimiter == "" {
		cfg.Source.Delimiter = "\t"
	}
	cfg.Visualization.OutputDir = strings.ReplaceAll(base.Visualization.OutputDir, NamePlaceholder, stem)

	cfg.Destinations = make([]exporter.Destination, len(base.Destinations))
	for i, d := range base.Destinations {
		d.Path = strings.ReplaceAll(d.Path, NamePlaceholder, stem)
		d.Table = strings.ReplaceAll(d.Table, NamePlaceholder, stem)
		cfg.Destinations[i] = d
	}
	return &cfg, true
}

// outputPaths lists the absolute file paths cfg exports to. Paths that still
// carry the name placeholder are skipped.
func outputPaths(cfg *config.PipelineConfig) []string {
	var paths []string
	for _, d := range cfg.Destinations {
		if d.Path == "" || strings.Contains(d.Path, NamePlaceholder) {
			continue
		}
		paths = append(paths, absPath(d.Path))
	}
	return paths
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
