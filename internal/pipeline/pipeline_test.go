package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tabprep/adapters/file"
	"tabprep/domain/profiling"
	"tabprep/domain/run"
	"tabprep/domain/stage"
	"tabprep/domain/standardization"
	"tabprep/domain/table"
	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"
	"tabprep/internal/logging"
	"tabprep/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inputCSV = `age,city,income,notes
30,Oslo,100,
,Lima,200,
40,,300,x
50,Oslo,,
`

// stubRenderer records chart calls without drawing anything
type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) Distribution(string, []float64, string) error { s.calls++; return s.err }
func (s *stubRenderer) Box(string, []float64, string) error          { s.calls++; return s.err }
func (s *stubRenderer) PairGrid([]string, [][]float64, string) error { s.calls++; return s.err }
func (s *stubRenderer) Frequency(string, []profiling.ValueCount, string) error {
	s.calls++
	return s.err
}

func setup(t *testing.T) (string, *config.PipelineConfig) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte(inputCSV), 0o644))

	cfg := &config.PipelineConfig{
		Source:       importer.Source{Kind: importer.KindCSV, Path: input},
		Destinations: []exporter.Destination{{Kind: exporter.KindCSV, Path: filepath.Join(dir, "out.csv")}},
	}
	cfg.Visualization.OutputDir = filepath.Join(dir, "plots")
	cfg.ApplyDefaults(dir)
	return dir, cfg
}

func TestRunEndToEnd(t *testing.T) {
	dir, cfg := setup(t)
	var out bytes.Buffer
	renderer := &stubRenderer{}
	m := metrics.New()

	p := New(logging.Discard(), WithOutput(&out), WithRenderer(renderer), WithMetrics(m), WithManifestDir(filepath.Join(dir, "runs")))
	summary, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, run.StatusSucceeded, summary.Status)
	assert.Equal(t, []string{"notes"}, summary.Dropped)
	require.Len(t, summary.Imputed, 3)
	assert.Equal(t, "age", summary.Imputed[0].Column)
	assert.Equal(t, "40", summary.Imputed[0].Fill)
	assert.Equal(t, "Oslo", summary.Imputed[1].Fill)
	assert.Equal(t, []string{"age", "income"}, summary.Standardization.Scaled)
	assert.Equal(t, 4, summary.Profile.TotalRows)
	assert.Equal(t, 4, summary.Profile.TotalColumns)

	// 2 per numeric column, 1 pair grid, 1 per categorical column
	assert.Equal(t, 6, renderer.calls)
	assert.Len(t, summary.Visualization.Plots, 6)

	require.Len(t, summary.Exports, 1)
	assert.True(t, summary.Exports[0].OK)

	exported, err := file.Delimited{Path: filepath.Join(dir, "out.csv")}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "city", "income"}, exported.Names())
	assert.Equal(t, 0, exported.NullCount())

	var stages []stage.Name
	for _, s := range summary.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, stage.All(), stages)

	printed := out.String()
	for _, want := range []string{
		"Data Imported",
		"Data Info:",
		"Imputation Complete. Imputed columns: [age city income] Dropped columns: [notes]",
		"Standardization Complete",
		"Visualizing Data",
		"Data Exported (" + filepath.Join(dir, "out.csv") + "): true",
	} {
		assert.Contains(t, printed, want)
	}

	assert.True(t, strings.Contains(scrape(t, m), `tabprep_runs_total{status="succeeded"} 1`))
	assert.Contains(t, scrape(t, m), `tabprep_export_total{kind="csv",result="success"} 1`)

	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, summary.RunID.String()+".json", entries[0].Name())
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestManifestContents(t *testing.T) {
	dir, cfg := setup(t)
	cfg.Visualization.Enabled = new(bool)
	p := New(logging.Discard(), WithOutput(io.Discard), WithManifestDir(dir))

	summary, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, summary.RunID.String()+".json"))
	require.NoError(t, err)
	var doc struct {
		Manifest run.Manifest `json:"manifest"`
		Summary  struct {
			Status  string   `json:"status"`
			Dropped []string `json:"dropped"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, summary.RunID, doc.Manifest.RunID)
	assert.Equal(t, "csv:"+cfg.Source.Path, doc.Manifest.Source)
	assert.False(t, doc.Manifest.Fingerprint.IsEmpty())
	assert.Equal(t, "succeeded", doc.Summary.Status)
	assert.Equal(t, []string{"notes"}, doc.Summary.Dropped)
}

func TestImportFailureAbortsRun(t *testing.T) {
	_, cfg := setup(t)
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing.csv")

	summary, err := New(logging.Discard(), WithOutput(io.Discard)).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, run.StatusFailed, summary.Status)
	require.Len(t, summary.Stages, 1)
	assert.Equal(t, stage.StatusFailed, summary.Stages[0].Status)
}

func TestNoNumericColumnsAbortsRun(t *testing.T) {
	dir, cfg := setup(t)
	require.NoError(t, os.WriteFile(cfg.Source.Path, []byte("city\nOslo\nLima\n"), 0o644))
	out := filepath.Join(dir, "out.csv")

	_, err := New(logging.Discard(), WithOutput(io.Discard), WithRenderer(&stubRenderer{})).Run(context.Background(), cfg)
	assert.Equal(t, errors.CodeNoNumericColumns, errors.GetCode(err))
	assert.NoFileExists(t, out)
}

func TestDegenerateFailPolicyAbortsRun(t *testing.T) {
	_, cfg := setup(t)
	require.NoError(t, os.WriteFile(cfg.Source.Path, []byte("a,b\n1,1\n2,1\n"), 0o644))
	cfg.Standardization.Degenerate = standardization.PolicyFail

	_, err := New(logging.Discard(), WithOutput(io.Discard), WithRenderer(&stubRenderer{})).Run(context.Background(), cfg)
	assert.Equal(t, errors.CodeDegenerateColumn, errors.GetCode(err))
}

func TestVisualizationFailureDoesNotStopExport(t *testing.T) {
	dir, cfg := setup(t)
	renderer := &stubRenderer{err: assert.AnError}

	summary, err := New(logging.Discard(), WithOutput(io.Discard), WithRenderer(renderer)).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, run.StatusPartial, summary.Status)
	assert.NotEmpty(t, summary.VisualizationError)
	assert.FileExists(t, filepath.Join(dir, "out.csv"))
}

func TestExportFailureIsCollected(t *testing.T) {
	dir, cfg := setup(t)
	cfg.Destinations = append(cfg.Destinations,
		exporter.Destination{Kind: "ftp"},
		exporter.Destination{Kind: exporter.KindJSON, Path: filepath.Join(dir, "out.json")},
	)

	summary, err := New(logging.Discard(), WithOutput(io.Discard), WithRenderer(&stubRenderer{})).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, run.StatusPartial, summary.Status)
	require.Len(t, summary.Exports, 3)
	assert.True(t, summary.Exports[0].OK)
	assert.False(t, summary.Exports[1].OK)
	assert.True(t, summary.Exports[2].OK)
}

func TestRunTableSkipsImport(t *testing.T) {
	_, cfg := setup(t)
	cfg.Destinations = nil
	cfg.Visualization.Enabled = new(bool)
	tbl := table.MustNew(table.NewNumeric("x", []float64{1, 2, 3}))

	summary, err := New(logging.Discard(), WithOutput(io.Discard)).RunTable(context.Background(), tbl, cfg)
	require.NoError(t, err)
	assert.Equal(t, stage.StatusSkipped, summary.Stages[0].Status)
	assert.Same(t, tbl, summary.Table)
	x, _ := tbl.Column("x")
	assert.Equal(t, []float64{-1, 0, 1}, x.Floats)
}

func TestPreview(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("age", []float64{31, 45}),
		table.NewCategorical("city", []*string{table.Str("Oslo"), nil}),
	)
	out := Preview(tbl, 5)
	assert.Contains(t, out, "[2x2] DataFrame")
	assert.Contains(t, out, "age")
	assert.Contains(t, out, "Oslo")
	assert.Contains(t, out, "NaN")

	assert.Equal(t, "Empty DataFrame", Preview(table.MustNew(), 5))
}

func TestFormatInfo(t *testing.T) {
	report := &profiling.Report{
		TotalRows:          4,
		TotalColumns:       2,
		NumericColumns:     []string{"age"},
		CategoricalColumns: []string{"city"},
		NullCounts:         map[string]int{"age": 1, "city": 0},
		ColumnsWithNulls:   []string{"age"},
		Columns:            []profiling.ColumnProfile{{Name: "age"}, {Name: "city"}},
	}
	info := FormatInfo(report)
	assert.Contains(t, info, "total_rows: 4")
	assert.Contains(t, info, "numeric_columns: [age]")
	assert.Contains(t, info, "    age: 1\n    city: 0")
	assert.Contains(t, info, "columns_with_null_values: [age]")
}
