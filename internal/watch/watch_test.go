package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"
	"tabprep/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base() *config.PipelineConfig {
	cfg := &config.PipelineConfig{
		Name:         "inbox",
		Source:       importer.Source{Kind: importer.KindCSV, Encoding: "latin1"},
		Destinations: []exporter.Destination{{Kind: exporter.KindCSV, Path: "out/{name}.clean.csv"}},
	}
	cfg.Visualization.OutputDir = "plots/{name}"
	cfg.ApplyDefaults("")
	return cfg
}

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		kind importer.Kind
		ok   bool
	}{
		{"a.csv", importer.KindCSV, true},
		{"a.TSV", importer.KindTXT, true},
		{"dir/b.xlsx", importer.KindExcel, true},
		{"c.parquet", importer.KindParquet, true},
		{"d.json", importer.KindJSON, true},
		{"e.xml", importer.KindXML, true},
		{"f.yaml", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		kind, ok := KindForPath(tt.path)
		if ok != tt.ok || kind != tt.kind {
			t.Errorf("KindForPath(%q) = %q, %v; want %q, %v", tt.path, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestForFile(t *testing.T) {
	b := base()
	cfg, ok := ForFile(b, "/inbox/sales.tsv")
	require.True(t, ok)

	assert.Equal(t, "inbox:sales", cfg.Name)
	assert.Equal(t, importer.KindTXT, cfg.Source.Kind)
	assert.Equal(t, "/inbox/sales.tsv", cfg.Source.Path)
	assert.Equal(t, "\t", cfg.Source.Delimiter)
	assert.Equal(t, "latin1", cfg.Source.Encoding)
	assert.Equal(t, "plots/sales", cfg.Visualization.OutputDir)
	assert.Equal(t, "out/sales.clean.csv", cfg.Destinations[0].Path)

	// base is left alone
	assert.Equal(t, "out/{name}.clean.csv", b.Destinations[0].Path)
	assert.Equal(t, "", b.Source.Path)

	_, ok = ForFile(b, "/inbox/readme.md")
	assert.False(t, ok)
}

func TestWatcherRunsPipelineForNewFile(t *testing.T) {
	dir := t.TempDir()
	got := make(chan *config.PipelineConfig, 4)
	run := func(ctx context.Context, cfg *config.PipelineConfig) error {
		got <- cfg
		return nil
	}

	w, err := NewWatcher(logging.Discard(), dir, base(), run, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("# notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.csv"), []byte("a\n1\n"), 0o644))

	select {
	case cfg := <-got:
		assert.Equal(t, filepath.Join(dir, "batch.csv"), cfg.Source.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline was not triggered")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, got, "one settled file triggers one run")
}

func TestOutputPaths(t *testing.T) {
	cfg := base()
	cfg.Destinations = append(cfg.Destinations,
		exporter.Destination{Kind: exporter.KindJSON, Path: "/srv/latest.json"},
		exporter.Destination{Kind: exporter.KindS3},
	)
	assert.Equal(t, []string{"/srv/latest.json"}, outputPaths(cfg))

	run, ok := ForFile(cfg, "/inbox/sales.csv")
	require.True(t, ok)
	assert.Equal(t, []string{absPath("out/sales.clean.csv"), "/srv/latest.json"}, outputPaths(run))
}

func TestWatcherIgnoresItsOwnExports(t *testing.T) {
	dir := t.TempDir()
	cfg := base()
	cfg.Destinations = []exporter.Destination{
		{Kind: exporter.KindCSV, Path: filepath.Join(dir, "{name}.clean.csv")},
		{Kind: exporter.KindJSON, Path: filepath.Join(dir, "latest.json")},
	}

	var runs int32
	got := make(chan string, 4)
	run := func(ctx context.Context, cfg *config.PipelineConfig) error {
		atomic.AddInt32(&runs, 1)
		for _, d := range cfg.Destinations {
			if err := os.WriteFile(d.Path, []byte("a\n1\n"), 0o644); err != nil {
				return err
			}
		}
		got <- cfg.Source.Path
		return nil
	}

	w, err := NewWatcher(logging.Discard(), dir, cfg, run, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.csv"), []byte("a\n1\n"), 0o644))

	select {
	case path := <-got:
		assert.Equal(t, filepath.Join(dir, "batch.csv"), path)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline was not triggered")
	}

	// give the exported files time to settle
	time.Sleep(500 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(logging.Discard(), filepath.Join(t.TempDir(), "missing"), base(), nil, 0)
	assert.Error(t, err)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(logging.Discard(), "every tuesday", base(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs int32
	run := func(ctx context.Context, cfg *config.PipelineConfig) error {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
		return nil
	}

	s, err := NewScheduler(logging.Discard(), "@every 1h", base(), run)
	require.NoError(t, err)

	first := make(chan bool)
	go func() { first <- s.tick(context.Background()) }()
	<-started

	assert.False(t, s.tick(context.Background()), "tick during a run is skipped")
	close(release)
	assert.True(t, <-first)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	s, err := NewScheduler(logging.Discard(), "@hourly", base(), func(context.Context, *config.PipelineConfig) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
