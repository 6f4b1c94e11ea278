package watch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is processed
const DefaultDebounce = 500 * time.Millisecond

// Watcher runs the pipeline for every supported file created or written in a
// directory. Files the pipeline itself exports are never picked up as input.
type Watcher struct {
	logger   *slog.Logger
	dir      string
	base     *config.PipelineConfig
	run      RunFunc
	debounce time.Duration
	fs       *fsnotify.Watcher
	outputs  map[string]struct{}
}

// NewWatcher starts watching dir. Events are buffered until Run is called.
func NewWatcher(logger *slog.Logger, dir string, base *config.PipelineConfig, run RunFunc, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		logger:   logging.Component(logger, "watcher"),
		dir:      dir,
		base:     base,
		run:      run,
		debounce: debounce,
		fs:       fw,
		outputs:  make(map[string]struct{}),
	}
	w.markOutputs(base)
	return w, nil
}

func (w *Watcher) markOutputs(cfg *config.PipelineConfig) {
	for _, p := range outputPaths(cfg) {
		w.outputs[p] = struct{}{}
	}
}

func (w *Watcher) isOutput(path string) bool {
	_, ok := w.outputs[absPath(path)]
	return ok
}

// Run processes events until ctx is cancelled. Files are handled one at a
// time, in name order when several settle together.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	w.logger.Info("watching directory", "dir", w.dir)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if _, supported := KindForPath(event.Name); !supported || w.isOutput(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				w.process(ctx, p)
			}
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if w.isOutput(path) {
		return
	}
	cfg, ok := ForFile(w.base, path)
	if !ok {
		return
	}
	w.markOutputs(cfg)
	w.logger.Info("file settled, starting run", "path", path)
	if err := w.run(ctx, cfg); err != nil {
		w.logger.Error("run failed", "path", path, "code", errors.GetCode(err), "error", err)
	}
}
