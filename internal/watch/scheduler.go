package watch

import (
	"context"
	"log/slog"
	"sync"

	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/robfig/cron"
)

// Scheduler runs the pipeline on a cron schedule. A tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	logger   *slog.Logger
	spec     string
	schedule cron.Schedule
	cfg      *config.PipelineConfig
	run      RunFunc
	mu       sync.Mutex
}

// NewScheduler parses spec, which takes seconds as an optional first field
// and descriptors such as "@hourly" or "@every 10m"
func NewScheduler(logger *slog.Logger, spec string, cfg *config.PipelineConfig, run RunFunc) (*Scheduler, error) {
	schedule, err := cron.Parse(spec)
	if err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeInvalidInput, err), "invalid cron spec %q", spec)
	}
	return &Scheduler{
		logger:   logging.Component(logger, "scheduler"),
		spec:     spec,
		schedule: schedule,
		cfg:      cfg,
		run:      run,
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))
	c.Start()
	defer c.Stop()

	s.logger.Info("schedule started", "spec", s.spec, "pipeline", s.cfg.Name)
	<-ctx.Done()
	return nil
}

// tick runs the pipeline unless a run is already in progress. It reports
// whether a run was started.
func (s *Scheduler) tick(ctx context.Context) bool {
	if !s.mu.TryLock() {
		s.logger.Warn("previous run still in progress, skipping tick", "spec", s.spec)
		return false
	}
	defer s.mu.Unlock()

	if err := s.run(ctx, s.cfg); err != nil {
		s.logger.Error("scheduled run failed", "code", errors.GetCode(err), "error", err)
	}
	return true
}
