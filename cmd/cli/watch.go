package main

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/watch"

	"github.com/spf13/cobra"
)

// basePipeline loads the pipeline file when given, otherwise the single-file
// defaults; watch and schedule override the source per run
func basePipeline(c *cli, pipelineFile string) (*config.PipelineConfig, error) {
	if pipelineFile == "" {
		pipelineFile = c.cfg.PipelineFile
	}
	if pipelineFile == "" {
		return config.DefaultPipeline(""), nil
	}
	return config.LoadPipeline(pipelineFile)
}

func (c *cli) runFunc() watch.RunFunc {
	p := c.pipeline(os.Stdout)
	return func(ctx context.Context, cfg *config.PipelineConfig) error {
		_, err := p.Run(ctx, cfg)
		return err
	}
}

func newWatchCmd(c *cli) *cobra.Command {
	var pipelineFile string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Run the pipeline on every file that lands in a directory",
		Long: `Watch a directory and run the pipeline once per new or rewritten file.
The input format comes from the file extension. A {name} placeholder in the
plots directory or in a destination path is replaced by the file stem.

Runs are processed one at a time until interrupted.

Example: tabprep watch inbox/ --config pipeline.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := basePipeline(c, pipelineFile)
			if err != nil {
				return err
			}
			w, err := watch.NewWatcher(c.logger, args[0], base, c.runFunc(), debounce)
			if err != nil {
				return err
			}
			return ignoreCancel(w.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&pipelineFile, "config", "", "Pipeline YAML file used as the template for each run")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a written file is processed")
	return cmd
}

func newScheduleCmd(c *cli) *cobra.Command {
	var pipelineFile string
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Long: `Run a pipeline file on a cron schedule until interrupted. A tick that
fires while the previous run is still going is skipped.

The schedule accepts five or six fields (seconds first) or a descriptor
such as @hourly or @every 30m.

Example: tabprep schedule --cron "@every 1h" --config pipeline.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipelineFile == "" && c.cfg.PipelineFile == "" {
				return errors.InvalidInput("no pipeline file: pass --config or set TABPREP_PIPELINE_FILE")
			}
			cfg, err := basePipeline(c, pipelineFile)
			if err != nil {
				return err
			}
			s, err := watch.NewScheduler(c.logger, spec, cfg, c.runFunc())
			if err != nil {
				return err
			}
			return ignoreCancel(s.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&pipelineFile, "config", "", "Pipeline YAML file")
	cmd.Flags().StringVar(&spec, "cron", "@every 1h", "Cron schedule")
	return cmd
}

// ignoreCancel treats an interrupt as a clean exit
func ignoreCancel(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
