package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tabprep/adapters/file"
	"tabprep/domain/table"
	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"
	"tabprep/internal/logging"
	"tabprep/internal/pipeline"
	"tabprep/internal/watch"

	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs once the environment is loaded
type cli struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func main() {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "tabprep",
		Short:         "Import, clean, standardize, plot and export tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	rootCmd.AddCommand(
		newRunCmd(c),
		newProfileCmd(c),
		newImputeCmd(c),
		newStandardizeCmd(c),
		newPlotCmd(c),
		newExportCmd(c),
		newWatchCmd(c),
		newScheduleCmd(c),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return nil
}

// pipeline builds a pipeline that keeps run manifests under the output dir
func (c *cli) pipeline(out io.Writer) *pipeline.Pipeline {
	return pipeline.New(c.logger,
		pipeline.WithOutput(out),
		pipeline.WithManifestDir(filepath.Join(c.cfg.OutputDir, "runs")),
	)
}

func newRunCmd(c *cli) *cobra.Command {
	var pipelineFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full pipeline from a YAML file",
		Long: `Run every stage of a pipeline: import, profile, impute, standardize,
visualize and export.

The pipeline file defaults to TABPREP_PIPELINE_FILE.

Example: tabprep run --config pipeline.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipelineFile == "" {
				pipelineFile = c.cfg.PipelineFile
			}
			if pipelineFile == "" {
				return errors.InvalidInput("no pipeline file: pass --config or set TABPREP_PIPELINE_FILE")
			}
			return runPipeline(cmd.Context(), c, pipelineFile)
		},
	}

	cmd.Flags().StringVar(&pipelineFile, "config", "", "Pipeline YAML file")
	return cmd
}

func runPipeline(ctx context.Context, c *cli, pipelineFile string) error {
	cfg, err := config.LoadPipeline(pipelineFile)
	if err != nil {
		return err
	}

	summary, err := c.pipeline(os.Stdout).Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s %s in %v\n", summary.RunID.Short(), summary.Status, summary.Duration())
	return nil
}

// sourceFlags are the reader options shared by the single-stage commands
type sourceFlags struct {
	kind      string
	delimiter string
	encoding  string
	sheet     string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "Input format: csv|txt|excel|json|xml|parquet (default: from the extension)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Field delimiter for txt input")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Text encoding for csv and txt input")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet name for excel input")
}

// source builds the import source for path, inferring the kind from the
// extension when --kind is not set
func (f *sourceFlags) source(path string) (importer.Source, error) {
	kind := importer.Kind(f.kind)
	if kind == "" {
		inferred, ok := watch.KindForPath(path)
		if !ok {
			return importer.Source{}, errors.Newf(errors.CodeUnsupportedFormat,
				"cannot infer format of %s: pass --kind", path)
		}
		kind = inferred
	}

	delimiter := f.delimiter
	if delimiter == "" && filepath.Ext(path) == ".tsv" {
		delimiter = "\t"
	}
	return importer.Source{
		Kind:      kind,
		Path:      path,
		Delimiter: delimiter,
		Encoding:  f.encoding,
		Sheet:     f.sheet,
	}, nil
}

func (c *cli) load(ctx context.Context, f *sourceFlags, path string) (*table.Table, error) {
	src, err := f.source(path)
	if err != nil {
		return nil, err
	}
	return importer.New(c.logger).Import(ctx, src)
}

// writeTable writes t to out, choosing the format from its extension.
// An empty out prints CSV to stdout.
func (c *cli) writeTable(ctx context.Context, t *table.Table, out string) error {
	if out == "" {
		return file.WriteDelimited(os.Stdout, t, ",")
	}
	kind, ok := watch.KindForPath(out)
	if !ok {
		return errors.Newf(errors.CodeUnsupportedFormat, "cannot infer format of %s", out)
	}
	d := exporter.Destination{Kind: exporter.Kind(kind), Path: out}
	if filepath.Ext(out) == ".tsv" {
		d.Delimiter = "\t"
	}
	return exporter.New(c.logger).ExportResult(ctx, t, d)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
