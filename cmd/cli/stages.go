package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"tabprep/adapters/plot"
	"tabprep/domain/standardization"
	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/imputer"
	"tabprep/internal/profiler"
	"tabprep/internal/standardizer"
	"tabprep/internal/visualizer"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newProfileCmd(c *cli) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Print the profile report of a file as JSON",
		Long: `Import a file and print its shape, column kinds, null counts and
per-column statistics.

Example: tabprep profile data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.load(cmd.Context(), &src, args[0])
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, profiler.New(c.logger).Profile(t))
		},
	}

	src.register(cmd)
	return cmd
}

func newImputeCmd(c *cli) *cobra.Command {
	var src sourceFlags
	var threshold float64
	var out string

	cmd := &cobra.Command{
		Use:   "impute [file]",
		Short: "Drop mostly-empty columns and fill the remaining missing values",
		Long: `Drop every column whose missing ratio is above --threshold, then fill
numeric columns with their median or mean and categorical columns with
their mode.

Example: tabprep impute data.csv --threshold 0.3 --out clean.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpute(cmd.Context(), c, &src, args[0], threshold, out)
		},
	}

	src.register(cmd)
	cmd.Flags().Float64Var(&threshold, "threshold", imputer.DefaultThreshold, "Missing ratio above which a column is dropped; 1 keeps every column")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: CSV on stdout)")
	return cmd
}

func runImpute(ctx context.Context, c *cli, src *sourceFlags, path string, threshold float64, out string) error {
	t, err := c.load(ctx, src, path)
	if err != nil {
		return err
	}
	res, err := imputer.New(c.logger).Impute(t, threshold)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imputed columns: %v Dropped columns: %v\n", res.ImputedColumns(), res.Dropped)
	return c.writeTable(ctx, res.Table, out)
}

func newStandardizeCmd(c *cli) *cobra.Command {
	var src sourceFlags
	var mode, degenerate, out string

	cmd := &cobra.Command{
		Use:   "standardize [file]",
		Short: "Rescale numeric columns with z-score or min-max",
		Long: `Rescale every numeric column in place. Categorical columns are left
untouched. Columns that cannot be rescaled (constant or empty) are skipped
unless --degenerate fail is set.

Example: tabprep standardize data.csv --mode min-max --out scaled.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandardize(cmd.Context(), c, &src, args[0], mode, degenerate, out)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(standardization.ModeZScore), "Scaling mode: z-score|min-max")
	cmd.Flags().StringVar(&degenerate, "degenerate", string(standardization.PolicySkip), "Constant or empty columns: skip|fail")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: CSV on stdout)")
	return cmd
}

func runStandardize(ctx context.Context, c *cli, src *sourceFlags, path, mode, degenerate, out string) error {
	policy, err := standardization.ParsePolicy(degenerate)
	if err != nil {
		return err
	}
	t, err := c.load(ctx, src, path)
	if err != nil {
		return err
	}
	res, err := standardizer.New(c.logger, policy).Apply(t, standardization.Mode(mode))
	if err != nil {
		return err
	}
	for _, skip := range res.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %s\n", skip.Column, skip.Reason)
	}
	return c.writeTable(ctx, res.Table, out)
}

func newPlotCmd(c *cli) *cobra.Command {
	var src sourceFlags
	var out string
	var maxCategories int

	cmd := &cobra.Command{
		Use:   "plot [file]",
		Short: "Render distribution, box, pair and frequency plots",
		Long: `Render one distribution and one box plot per numeric column, a pair grid
of the numeric columns, and one frequency chart per categorical column.
An index.html linking every plot is written next to them.

Example: tabprep plot data.csv --out plots/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := c.load(ctx, &src, args[0])
			if err != nil {
				return err
			}
			v := visualizer.New(c.logger, plot.NewRenderer(), out, visualizer.WithMaxCategories(maxCategories))
			report, err := v.Visualize(ctx, t)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d plots to %s\n", len(report.Plots), report.OutputDir)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&out, "out", visualizer.DefaultOutputDir, "Directory the plots are written to")
	cmd.Flags().IntVar(&maxCategories, "max-categories", visualizer.DefaultMaxCategories, "Most frequent values shown per categorical column")
	return cmd
}

// destFlags describe one export destination on the command line
type destFlags struct {
	kind       string
	path       string
	delimiter  string
	sheet      string
	table      string
	destConfig string
}

// destination merges --dest-config with the individual flags; flags win
func (f *destFlags) destination() (exporter.Destination, error) {
	var d exporter.Destination
	if f.destConfig != "" {
		data, err := os.ReadFile(f.destConfig)
		if err != nil {
			if os.IsNotExist(err) {
				return d, errors.NotFound("destination file " + f.destConfig)
			}
			return d, errors.Wrapf(err, "reading %s", f.destConfig)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return d, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}

	if f.kind != "" {
		d.Kind = exporter.Kind(f.kind)
	}
	if f.path != "" {
		d.Path = f.path
	}
	if f.delimiter != "" {
		d.Delimiter = f.delimiter
	}
	if f.sheet != "" {
		d.Sheet = f.sheet
	}
	if f.table != "" {
		d.Table = f.table
	}
	if err := config.Validate(&d); err != nil {
		return d, err
	}
	return d, nil
}

func newExportCmd(c *cli) *cobra.Command {
	var src sourceFlags
	var dest destFlags

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write a file to another format, a database or an object store",
		Long: `Import a file and export it unchanged to one destination.

File kinds take --path (a default name is used when empty). The sql kind
and the object-store kinds read their connection from --dest-config, a YAML
file holding one destination block:

  kind: aws_s3
  s3:
    bucket: reports
    key: data/exported.csv
    region: eu-west-1

Example: tabprep export data.csv --kind parquet --path data.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := dest.destination()
			if err != nil {
				return err
			}
			t, err := c.load(ctx, &src, args[0])
			if err != nil {
				return err
			}
			if err := exporter.New(c.logger).ExportResult(ctx, t, d); err != nil {
				return err
			}
			fmt.Printf("Data Exported (%s)\n", d.Describe())
			return nil
		},
	}

	cmd.Flags().StringVar(&src.kind, "from", "", "Input format (default: from the extension)")
	cmd.Flags().StringVar(&src.delimiter, "in-delimiter", "", "Field delimiter for txt input")
	cmd.Flags().StringVar(&src.encoding, "encoding", "", "Text encoding for csv and txt input")
	cmd.Flags().StringVar(&src.sheet, "in-sheet", "", "Sheet name for excel input")

	cmd.Flags().StringVar(&dest.kind, "kind", "", "Destination kind: "+exportKinds())
	cmd.Flags().StringVar(&dest.path, "path", "", "Destination file path")
	cmd.Flags().StringVar(&dest.delimiter, "delimiter", "", "Field delimiter for txt output (default: tab)")
	cmd.Flags().StringVar(&dest.sheet, "sheet", "", "Sheet name for excel output")
	cmd.Flags().StringVar(&dest.table, "table", "", "Table name for sql output")
	cmd.Flags().StringVar(&dest.destConfig, "dest-config", "", "YAML file with one destination block")
	return cmd
}

func exportKinds() string {
	kinds := exporter.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "|")
}
