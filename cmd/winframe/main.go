// winframe evaluates window functions over Parquet data.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vegasq/winframe/batch"
	"github.com/vegasq/winframe/internal/config"
	"github.com/vegasq/winframe/internal/logger"
	"github.com/vegasq/winframe/internal/metrics"
	"github.com/vegasq/winframe/job"
	"github.com/vegasq/winframe/output"
	"github.com/vegasq/winframe/reader"
	"github.com/vegasq/winframe/window"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the state shared by every command.
type cli struct {
	stdout, stderr io.Writer
	cfgFile        string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "winframe",
		Short: "Evaluate window functions over Parquet files",
		Long: `winframe runs window jobs: named window functions with PARTITION BY,
ORDER BY and ROWS/RANGE frames, evaluated over Parquet data and appended
as columns.

Run a job:
  winframe run job.yaml

Override the job input and print a table:
  winframe run job.yaml --input "data/*.parquet" -f table --limit 20`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", "", "config file path")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json")
	pf.String("log-output", "", "log output: stderr, stdout or a file path")
	pf.Int("workers", 0, "partition workers (0 = GOMAXPROCS)")
	pf.String("nulls", "", "default null placement: smallest, largest")

	rootCmd.AddCommand(c.runCmd(), c.normalizeCmd(), c.schemaCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "winframe %s\n", version)
		},
	})
	return rootCmd
}

// setup loads configuration, with cmd's flags taking precedence, and builds
// the logger.
func (c *cli) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading config")
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializing logger")
	}
	return cfg, log, nil
}

func (c *cli) runCmd() *cobra.Command {
	var (
		input       string
		dumpMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "run <job.yaml>",
		Short: "Evaluate a job and print the input with its window columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			collector := metrics.New()
			err = c.run(ctx, cfg, log, collector, args[0], input)
			if dumpMetrics {
				if dumpErr := collector.Dump(c.stderr); dumpErr != nil && err == nil {
					err = dumpErr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Parquet file or glob; overrides the job input")
	cmd.Flags().StringP("format", "f", "", "output format: jsonl, csv, table")
	cmd.Flags().Int("limit", 0, "limit number of rows printed (0 = unlimited)")
	cmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "print Prometheus metrics to stderr when done")
	return cmd
}

func (c *cli) run(ctx context.Context, cfg *config.Config, log *zap.Logger, rec window.Recorder, jobPath, input string) error {
	j, err := job.LoadFile(jobPath)
	if err != nil {
		return err
	}
	exprs, err := j.Exprs(cfg.Builder())
	if err != nil {
		return err
	}
	if input == "" {
		input = j.Input
	}
	if input == "" {
		return errors.Newf("%s has no input; pass --input", jobPath)
	}

	start := time.Now()
	b, err := reader.ReadFiles(input)
	if err != nil {
		if os.IsNotExist(errors.UnwrapAll(err)) {
			return errors.Newf("file '%s' not found", input)
		}
		return err
	}
	log.Info("input loaded", zap.String("input", input), zap.Int("rows", b.NumRows()), zap.Duration("elapsed", time.Since(start)))

	opts := []window.Option{window.WithLogger(log), window.WithMetrics(rec)}
	if cfg.Engine.Workers > 0 {
		opts = append(opts, window.WithWorkers(cfg.Engine.Workers))
	}
	eng, err := window.NewEngine(opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	out, err := eng.Apply(ctx, b, exprs)
	if err != nil {
		return err
	}
	log.Info("job finished", zap.Int("windows", len(exprs)), zap.Duration("elapsed", time.Since(start)))

	if cfg.Output.Limit > 0 {
		out = out.Head(cfg.Output.Limit)
	}
	return c.format(cfg.Output.Format, out)
}

func (c *cli) format(name string, b *batch.Batch) error {
	f, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	formatter, err := output.New(f, c.stdout)
	if err != nil {
		return err
	}
	if err := formatter.Format(b); err != nil {
		return errors.Wrap(err, "formatting output")
	}
	return nil
}

func (c *cli) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <job.yaml>",
		Short: "Validate a job and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			j, err := job.LoadFile(args[0])
			if err != nil {
				return err
			}
			norm, err := j.Normalize(cfg.Builder())
			if err != nil {
				return err
			}
			return norm.Write(c.stdout)
		},
	}
}

// schemaFields is the layout of the schema command's output.
var schemaFields = []batch.Field{
	{Name: "name", Type: batch.String},
	{Name: "type", Type: batch.String},
	{Name: "physical_type", Type: batch.String},
	{Name: "logical_type", Type: batch.String, Nullable: true},
	{Name: "required", Type: batch.Bool},
	{Name: "optional", Type: batch.Bool},
	{Name: "repeated", Type: batch.Bool},
}

func (c *cli) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <file.parquet>",
		Short: "Show the columns of a Parquet file and the types they load as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			path, err := c.resolveSchemaPath(args[0])
			if err != nil {
				return err
			}
			infos, err := reader.ExtractSchemaInfo(path)
			if err != nil {
				if os.IsNotExist(errors.UnwrapAll(err)) {
					return errors.Newf("file '%s' not found", path)
				}
				return err
			}

			rows := make([]map[string]interface{}, len(infos))
			for i, field := range infos {
				row := map[string]interface{}{
					"name":          field.Name,
					"type":          field.Type,
					"physical_type": field.PhysicalType,
					"required":      field.Required,
					"optional":      field.Optional,
					"repeated":      field.Repeated,
				}
				if field.LogicalType != "" {
					row["logical_type"] = field.LogicalType
				}
				rows[i] = row
			}
			b, err := batch.FromRows(rows, schemaFields)
			if err != nil {
				return err
			}
			return c.format(cfg.Output.Format, b)
		},
	}
	cmd.Flags().StringP("format", "f", "", "output format: jsonl, csv, table")
	return cmd
}

// resolveSchemaPath picks the first match of a glob pattern.
func (c *cli) resolveSchemaPath(pattern string) (string, error) {
	if !strings.ContainsAny(pattern, "*?[]") {
		return pattern, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", errors.Wrap(err, "invalid glob pattern")
	}
	if len(matches) == 0 {
		return "", errors.Newf("no files match pattern: %s", pattern)
	}
	if len(matches) > 1 {
		fmt.Fprintf(c.stderr, "# Showing schema from: %s (%d files matched)\n", matches[0], len(matches))
	}
	return matches[0], nil
}
