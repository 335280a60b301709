package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/pipeline"
)

type batchFlags struct {
	outputDir string
	workers   int
	strict    bool
	noCache   bool
	refresh   bool
	noTUI     bool
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "batch [file.csv]",
		Short: "Render one cover per CSV row",
		Long: `Render one cover per row of a CSV file.

Required columns are template_key and output_name. Optional columns are
background_path, text.<key>, text.<key>.color and slot.<key>; export a matching
header with 'coverkit template csv <key>'.

A row that fails is reported and the run continues. A row naming an unknown
template renders with the first stored template instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "output directory (default from config)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, fmt.Sprintf("rows rendered concurrently, at most %d (default from config)", pipeline.MaxWorkers))
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "abort when the header has legacy or unknown columns")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "re-render rows even when cached")
	cmd.Flags().BoolVar(&flags.noTUI, "no-tui", false, "log rows instead of showing a progress bar")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, path string, flags batchFlags) error {
	table, err := batch.ReadFile(path)
	if err != nil {
		return err
	}

	report := batch.ValidateHeader(table.Header)
	if !report.OK() {
		if len(report.Missing) > 0 || flags.strict {
			return errors.New(errors.ErrCodeInvalidCSV, "%s: %s", path, report.String())
		}
		printWarning("%s", report.String())
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.BatchOptions{
		Options: c.pipelineOptions(flags.outputDir, flags.refresh),
		Workers: c.Config.Workers,
	}
	if flags.workers != 0 {
		opts.Workers = flags.workers
	}

	var result *pipeline.BatchResult
	if !flags.noTUI && isTerminal(os.Stdout) {
		result, err = runBatchTUI(ctx, runner, table, opts)
	} else {
		result, err = runner.Batch(ctx, table, opts)
	}
	if result == nil {
		return err
	}

	printBatchSummary(result, opts.OutputDir)
	if err != nil {
		return err
	}
	if result.Succeeded == 0 && result.Total > 0 {
		return errors.New(errors.ErrCodeInvalidCSV, "no row rendered")
	}
	return nil
}

func printBatchSummary(res *pipeline.BatchResult, outputDir string) {
	for _, row := range res.Rows {
		if row.Err != nil || row.Warning != "" {
			fmt.Fprintln(stdout, rowLine(row))
		}
	}

	summary := fmt.Sprintf("Batch complete %d/%d", res.Succeeded, res.Total)
	if res.Succeeded == res.Total {
		printSuccess("%s", summary)
	} else {
		printWarning("%s", summary)
	}
	printDetail("Directory: %s", outputDir)
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
