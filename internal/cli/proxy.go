package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/24x6fhy/SWPtool/internal/discover"
	"github.com/24x6fhy/SWPtool/internal/export"
	"github.com/24x6fhy/SWPtool/internal/proxy"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

// Output file names written by the proxy command.
const (
	ProxyResultsFile = "proxy_results.csv"
	ProxySummaryFile = "proxy_summary.json"
)

// ProxyOptions holds flags for the proxy command.
type ProxyOptions struct {
	BatchOptions
	OutputDir string

	// Now overrides the summary timestamp (for testing). Nil means time.Now.
	Now func() time.Time
}

// ProxyResult is the command's success payload.
type ProxyResult struct {
	Results string        `json:"results"`
	Summary proxy.Summary `json:"summary"`
	Path    string        `json:"summary_path"`
}

func (r ProxyResult) String() string {
	return fmt.Sprintf("Done: %d/%d databases\nSaved to %s and %s",
		r.Summary.DatabasesProcessed, r.Summary.DatabasesFound, r.Results, r.Path)
}

// NewProxyCommand creates the proxy command.
func NewProxyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProxyOptions{BatchOptions: BatchOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Compute run-level proxy scores",
		Long: `Compute one workload proxy row per run store.

For each run: total and weighted message counts, drive duration, distance
from the odometry topic, weighted points per hour and per km. Results are
written to proxy_results.csv and a batch summary to proxy_summary.json in
the output directory.

Unreadable or empty stores are skipped with a warning.

Examples:
  swptool proxy --data ./data --output ./outputs
  swptool proxy -d ./data -w ./configs/weights.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(opts, cmd)
		},
	}

	addBatchFlags(cmd, &opts.BatchOptions)
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", DefaultOutputDir, "output directory")

	return cmd
}

func runProxy(opts *ProxyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := configureLogging(opts.RootOptions, formatter.GetErrWriter())

	logger.Info("discovering databases", "dir", opts.DataDir)
	stores, err := discover.Stores(opts.DataDir, opts.Exclude, logger)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "failed to search for run stores", err)
	}
	if len(stores) == 0 {
		return fail(formatter, ExitFailure, ErrCodeNoStores, "no .db3 files found", nil)
	}
	logger.Info("found databases", "count", len(stores))

	rules, err := weights.Load(opts.WeightsPath, logger)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "failed to load weights", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	m := newMetrics(&opts.BatchOptions)
	popts := opts.proxyOptions(logger, m)

	logger.Info("processing databases")
	batch, err := proxy.ComputeProxies(ctx, stores, rules, popts)
	if m != nil {
		if mErr := m.WriteTextfile(opts.MetricsFile); mErr != nil {
			logger.Error("failed to write metrics", "path", opts.MetricsFile, "error", mErr)
		}
	}
	if errors.Is(err, proxy.ErrNoData) {
		return fail(formatter, ExitFailure, ErrCodeNoData, "no databases processed", err)
	}
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "proxy computation failed", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	reportSkipped(formatter, batch.Skipped)

	config := popts.Config()
	config["data_path"] = opts.DataDir
	config["weights_path"] = opts.WeightsPath
	config["exclude"] = append([]string{}, opts.Exclude...)
	config["weights"] = rules.Map()
	summary, err := proxy.Summarize(batch, config, now())
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "failed to summarize batch", err)
	}

	resultsPath := filepath.Join(opts.OutputDir, ProxyResultsFile)
	err = export.WriteFile(resultsPath, func(w io.Writer) error {
		return export.WriteProxies(w, batch.Records)
	})
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write proxy results", err)
	}

	summaryPath := filepath.Join(opts.OutputDir, ProxySummaryFile)
	err = export.WriteFile(summaryPath, func(w io.Writer) error {
		return export.WriteSummary(w, summary)
	})
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write proxy summary", err)
	}

	return formatter.SuccessWithBatch(ProxyResult{
		Results: resultsPath,
		Summary: summary,
		Path:    summaryPath,
	}, summary.BatchID)
}
