package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/24x6fhy/SWPtool/internal/discover"
	"github.com/24x6fhy/SWPtool/internal/export"
	"github.com/24x6fhy/SWPtool/internal/proxy"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

// FeaturesOptions holds flags for the features command.
type FeaturesOptions struct {
	BatchOptions
	Output       string
	SliceSeconds float64
}

// FeaturesResult is the command's success payload.
type FeaturesResult struct {
	Output    string   `json:"output"`
	Rows      int      `json:"rows"`
	Found     int      `json:"databases_found"`
	Processed int      `json:"databases_processed"`
	Skipped   []string `json:"databases_skipped"`
}

func (r FeaturesResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Saved %d feature rows to: %s\n", r.Rows, r.Output)
	fmt.Fprintf(&b, "Processed %d/%d databases", r.Processed, r.Found)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, " (skipped: %s)", strings.Join(r.Skipped, ", "))
	}
	return b.String()
}

// NewFeaturesCommand creates the features command.
func NewFeaturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeaturesOptions{BatchOptions: BatchOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Extract per-slice feature rows from run stores",
		Long: `Extract fixed-duration time-slice feature rows from every run store.

Each run's time range is cut into windows of --slice seconds. Every
window containing at least one message becomes one row of message
counts, rates and ratios per sensor category, weighted points, distance
travelled and points per km. Rows whose distance cannot be estimated
carry "N/A" for distance_km and pts_per_km.

Unreadable or empty stores are skipped with a warning.

Examples:
  swptool features --data ./data --output ./outputs/features.csv
  swptool features -d ./data -s 30 --exclude S1,S2 --odometry-topic odom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(opts, cmd)
		},
	}

	addBatchFlags(cmd, &opts.BatchOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", filepath.Join(DefaultOutputDir, "features.csv"), "output CSV file path")
	cmd.Flags().Float64VarP(&opts.SliceSeconds, "slice", "s", proxy.DefaultSliceSeconds, "time slice duration in seconds")

	return cmd
}

func runFeatures(opts *FeaturesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := configureLogging(opts.RootOptions, formatter.GetErrWriter())

	if opts.SliceSeconds <= 0 {
		return fail(formatter, ExitCommandError, ErrCodeInvalidFlag,
			fmt.Sprintf("slice must be positive, got %v", opts.SliceSeconds), nil)
	}

	rules, err := weights.Load(opts.WeightsPath, logger)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeConfig, "failed to load weights", err)
	}

	logger.Info("searching for run stores", "dir", opts.DataDir)
	stores, err := discover.Stores(opts.DataDir, opts.Exclude, logger)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "failed to search for run stores", err)
	}
	if len(stores) == 0 {
		return fail(formatter, ExitFailure, ErrCodeNoStores, "no database files found", nil)
	}
	logger.Info("found run stores", "count", len(stores))

	ctx, cancel := commandContext(cmd)
	defer cancel()

	m := newMetrics(&opts.BatchOptions)
	popts := opts.proxyOptions(logger, m)
	popts.SliceSeconds = opts.SliceSeconds

	batch, err := proxy.ExtractFeatures(ctx, stores, rules, popts)
	if m != nil {
		if mErr := m.WriteTextfile(opts.MetricsFile); mErr != nil {
			logger.Error("failed to write metrics", "path", opts.MetricsFile, "error", mErr)
		}
	}
	if errors.Is(err, proxy.ErrNoData) {
		return fail(formatter, ExitFailure, ErrCodeNoData, "no valid data extracted", err)
	}
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "feature extraction failed", err)
	}

	reportSkipped(formatter, batch.Skipped)

	err = export.WriteFile(opts.Output, func(w io.Writer) error {
		return export.WriteFeatures(w, batch.Records)
	})
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write features", err)
	}

	return formatter.Success(FeaturesResult{
		Output:    opts.Output,
		Rows:      len(batch.Records),
		Found:     batch.Found,
		Processed: batch.Processed,
		Skipped:   skippedNames(batch.Skipped),
	})
}

// reportSkipped lists every skipped run with its cause in verbose mode.
func reportSkipped(f *OutputFormatter, skipped []*proxy.RunError) {
	for _, s := range skipped {
		f.VerboseLog("skipped %s (%s): %v", s.Path, s.Op, s.Err)
	}
}

func skippedNames(skipped []*proxy.RunError) []string {
	names := make([]string, 0, len(skipped))
	for _, s := range skipped {
		names = append(names, s.Run)
	}
	return names
}
