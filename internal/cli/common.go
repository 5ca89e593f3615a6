package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/24x6fhy/SWPtool/internal/metrics"
	"github.com/24x6fhy/SWPtool/internal/proxy"
)

// Error codes reported in CLI error responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Weights config missing or unparsable
	ErrCodeNoStores    = "E003" // No run stores found
	ErrCodeNoData      = "E004" // Stores found but no rows produced
	ErrCodeOpenFailed  = "E005" // Run store could not be opened
	ErrCodeWriteFailed = "E006" // Output could not be written
	ErrCodeInvalidFlag = "E007" // Flag value out of range
)

// Default locations, relative to the working directory.
const (
	DefaultDataDir     = "data"
	DefaultWeightsPath = "configs/weights.yaml"
	DefaultOutputDir   = "outputs"
)

// BatchOptions holds flags shared by the batch commands.
type BatchOptions struct {
	*RootOptions
	DataDir       string
	WeightsPath   string
	OdometryTopic string
	Exclude       []string
	Workers       int
	MetricsFile   string
}

func addBatchFlags(cmd *cobra.Command, opts *BatchOptions) {
	cmd.Flags().StringVarP(&opts.DataDir, "data", "d", DefaultDataDir, "root directory containing .db3 files")
	cmd.Flags().StringVarP(&opts.WeightsPath, "weights", "w", DefaultWeightsPath, "path to weights config (.yaml or .cue)")
	cmd.Flags().StringVar(&opts.OdometryTopic, "odometry-topic", proxy.DefaultOdometryTopic, "odometry topic name substring for distance")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "path substrings to exclude (e.g. --exclude S1,S2)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "runs processed in parallel (0 = number of CPUs)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
}

// configureLogging installs a text slog handler on w, at debug level when verbose.
func configureLogging(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// commandContext returns the command's context cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// fail reports an error through the formatter and returns the matching ExitError.
func fail(f *OutputFormatter, exitCode int, errCode, message string, err error) error {
	var details interface{}
	if err != nil {
		details = err.Error()
	}
	if outErr := f.Error(errCode, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode, message, err)
}

// newMetrics returns collectors when a metrics file was requested.
func newMetrics(opts *BatchOptions) *metrics.Metrics {
	if opts.MetricsFile == "" {
		return nil
	}
	return metrics.New()
}

func (o *BatchOptions) proxyOptions(logger *slog.Logger, m *metrics.Metrics) proxy.Options {
	return proxy.Options{
		OdometryTopic: o.OdometryTopic,
		Workers:       o.Workers,
		Logger:        logger,
		Metrics:       m,
	}
}
