package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/24x6fhy/SWPtool/internal/aggregate"
	"github.com/24x6fhy/SWPtool/internal/bag"
	"github.com/24x6fhy/SWPtool/internal/odometry"
	"github.com/24x6fhy/SWPtool/internal/slicer"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

// Run is the read-only view of a run store used to build records.
// *bag.Bag satisfies it.
type Run interface {
	odometry.Source
	Name() string
	Path() string
	Range(ctx context.Context) (first, last int64, err error)
	MessageCount(ctx context.Context) (int64, error)
	Catalog(ctx context.Context) (telemetry.Catalog, error)
	Count(ctx context.Context, cat telemetry.Catalog, scope *telemetry.Window) (telemetry.TopicCounts, error)
}

var _ Run = (*bag.Bag)(nil)

// errNoActivity stops a window's concurrent queries once the counter finds nothing.
var errNoActivity = errors.New("no activity in window")

// SliceName is the per-slice bag name: "<run>_slice<idx>".
func SliceName(run string, idx int) string {
	return fmt.Sprintf("%s_slice%d", run, idx)
}

// measure counts messages and estimates distance over scope concurrently.
// With requireActivity set, an empty count cancels the estimate and
// errNoActivity is returned.
func measure(ctx context.Context, run Run, cat telemetry.Catalog, scope *telemetry.Window, opts Options, requireActivity bool) (telemetry.TopicCounts, telemetry.Distance, error) {
	var (
		counts   telemetry.TopicCounts
		distance telemetry.Distance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := run.Count(gctx, cat, scope)
		if err != nil {
			return &RunError{Run: run.Name(), Path: run.Path(), Op: OpCount, Err: err}
		}
		if requireActivity && len(c) == 0 {
			return errNoActivity
		}
		counts = c
		return nil
	})
	g.Go(func() error {
		d, err := opts.estimator().Estimate(gctx, run, opts.OdometryTopic, scope)
		if err != nil {
			return &RunError{Run: run.Name(), Path: run.Path(), Op: OpOdom, Err: err}
		}
		distance = d
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, telemetry.Unavailable(), err
	}
	return counts, distance, nil
}

// BuildSlice computes the feature record of one slice.
// ok is false when the slice is empty (no messages, or End <= Start).
func BuildSlice(ctx context.Context, run Run, cat telemetry.Catalog, rules weights.Rules, s slicer.Slice, opts Options) (rec FeatureRecord, ok bool, err error) {
	opts = opts.withDefaults()
	if s.Window.Empty() {
		return FeatureRecord{}, false, nil
	}

	w := s.Window
	counts, distance, err := measure(ctx, run, cat, &w, opts, true)
	if errors.Is(err, errNoActivity) {
		return FeatureRecord{}, false, nil
	}
	if err != nil {
		return FeatureRecord{}, false, err
	}

	summary := aggregate.Aggregate(counts, rules, w.Seconds())
	return newFeatureRecord(run.Name(), s.Index, w, summary, distance), true, nil
}

// Features computes the feature records of every non-empty slice of run.
//
// A window whose queries fail is logged and skipped; the remaining windows
// are still returned. An empty message table returns bag.ErrEmptyRun
// wrapped in a RunError.
func Features(ctx context.Context, run Run, rules weights.Rules, opts Options) ([]FeatureRecord, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("run", run.Name())

	first, last, err := run.Range(ctx)
	if err != nil {
		return nil, &RunError{Run: run.Name(), Path: run.Path(), Op: OpRange, Err: err}
	}

	cat, err := run.Catalog(ctx)
	if err != nil {
		return nil, &RunError{Run: run.Name(), Path: run.Path(), Op: OpCatalog, Err: err}
	}

	plan, err := slicer.New(first, last, opts.SliceSeconds)
	if err != nil {
		return nil, err
	}

	var records []FeatureRecord
	for s := range plan.Slices() {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec, ok, err := BuildSlice(ctx, run, cat, rules, s, opts)
		if err != nil {
			logger.Warn("skipping slice", "slice", s.Index, "window", s.Window.String(), "error", err)
			continue
		}
		if !ok {
			logger.Debug("empty slice", "slice", s.Index)
			continue
		}
		opts.Metrics.SliceEmitted()
		records = append(records, rec)
	}

	logger.Info("slices extracted", "planned", plan.Count(), "emitted", len(records))
	return records, nil
}

// Proxy computes the run-level proxy record of run.
// An empty message table returns bag.ErrEmptyRun wrapped in a RunError.
func Proxy(ctx context.Context, run Run, rules weights.Rules, opts Options) (ProxyRecord, error) {
	opts = opts.withDefaults()

	total, err := run.MessageCount(ctx)
	if err != nil {
		return ProxyRecord{}, &RunError{Run: run.Name(), Path: run.Path(), Op: OpCount, Err: err}
	}
	if total == 0 {
		return ProxyRecord{}, &RunError{Run: run.Name(), Path: run.Path(), Op: OpRange, Err: bag.ErrEmptyRun}
	}

	first, last, err := run.Range(ctx)
	if err != nil {
		return ProxyRecord{}, &RunError{Run: run.Name(), Path: run.Path(), Op: OpRange, Err: err}
	}

	cat, err := run.Catalog(ctx)
	if err != nil {
		return ProxyRecord{}, &RunError{Run: run.Name(), Path: run.Path(), Op: OpCatalog, Err: err}
	}

	counts, distance, err := measure(ctx, run, cat, nil, opts, false)
	if err != nil {
		return ProxyRecord{}, err
	}

	seconds := float64(last-first) / 1e9
	hours := seconds / 3600
	weighted := aggregate.Sum(aggregate.Weighted(counts, rules))

	var perHour float64
	if hours > 0 {
		perHour = weighted / hours
	}

	if !distance.Available() {
		opts.Logger.Debug("distance unavailable", "run", run.Name(), "odometry_topic", opts.OdometryTopic)
	}

	return ProxyRecord{
		DatabaseName:     run.Name(),
		DatabasePath:     run.Path(),
		SimpleMsgCount:   total,
		WeightedMsgCount: weighted,
		DurationSeconds:  seconds,
		DurationHours:    hours,
		DistanceKM:       distance,
		PtsPerHour:       perHour,
		PtsPerKM:         distance.Per(weighted),
	}, nil
}

func logSkip(logger *slog.Logger, err error) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		logger.Warn("skipping run", "run", runErr.Run, "path", runErr.Path, "op", runErr.Op, "error", runErr.Err)
		return
	}
	logger.Warn("skipping run", "error", err)
}
