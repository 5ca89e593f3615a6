package proxy

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/24x6fhy/SWPtool/internal/bag"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

const (
	modeFeatures = "features"
	modeProxy    = "proxy"
)

// FeatureBatch is the outcome of extracting features from many runs.
type FeatureBatch struct {
	// Records are sorted by (RunID, SliceIdx).
	Records []FeatureRecord

	// Found is the number of stores submitted.
	Found int

	// Processed is the number of runs read successfully, with or without rows.
	Processed int

	// Skipped lists the runs excluded from output, sorted by path.
	Skipped []*RunError
}

// ProxyBatch is the outcome of computing run-level proxies for many runs.
type ProxyBatch struct {
	// Records are sorted by DatabaseName.
	Records []ProxyRecord

	// Found is the number of stores submitted.
	Found int

	// Skipped lists the runs excluded from output, sorted by path.
	Skipped []*RunError
}

// runResult is one worker's output; exactly one of the fields is set.
type runResult[T any] struct {
	out T
	err *RunError
}

// forEachRun opens every store with at most opts.Workers in flight and calls
// fn on it. Failures are isolated per run: they are returned in the result
// slot for that path and never cancel other workers.
func forEachRun[T any](ctx context.Context, paths []string, opts Options, mode string, fn func(context.Context, Run) (T, error)) []runResult[T] {
	results := make([]runResult[T], len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i].err = &RunError{Run: runName(path), Path: path, Op: OpOpen, Err: gctx.Err()}
				return nil
			}

			start := time.Now()
			opts.Logger.Info("processing run", "n", i+1, "of", len(paths), "path", path)

			b, err := bag.Open(path)
			if err != nil {
				results[i].err = &RunError{Run: runName(path), Path: path, Op: OpOpen, Err: err}
				opts.Metrics.RunSkipped(mode, OpOpen)
				logSkip(opts.Logger, results[i].err)
				return nil
			}
			defer func() {
				if closeErr := b.Close(); closeErr != nil {
					opts.Logger.Error("error closing run store", "path", path, "error", closeErr)
				}
			}()

			out, err := fn(gctx, b)
			if err != nil {
				var runErr *RunError
				if !errors.As(err, &runErr) {
					runErr = &RunError{Run: b.Name(), Path: path, Op: mode, Err: err}
				}
				results[i].err = runErr
				opts.Metrics.RunSkipped(mode, runErr.Op)
				logSkip(opts.Logger, runErr)
				return nil
			}

			results[i].out = out
			opts.Metrics.RunProcessed(mode, time.Since(start))
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return results
}

// ExtractFeatures builds feature records for every store in paths.
//
// Returns ErrNoData (with the populated batch) when no store yields a row.
func ExtractFeatures(ctx context.Context, paths []string, rules weights.Rules, opts Options) (FeatureBatch, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return FeatureBatch{}, err
	}

	results := forEachRun(ctx, paths, opts, modeFeatures, func(ctx context.Context, run Run) ([]FeatureRecord, error) {
		recs, err := Features(ctx, run, rules, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			opts.Metrics.MessagesCounted(r.TotalMsgs)
		}
		return recs, nil
	})

	batch := FeatureBatch{Found: len(paths)}
	for _, r := range results {
		if r.err != nil {
			batch.Skipped = append(batch.Skipped, r.err)
			continue
		}
		batch.Processed++
		batch.Records = append(batch.Records, r.out...)
	}

	sort.SliceStable(batch.Records, func(i, j int) bool {
		a, b := batch.Records[i], batch.Records[j]
		if a.RunID != b.RunID {
			return a.RunID < b.RunID
		}
		return a.SliceIdx < b.SliceIdx
	})
	sortSkipped(batch.Skipped)

	if len(batch.Records) == 0 {
		return batch, ErrNoData
	}
	return batch, nil
}

// ComputeProxies builds one proxy record per readable store in paths.
//
// Returns ErrNoData (with the populated batch) when every store was skipped.
func ComputeProxies(ctx context.Context, paths []string, rules weights.Rules, opts Options) (ProxyBatch, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return ProxyBatch{}, err
	}

	results := forEachRun(ctx, paths, opts, modeProxy, func(ctx context.Context, run Run) (ProxyRecord, error) {
		rec, err := Proxy(ctx, run, rules, opts)
		if err != nil {
			return ProxyRecord{}, err
		}
		opts.Metrics.MessagesCounted(rec.SimpleMsgCount)
		return rec, nil
	})

	batch := ProxyBatch{Found: len(paths)}
	for _, r := range results {
		if r.err != nil {
			batch.Skipped = append(batch.Skipped, r.err)
			continue
		}
		batch.Records = append(batch.Records, r.out)
	}

	sort.SliceStable(batch.Records, func(i, j int) bool {
		return batch.Records[i].DatabaseName < batch.Records[j].DatabaseName
	})
	sortSkipped(batch.Skipped)

	if len(batch.Records) == 0 {
		return batch, ErrNoData
	}
	return batch, nil
}

func sortSkipped(skipped []*RunError) {
	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].Path < skipped[j].Path
	})
}

func runName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
