// Package proxy turns run stores into feature rows and run-level proxy rows.
//
// Two entry points share the same building blocks:
//
//   - Features: each run's time range is cut into fixed windows
//     (package slicer); every window with at least one message becomes one
//     FeatureRecord of counts, rates, ratios, weighted points and distance.
//   - Proxy: each run becomes one ProxyRecord of weighted points normalised
//     by duration and distance.
//
// # Concurrency
//
// Runs are independent: each worker opens its own read-only store and
// shares only the immutable weights.Rules passed in by the caller. Inside
// one window the message counter and the odometry estimator run
// concurrently on separate cursors of the same store.
//
// # Failure Semantics
//
// A run whose store cannot be opened, or whose message table is empty, is
// skipped with a warning and reported in the batch's Skipped list. A window
// whose queries fail is skipped with a warning. Neither aborts the batch.
// A batch with no rows at all returns ErrNoData.
//
// Distances use telemetry.Distance so that "unavailable" never reads as 0.
package proxy
