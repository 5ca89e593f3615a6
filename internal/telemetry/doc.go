// Package telemetry provides the domain types shared by the proxy engine.
//
// This package contains type definitions and the case-folded topic name
// matching they share. All other internal packages import telemetry;
// telemetry imports nothing internal.
//
// Key design constraints:
//   - Timestamps are int64 nanoseconds, windows are half-open [Start, End)
//   - A distance is either a positive number of kilometres or unavailable,
//     never a numeric zero standing in for "unknown" (see Distance)
//   - Run data is read-only; nothing here mutates a store
package telemetry
