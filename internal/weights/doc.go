// Package weights resolves topic names to importance weights.
//
// A rule set is an ordered list of (pattern, weight) pairs plus a default
// weight. Patterns are regular expressions anchored at the start of the
// topic name only: "lidar" matches "lidar_points" but not "front_lidar".
// The first matching rule wins; no match yields the default (1.0 unless
// the config declares one).
//
// Rule sets are loaded once from a YAML or CUE file:
//
//	topic_weights:
//	  "/sensing/lidar.*": 2.0
//	  "/sensing/camera.*": 1.5
//	  default: 1.0
//
// Entries whose weight is not a finite, non-negative number, and entries
// whose pattern does not compile, are dropped with a warning. A bad entry
// never fails the load.
//
// Rules is immutable after construction and safe to share between goroutines.
package weights
