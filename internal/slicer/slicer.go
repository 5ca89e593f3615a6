// Package slicer partitions a run's time range into fixed-length windows.
//
// Windows are half-open: [first + k·length, first + (k+1)·length) for
// k = 0, 1, 2, … while the window start is strictly before last. The final
// window is not clipped and may end after last. Empty windows are not
// filtered here; callers skip windows without messages.
package slicer

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// Slice is one planned window and its position in the run.
type Slice struct {
	Index  int
	Window telemetry.Window
}

// Plan describes the windows of one run. Plans are values; iterating one
// never changes it, so the same Plan always yields the same windows.
type Plan struct {
	First  int64 // earliest timestamp, ns
	Last   int64 // latest timestamp, ns
	Length int64 // window length, ns
}

// New builds a plan with windows of the given length in seconds.
// Fractional seconds are truncated to whole nanoseconds.
func New(first, last int64, seconds float64) (Plan, error) {
	if math.IsNaN(seconds) || seconds <= 0 {
		return Plan{}, fmt.Errorf("slice length must be positive, got %v", seconds)
	}
	length := seconds * float64(time.Second)
	if length < 1 || length > math.MaxInt64 {
		return Plan{}, fmt.Errorf("slice length %v s out of range", seconds)
	}
	return Plan{First: first, Last: last, Length: int64(length)}, nil
}

// Count returns the number of windows the plan yields.
func (p Plan) Count() int {
	if p.Length <= 0 || p.First >= p.Last {
		return 0
	}
	span := p.Last - p.First
	n := span / p.Length
	if span%p.Length != 0 {
		n++
	}
	return int(n)
}

// Slices yields the plan's windows in order. The sequence is lazy and can
// be ranged over any number of times.
func (p Plan) Slices() iter.Seq[Slice] {
	return func(yield func(Slice) bool) {
		if p.Length <= 0 {
			return
		}
		idx := 0
		for start := p.First; start < p.Last; start += p.Length {
			end := start + p.Length
			if end < start {
				// overflow past MaxInt64; nothing later can be represented
				return
			}
			if !yield(Slice{Index: idx, Window: telemetry.Window{Start: start, End: end}}) {
				return
			}
			idx++
		}
	}
}
