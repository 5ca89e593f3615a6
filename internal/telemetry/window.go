package telemetry

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End) in nanoseconds.
type Window struct {
	Start int64
	End   int64
}

// Duration returns the window length.
// Returns zero or a negative value for degenerate windows.
func (w Window) Duration() time.Duration {
	return time.Duration(w.End - w.Start)
}

// Seconds returns the window length in seconds.
func (w Window) Seconds() float64 {
	return float64(w.End-w.Start) / 1e9
}

// Empty reports whether the window contains no instants (End <= Start).
func (w Window) Empty() bool {
	return w.End <= w.Start
}

// Contains reports whether ts falls inside [Start, End).
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}
