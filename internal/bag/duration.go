package bag

import (
	"context"
	"errors"
	"fmt"
)

// TimeUnit selects the unit returned by DriveDuration.
type TimeUnit string

const (
	Seconds TimeUnit = "seconds"
	Minutes TimeUnit = "minutes"
	Hours   TimeUnit = "hours"
)

// DriveDuration returns the span between the first and last message.
// An empty run has a duration of 0.
func (b *Bag) DriveDuration(ctx context.Context, unit TimeUnit) (float64, error) {
	var divisor float64
	switch unit {
	case Seconds:
		divisor = 1
	case Minutes:
		divisor = 60
	case Hours:
		divisor = 3600
	default:
		return 0, fmt.Errorf("unknown time unit: %q", unit)
	}

	first, last, err := b.Range(ctx)
	if errors.Is(err, ErrEmptyRun) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return float64(last-first) / 1e9 / divisor, nil
}
