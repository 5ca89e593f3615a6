package odometry

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/24x6fhy/SWPtool/internal/bag"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// Source is the read-only run access the estimator needs.
// *bag.Bag satisfies it.
type Source interface {
	Topics(ctx context.Context) ([]telemetry.Topic, error)
	PayloadColumn(ctx context.Context) (string, error)
	Stream(ctx context.Context, topicID int64, column string, scope *telemetry.Window, fn func(bag.Message) error) error
}

// Odometer accumulates path length over a sequence of positions.
// The zero value is ready to use.
type Odometer struct {
	prev    Position
	hasPrev bool
	meters  float64
	samples int
}

// Add records the next position and returns the step length from the previous one.
// The first position only sets the starting point.
func (o *Odometer) Add(p Position) float64 {
	o.samples++
	if !o.hasPrev {
		o.prev, o.hasPrev = p, true
		return 0
	}
	step := math.Hypot(p.X-o.prev.X, p.Y-o.prev.Y)
	o.meters += step
	o.prev = p
	return step
}

// Meters returns the accumulated distance.
func (o *Odometer) Meters() float64 {
	return o.meters
}

// Samples returns how many positions were added.
func (o *Odometer) Samples() int {
	return o.samples
}

// Estimator computes distance from odometry payloads.
type Estimator struct {
	// Decoder turns payloads into positions. Nil means NumericScan.
	Decoder Decoder

	// Logger receives debug diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// FindTopic returns the first topic (by id) whose name contains substring,
// ignoring case.
func FindTopic(topics []telemetry.Topic, substring string) (telemetry.Topic, bool) {
	for _, t := range topics {
		if telemetry.ContainsFold(t.Name, substring) {
			return t, true
		}
	}
	return telemetry.Topic{}, false
}

// Estimate returns the distance travelled in kilometres on the first topic
// whose name contains topicSubstring, restricted to scope (nil for the
// whole run).
//
// The result is unavailable when no topic matches, the message table has
// no payload column, or the accumulated distance is 0. Errors are returned
// only for failed queries.
func (e Estimator) Estimate(ctx context.Context, src Source, topicSubstring string, scope *telemetry.Window) (telemetry.Distance, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dec := e.Decoder
	if dec == nil {
		dec = NumericScan{}
	}

	topics, err := src.Topics(ctx)
	if err != nil {
		return telemetry.Unavailable(), fmt.Errorf("resolve odometry topic: %w", err)
	}
	topic, ok := FindTopic(topics, topicSubstring)
	if !ok {
		logger.Debug("odometry topic not found", "substring", topicSubstring)
		return telemetry.Unavailable(), nil
	}

	column, err := src.PayloadColumn(ctx)
	if err != nil {
		return telemetry.Unavailable(), err
	}
	if column == "" {
		logger.Debug("no payload column in messages table", "candidates", bag.PayloadColumns)
		return telemetry.Unavailable(), nil
	}

	logger.Debug("estimating distance", "topic_id", topic.ID, "topic", topic.Name, "column", column)

	var odo Odometer
	err = src.Stream(ctx, topic.ID, column, scope, func(m bag.Message) error {
		if pos, ok := dec.Decode(m.Payload); ok {
			odo.Add(pos)
		}
		return nil
	})
	if err != nil {
		return telemetry.Unavailable(), fmt.Errorf("stream odometry payloads: %w", err)
	}

	if odo.Meters() <= 0 {
		logger.Debug("no distance accumulated", "topic", topic.Name, "samples", odo.Samples())
		return telemetry.Unavailable(), nil
	}

	return telemetry.KM(odo.Meters() / 1000.0), nil
}
