package proxy

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Summary aggregates a proxy batch for reporting.
// Totals and averages are rounded to two decimals.
type Summary struct {
	BatchID            string         `json:"batch_id"`
	Timestamp          string         `json:"timestamp"`
	Config             map[string]any `json:"config"`
	DatabasesProcessed int            `json:"databases_processed"`
	DatabasesFound     int            `json:"databases_found"`
	DatabasesSkipped   int            `json:"databases_skipped"`
	TotalMessages      int64          `json:"total_messages"`
	TotalWeightedPts   float64        `json:"total_weighted_pts"`
	TotalDurationHours float64        `json:"total_duration_hours"`
	TotalDistanceKM    float64        `json:"total_distance_km"`
	AvgPtsPerHour      float64        `json:"avg_pts_per_hour"`
	AvgPtsPerKM        float64        `json:"avg_pts_per_km"`
}

// Summarize totals a proxy batch. Each record contributes its values as
// exported: weighted points and distance at two decimals, duration at four.
// Runs without a distance contribute to every total except TotalDistanceKM.
// Averages are 0 when their denominator is 0.
//
// The batch id is a UUIDv7, so ids sort by creation time.
func Summarize(batch ProxyBatch, config map[string]any, now time.Time) (Summary, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Summary{}, err
	}
	if config == nil {
		config = map[string]any{}
	}

	s := Summary{
		BatchID:            id.String(),
		Timestamp:          now.Format(time.RFC3339),
		Config:             config,
		DatabasesProcessed: len(batch.Records),
		DatabasesFound:     batch.Found,
		DatabasesSkipped:   len(batch.Skipped),
	}

	var pts, hours, km float64
	for _, r := range batch.Records {
		s.TotalMessages += r.SimpleMsgCount
		pts += Round(r.WeightedMsgCount, 2)
		hours += Round(r.DurationHours, 4)
		km += Round(r.DistanceKM.OrZero(), 2)
	}

	s.TotalWeightedPts = Round(pts, 2)
	s.TotalDurationHours = Round(hours, 2)
	s.TotalDistanceKM = Round(km, 2)
	if hours > 0 {
		s.AvgPtsPerHour = Round(pts/hours, 2)
	}
	if km > 0 {
		s.AvgPtsPerKM = Round(pts/km, 2)
	}
	return s, nil
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
