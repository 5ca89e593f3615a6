// Package aggregate combines per-topic message counts with weight rules
// into weighted totals, per-category counts, rates and ratios.
//
// Every rate and ratio with a zero denominator is 0. Distance-normalised
// metrics are not computed here; see the proxy package.
package aggregate

import (
	"github.com/24x6fhy/SWPtool/internal/telemetry"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

// CategoryStats holds the figures reported for one category.
type CategoryStats struct {
	Count int64
	Rate  float64 // messages per second
	Ratio float64 // share of all messages in the window
}

// Summary is the aggregate view of one window's counts.
type Summary struct {
	TotalMsgs    int64
	MsgRate      float64
	ActiveTopics int

	// Weighted maps each topic to count × weight.
	Weighted      map[string]float64
	TotalWeighted float64

	Categories map[Category]CategoryStats

	LidarToCamera   float64
	RadarToLidar    float64
	PerceptionToNav float64
}

// Category returns the stats for c; unknown categories are all zero.
func (s Summary) Category(c Category) CategoryStats {
	return s.Categories[c]
}

// Rate returns count / seconds, or 0 when seconds <= 0.
func Rate(count int64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds
}

// Ratio returns num / den, or 0 when den is 0.
func Ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Weighted returns count × weight for every topic in counts.
func Weighted(counts telemetry.TopicCounts, rules weights.Rules) map[string]float64 {
	out := make(map[string]float64, len(counts))
	for topic, n := range counts {
		out[topic] = float64(n) * rules.Match(topic)
	}
	return out
}

// Sum adds up a weighted count map.
func Sum(weighted map[string]float64) float64 {
	var total float64
	for _, w := range weighted {
		total += w
	}
	return total
}

// Aggregate computes the full summary for one window of seconds length.
func Aggregate(counts telemetry.TopicCounts, rules weights.Rules, seconds float64) Summary {
	s := Summary{
		TotalMsgs:  counts.Total(),
		Weighted:   Weighted(counts, rules),
		Categories: make(map[Category]CategoryStats, len(Categories)),
	}
	s.TotalWeighted = Sum(s.Weighted)
	s.MsgRate = Rate(s.TotalMsgs, seconds)

	totals := make(map[Category]int64, len(Categories))
	for topic, n := range counts {
		if n > 0 {
			s.ActiveTopics++
		}
		for _, c := range Classify(topic) {
			totals[c] += n
		}
	}

	for _, c := range Categories {
		n := totals[c]
		s.Categories[c] = CategoryStats{
			Count: n,
			Rate:  Rate(n, seconds),
			Ratio: Ratio(n, s.TotalMsgs),
		}
	}

	perception := totals[Image] + totals[Lidar] + totals[Radar]
	navigation := totals[IMU] + totals[Odometry]
	s.LidarToCamera = Ratio(totals[Lidar], totals[Image])
	s.RadarToLidar = Ratio(totals[Radar], totals[Lidar])
	s.PerceptionToNav = Ratio(perception, navigation)

	return s
}
