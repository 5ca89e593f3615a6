package proxy

import (
	"github.com/24x6fhy/SWPtool/internal/aggregate"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// FeatureRecord is the feature vector of one non-empty slice of a run.
type FeatureRecord struct {
	RunID           string
	BagName         string
	SliceIdx        int
	Window          telemetry.Window
	DurationSeconds float64

	DistanceKM  telemetry.Distance
	WeightedPts float64
	PtsPerKM    telemetry.Distance

	TotalMsgs int64
	MsgRate   float64

	Image    aggregate.CategoryStats
	Lidar    aggregate.CategoryStats
	Radar    aggregate.CategoryStats
	IMU      aggregate.CategoryStats
	Odometry aggregate.CategoryStats

	LidarToCamera   float64
	RadarToLidar    float64
	PerceptionToNav float64

	AvgSpeedKMH  float64
	ActiveTopics int
}

// Category returns the stats of category c.
func (r FeatureRecord) Category(c aggregate.Category) aggregate.CategoryStats {
	switch c {
	case aggregate.Image:
		return r.Image
	case aggregate.Lidar:
		return r.Lidar
	case aggregate.Radar:
		return r.Radar
	case aggregate.IMU:
		return r.IMU
	case aggregate.Odometry:
		return r.Odometry
	}
	return aggregate.CategoryStats{}
}

// ProxyRecord is the run-level workload proxy of one run.
type ProxyRecord struct {
	DatabaseName string
	DatabasePath string

	SimpleMsgCount   int64
	WeightedMsgCount float64

	DurationSeconds float64
	DurationHours   float64

	DistanceKM telemetry.Distance
	PtsPerHour float64
	PtsPerKM   telemetry.Distance
}

// AvgSpeed returns km / hours, or 0 when the distance is unavailable or the
// duration is not positive.
func AvgSpeed(distance telemetry.Distance, seconds float64) float64 {
	km, ok := distance.Get()
	hours := seconds / 3600
	if !ok || hours <= 0 {
		return 0
	}
	return km / hours
}

// newFeatureRecord assembles a record from an aggregate summary and a distance.
func newFeatureRecord(run string, slice int, w telemetry.Window, s aggregate.Summary, distance telemetry.Distance) FeatureRecord {
	seconds := w.Seconds()
	return FeatureRecord{
		RunID:           run,
		BagName:         SliceName(run, slice),
		SliceIdx:        slice,
		Window:          w,
		DurationSeconds: seconds,

		DistanceKM:  distance,
		WeightedPts: s.TotalWeighted,
		PtsPerKM:    distance.Per(s.TotalWeighted),

		TotalMsgs: s.TotalMsgs,
		MsgRate:   s.MsgRate,

		Image:    s.Category(aggregate.Image),
		Lidar:    s.Category(aggregate.Lidar),
		Radar:    s.Category(aggregate.Radar),
		IMU:      s.Category(aggregate.IMU),
		Odometry: s.Category(aggregate.Odometry),

		LidarToCamera:   s.LidarToCamera,
		RadarToLidar:    s.RadarToLidar,
		PerceptionToNav: s.PerceptionToNav,

		AvgSpeedKMH:  AvgSpeed(distance, seconds),
		ActiveTopics: s.ActiveTopics,
	}
}
