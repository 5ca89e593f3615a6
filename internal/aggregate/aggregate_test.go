package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
	"github.com/24x6fhy/SWPtool/internal/weights"
)

func lidarRules(t *testing.T) weights.Rules {
	t.Helper()
	r, err := weights.NewRule("lidar.*", 2.0)
	require.NoError(t, err)
	return weights.New(1.0, r)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 2.5, Rate(150, 60))
	assert.Equal(t, float64(7)/3, Rate(7, 3))
	assert.Equal(t, 0.0, Rate(10, 0))
	assert.Equal(t, 0.0, Rate(10, -1))
	assert.Equal(t, 0.0, Rate(0, 5))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.25, Ratio(1, 4))
	assert.Equal(t, 0.0, Ratio(5, 0))
}

func TestWeighted(t *testing.T) {
	w := Weighted(telemetry.TopicCounts{"lidar_points": 100, "camera": 10}, lidarRules(t))
	assert.Equal(t, 200.0, w["lidar_points"])
	assert.Equal(t, 10.0, w["camera"])
	assert.Equal(t, 210.0, Sum(w))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		topic  string
		expect []Category
	}{
		{"/sensing/camera/front/image_raw", []Category{Image}},
		{"/LIDAR/points", []Category{Lidar}},
		{"/luminar_front_points", []Category{Lidar}},
		{"/luminar/lidar", []Category{Lidar}},
		{"/radar_front", []Category{Radar}},
		{"/vehicle/IMU", []Category{IMU}},
		{"/local_odometry", []Category{Odometry}},
		{"/lidar_radar_fusion", []Category{Lidar, Radar}},
		{"/diagnostics", nil},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.expect, Classify(tt.topic))
		})
	}
}

func TestAggregate_CategoryOverlapCountedInEach(t *testing.T) {
	counts := telemetry.TopicCounts{
		"/lidar_radar_fusion": 10,
		"/camera/image":       30,
	}

	s := Aggregate(counts, weights.Rules{}, 10)

	assert.Equal(t, int64(40), s.TotalMsgs)
	assert.Equal(t, int64(10), s.Category(Lidar).Count)
	assert.Equal(t, int64(10), s.Category(Radar).Count)
	assert.Equal(t, int64(30), s.Category(Image).Count)

	// category counts may sum to more than the total
	var sum int64
	for _, c := range Categories {
		sum += s.Category(c).Count
	}
	assert.Equal(t, int64(50), sum)
}

func TestAggregate_RatesAndRatios(t *testing.T) {
	counts := telemetry.TopicCounts{
		"/camera/image": 60,
		"/lidar":        30,
		"/radar":        15,
		"/imu":          10,
		"/odometry":     5,
		"/other":        0,
	}

	s := Aggregate(counts, weights.Rules{}, 60)

	assert.Equal(t, int64(120), s.TotalMsgs)
	assert.Equal(t, 2.0, s.MsgRate)
	assert.Equal(t, 5, s.ActiveTopics, "zero-count topics are not active")

	assert.Equal(t, CategoryStats{Count: 60, Rate: 1, Ratio: 0.5}, s.Category(Image))
	assert.Equal(t, CategoryStats{Count: 30, Rate: 0.5, Ratio: 0.25}, s.Category(Lidar))
	assert.Equal(t, CategoryStats{Count: 15, Rate: 0.25, Ratio: 0.125}, s.Category(Radar))

	assert.Equal(t, 0.5, s.LidarToCamera)
	assert.Equal(t, 0.5, s.RadarToLidar)
	assert.Equal(t, 7.0, s.PerceptionToNav)
}

func TestAggregate_ZeroDenominators(t *testing.T) {
	s := Aggregate(telemetry.TopicCounts{"/radar": 4}, weights.Rules{}, 0)

	assert.Equal(t, 0.0, s.MsgRate)
	assert.Equal(t, 0.0, s.Category(Radar).Rate)
	assert.Equal(t, 1.0, s.Category(Radar).Ratio)
	assert.Equal(t, 0.0, s.LidarToCamera, "no image messages")
	assert.Equal(t, 0.0, s.RadarToLidar, "no lidar messages")
	assert.Equal(t, 0.0, s.PerceptionToNav, "no navigation messages")

	empty := Aggregate(telemetry.TopicCounts{}, weights.Rules{}, 10)
	assert.Equal(t, 0.0, empty.Category(Image).Ratio)
	assert.Equal(t, 0.0, empty.TotalWeighted)
}

func TestAggregate_Weighted(t *testing.T) {
	s := Aggregate(telemetry.TopicCounts{"lidar_points": 100}, lidarRules(t), 60)
	assert.Equal(t, 200.0, s.Weighted["lidar_points"])
	assert.Equal(t, 200.0, s.TotalWeighted)
}
