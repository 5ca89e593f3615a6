package aggregate

import (
	"strings"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// Category is a sensor family derived from a topic name.
type Category string

const (
	Image    Category = "image"
	Lidar    Category = "lidar"
	Radar    Category = "radar"
	IMU      Category = "imu"
	Odometry Category = "odometry"
)

// Categories lists every category in reporting order.
var Categories = []Category{Image, Lidar, Radar, IMU, Odometry}

// categoryKeys holds the case-folded substrings that place a topic in a
// category. "luminar" is a lidar vendor whose drivers publish under its name.
var categoryKeys = map[Category][]string{
	Image:    {"image"},
	Lidar:    {"luminar", "lidar"},
	Radar:    {"radar"},
	IMU:      {"imu"},
	Odometry: {"odometry"},
}

// Classify returns every category whose substrings occur in topic.
// A topic may belong to several categories; each match is reported.
func Classify(topic string) []Category {
	folded := telemetry.Fold(topic)
	var out []Category
	for _, c := range Categories {
		for _, key := range categoryKeys[c] {
			if strings.Contains(folded, key) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
