package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("/Vehicle/Local_Odometry", "local_odometry"))
	assert.True(t, ContainsFold("/vehicle/local_odometry", "LOCAL_ODOMETRY"))
	assert.False(t, ContainsFold("/odom", "odometry"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "/lidar/front", Fold("/LiDAR/Front"))
	assert.Equal(t, "strasse", Fold("STRASSE"))
}
