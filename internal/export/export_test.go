package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24x6fhy/SWPtool/internal/aggregate"
	"github.com/24x6fhy/SWPtool/internal/proxy"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func featureRecords() []proxy.FeatureRecord {
	return []proxy.FeatureRecord{
		{
			RunID:           "drive_01",
			BagName:         "drive_01_slice0",
			SliceIdx:        0,
			DurationSeconds: 60,
			DistanceKM:      telemetry.KM(1),
			WeightedPts:     123,
			PtsPerKM:        telemetry.KM(1).Per(123),
			TotalMsgs:       93,
			MsgRate:         1.55,
			Image:           aggregate.CategoryStats{Count: 60, Rate: 1, Ratio: 0.5},
			Lidar:           aggregate.CategoryStats{Count: 30, Rate: 0.5, Ratio: 0.25},
			Odometry:        aggregate.CategoryStats{Count: 3, Rate: 0.05, Ratio: 0.025},
			LidarToCamera:   0.5,
			PerceptionToNav: 30,
			AvgSpeedKMH:     60,
			ActiveTopics:    3,
		},
		{
			RunID:           "static",
			BagName:         "static_slice2",
			SliceIdx:        2,
			DurationSeconds: 60,
			DistanceKM:      telemetry.Unavailable(),
			WeightedPts:     30,
			PtsPerKM:        telemetry.Unavailable(),
			TotalMsgs:       30,
			MsgRate:         0.5,
			Image:           aggregate.CategoryStats{Count: 30, Rate: 0.5, Ratio: 1},
			ActiveTopics:    1,
		},
	}
}

func proxyRecords() []proxy.ProxyRecord {
	return []proxy.ProxyRecord{
		{
			DatabaseName:     "drive_01",
			DatabasePath:     "data/drive_01.db3",
			SimpleMsgCount:   185,
			WeightedMsgCount: 245.004,
			DurationSeconds:  119.7,
			DurationHours:    119.0 / 3600,
			DistanceKM:       telemetry.KM(3.14159),
			PtsPerHour:       7411.764,
			PtsPerKM:         telemetry.KM(77.987),
		},
		{
			DatabaseName:     "static",
			DatabasePath:     "data/static.db3",
			SimpleMsgCount:   30,
			WeightedMsgCount: 30,
			DurationSeconds:  29,
			DurationHours:    29.0 / 3600,
			DistanceKM:       telemetry.Unavailable(),
			PtsPerHour:       3724.137931,
			PtsPerKM:         telemetry.Unavailable(),
		},
	}
}

func TestWriteFeatures_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFeatures(&buf, featureRecords()))
	golden(t).Assert(t, "features", buf.Bytes())
}

func TestWriteFeatures_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFeatures(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, FeatureColumns, rows[0])
	assert.Len(t, FeatureColumns, 29)
}

func TestWriteProxies_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProxies(&buf, proxyRecords()))
	golden(t).Assert(t, "proxies", buf.Bytes())
}

func TestWriteSummary_Golden(t *testing.T) {
	s := proxy.Summary{
		BatchID:   "01890a5d-ac96-774b-bcce-b302099a8057",
		Timestamp: "2026-01-02T03:04:05Z",
		Config: map[string]any{
			"workers":        4,
			"slice_seconds":  60.0,
			"odometry_topic": "local_odometry",
		},
		DatabasesProcessed: 2,
		DatabasesFound:     3,
		DatabasesSkipped:   1,
		TotalMessages:      215,
		TotalWeightedPts:   275,
		TotalDurationHours: 0.04,
		TotalDistanceKM:    3.14,
		AvgPtsPerHour:      6875,
		AvgPtsPerKM:        87.58,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	golden(t).Assert(t, "summary", buf.Bytes())
}

func TestWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "features.csv")

	err := WriteFile(path, func(w io.Writer) error {
		return WriteFeatures(w, featureRecords())
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("run_id,bag_name,slice_idx,")))
}

func TestWriteFile_PropagatesWriteError(t *testing.T) {
	boom := errors.New("disk full")
	err := WriteFile(filepath.Join(t.TempDir(), "x.csv"), func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}
