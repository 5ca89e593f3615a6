// Package export writes feature and proxy tables and batch summaries.
//
// Tables are CSV with a header row. Unavailable distances are written as
// "N/A" in the feature table, which training code filters on, and as an
// empty cell in the proxy table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/24x6fhy/SWPtool/internal/aggregate"
	"github.com/24x6fhy/SWPtool/internal/proxy"
	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// FeatureColumns is the feature table header.
var FeatureColumns = featureColumns()

func featureColumns() []string {
	cols := []string{
		"run_id", "bag_name", "slice_idx",
		"duration_seconds", "distance_km", "weighted_pts", "pts_per_km",
		"total_msgs",
	}
	for _, c := range aggregate.Categories {
		cols = append(cols, string(c)+"_msgs")
	}
	cols = append(cols, "msg_rate")
	for _, c := range aggregate.Categories {
		cols = append(cols, string(c)+"_rate")
	}
	for _, c := range aggregate.Categories {
		cols = append(cols, string(c)+"_ratio")
	}
	return append(cols,
		"lidar_to_camera_ratio", "radar_to_lidar_ratio", "perception_to_nav_ratio",
		"avg_speed_kmh", "n_active_topics",
	)
}

// ProxyColumns is the proxy table header.
var ProxyColumns = []string{
	"database_name", "database_path",
	"simple_msg_count", "weighted_msg_count",
	"duration_hours", "duration_seconds",
	"distance_km", "pts_per_hour", "pts_per_km",
}

// WriteFeatures writes records as CSV.
func WriteFeatures(w io.Writer, records []proxy.FeatureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.RunID, r.BagName, strconv.Itoa(r.SliceIdx),
			formatFloat(r.DurationSeconds), r.DistanceKM.String(), formatFloat(r.WeightedPts), r.PtsPerKM.String(),
			formatInt(r.TotalMsgs),
		}
		for _, c := range aggregate.Categories {
			row = append(row, formatInt(r.Category(c).Count))
		}
		row = append(row, formatFloat(r.MsgRate))
		for _, c := range aggregate.Categories {
			row = append(row, formatFloat(r.Category(c).Rate))
		}
		for _, c := range aggregate.Categories {
			row = append(row, formatFloat(r.Category(c).Ratio))
		}
		row = append(row,
			formatFloat(r.LidarToCamera), formatFloat(r.RadarToLidar), formatFloat(r.PerceptionToNav),
			formatFloat(r.AvgSpeedKMH), strconv.Itoa(r.ActiveTopics),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.BagName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteProxies writes run-level proxy records as CSV.
// Weighted counts, distances and rates are rounded to 2 decimals, hours to 4,
// seconds truncated to an integer.
func WriteProxies(w io.Writer, records []proxy.ProxyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ProxyColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.DatabaseName, r.DatabasePath,
			formatInt(r.SimpleMsgCount), formatFloat(proxy.Round(r.WeightedMsgCount, 2)),
			formatFloat(proxy.Round(r.DurationHours, 4)), formatInt(int64(r.DurationSeconds)),
			nullable(r.DistanceKM, 2), formatFloat(proxy.Round(r.PtsPerHour, 2)), nullable(r.PtsPerKM, 2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.DatabaseName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummary writes the batch summary as indented JSON.
func WriteSummary(w io.Writer, s proxy.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteFile creates path (and its parent directories) and passes it to write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// nullable renders an unavailable value as an empty cell.
func nullable(d telemetry.Distance, places int) string {
	v, ok := d.Get()
	if !ok {
		return ""
	}
	return formatFloat(proxy.Round(v, places))
}
