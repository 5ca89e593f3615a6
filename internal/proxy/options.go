package proxy

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/24x6fhy/SWPtool/internal/metrics"
	"github.com/24x6fhy/SWPtool/internal/odometry"
)

// Defaults used when Options fields are left zero.
const (
	DefaultSliceSeconds  = 60
	DefaultOdometryTopic = "local_odometry"
)

// Options configures run processing. The zero value uses the defaults.
type Options struct {
	// SliceSeconds is the feature window length.
	SliceSeconds float64

	// OdometryTopic is the case-insensitive substring locating the odometry topic.
	OdometryTopic string

	// Workers bounds how many runs are processed at once. Zero means GOMAXPROCS.
	Workers int

	// Decoder extracts positions from odometry payloads. Nil means odometry.NumericScan.
	Decoder odometry.Decoder

	// Logger receives progress and warnings. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics receives batch counters. Nil disables them.
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.SliceSeconds == 0 {
		o.SliceSeconds = DefaultSliceSeconds
	}
	if o.OdometryTopic == "" {
		o.OdometryTopic = DefaultOdometryTopic
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Decoder == nil {
		o.Decoder = odometry.NumericScan{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Validate reports option values that can never produce output.
func (o Options) Validate() error {
	if o.SliceSeconds < 0 {
		return fmt.Errorf("slice seconds must be positive, got %v", o.SliceSeconds)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", o.Workers)
	}
	return nil
}

func (o Options) estimator() odometry.Estimator {
	return odometry.Estimator{Decoder: o.Decoder, Logger: o.Logger}
}

// Config returns the options as reported in a batch summary. The slice
// length is included only when it was set.
func (o Options) Config() map[string]any {
	cfg := map[string]any{}
	if o.SliceSeconds != 0 {
		cfg["slice_seconds"] = o.SliceSeconds
	}
	o = o.withDefaults()
	cfg["odometry_topic"] = o.OdometryTopic
	cfg["workers"] = o.Workers
	return cfg
}
