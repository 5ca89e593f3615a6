package proxy

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when a batch produces no rows.
var ErrNoData = errors.New("no data")

// Operations reported in RunError.Op.
const (
	OpOpen    = "open"
	OpRange   = "range"
	OpCatalog = "catalog"
	OpCount   = "count"
	OpOdom    = "odometry"
)

// RunError describes why one run was excluded from a batch.
type RunError struct {
	// Run is the run name (store file stem).
	Run string

	// Path is the store path.
	Path string

	// Op is the step that failed (OpOpen, OpRange, ...).
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %s: %v", e.Run, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}
