package telemetry

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of a topic name for substring matching.
// A new Caser is built per call because Casers are not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
