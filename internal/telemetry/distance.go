package telemetry

import (
	"encoding/json"
	"strconv"
)

// NotAvailable is the textual marker used for unavailable values in tabular output.
const NotAvailable = "N/A"

// Distance is an optional quantity measured in or normalised by kilometres.
// The zero value is unavailable. Values built with KM are strictly positive;
// values derived with Per may be a genuine 0.
//
// Keeping "unavailable" out of the float domain means a missing odometry
// estimate can never be summed or divided as if it were 0.
type Distance struct {
	value float64
	ok    bool
}

// Unavailable returns a Distance that carries no value.
func Unavailable() Distance {
	return Distance{}
}

// KM returns an available Distance for v.
// Values that are not strictly positive are reported as unavailable.
func KM(v float64) Distance {
	if !(v > 0) {
		return Distance{}
	}
	return Distance{value: v, ok: true}
}

// Get returns the value and whether it is available.
func (d Distance) Get() (float64, bool) {
	return d.value, d.ok
}

// Available reports whether the distance carries a value.
func (d Distance) Available() bool {
	return d.ok
}

// OrZero returns the value, or 0 when unavailable.
func (d Distance) OrZero() float64 {
	if !d.ok {
		return 0
	}
	return d.value
}

// Per divides numerator by the distance.
// The result is unavailable when the distance is.
func (d Distance) Per(numerator float64) Distance {
	if !d.ok {
		return Distance{}
	}
	return Distance{value: numerator / d.value, ok: true}
}

// String renders the value with the shortest exact representation, or NotAvailable.
func (d Distance) String() string {
	if !d.ok {
		return NotAvailable
	}
	return strconv.FormatFloat(d.value, 'f', -1, 64)
}

// MarshalJSON encodes an unavailable distance as null.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.ok {
		return []byte("null"), nil
	}
	return json.Marshal(d.value)
}
