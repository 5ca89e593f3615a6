package odometry

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Position is a planar coordinate in metres.
type Position struct {
	X, Y float64
}

// Decoder extracts a position from one payload.
// ok is false when the payload carries no usable position.
type Decoder interface {
	Decode(payload []byte) (pos Position, ok bool)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload []byte) (Position, bool)

// Decode calls f(payload).
func (f DecoderFunc) Decode(payload []byte) (Position, bool) {
	return f(payload)
}

// numberPattern matches optionally signed decimals: "3", "-4.5", "+.25".
var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// NumericScan decodes the payload as UTF-8 text, dropping ill-formed
// bytes, and reads the first two numeric tokens as (x, y).
type NumericScan struct{}

// Decode implements Decoder.
func (NumericScan) Decode(payload []byte) (Position, bool) {
	if payload == nil {
		return Position{}, false
	}

	nums := Numbers(Text(payload), 2)
	if len(nums) < 2 {
		return Position{}, false
	}
	return Position{X: nums[0], Y: nums[1]}, true
}

// Text converts a payload to valid UTF-8, removing ill-formed sequences.
func Text(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	// ReplaceIllFormed maps every bad sequence to U+FFFD, which Remove then drops.
	t := transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
	out, _, err := transform.String(t, string(payload))
	if err != nil {
		return ""
	}
	return out
}

// Numbers returns up to limit numeric tokens from s, scanning left to right.
// A negative limit returns all of them.
func Numbers(s string, limit int) []float64 {
	var out []float64
	for _, tok := range numberPattern.FindAllString(s, limit) {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}
