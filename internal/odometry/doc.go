// Package odometry estimates distance travelled from an odometry-like topic.
//
// Payloads are opaque: no wire schema is assumed. A Decoder turns one
// payload into an (x, y) position in metres; the default NumericScan takes
// the first two numbers found in the payload text. That is a positional
// heuristic and will misread payloads whose first two numbers are not
// coordinates.
//
// The Estimator sums Euclidean steps between consecutive decoded positions.
// Position state lives only for the duration of one Estimate call, so the
// distances of two adjacent windows need not add up to the distance of
// their union: the step across the boundary belongs to neither.
//
// A total of exactly 0 m is reported as unavailable. The estimator cannot
// tell "no usable samples" from "did not move".
package odometry
