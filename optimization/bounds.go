// Package optimization holds the pieces an NLP solver sees: variable sets, constraint sets, their bounds
// and the sparse constraint Jacobian assembled from per-variable-set blocks.
package optimization

import "math"

// Bounds is the lower and upper limit of one variable or residual. Equality is encoded as Lower == Upper,
// an unconstrained side as an infinity.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Commonly used bounds.
var (
	BoundZero        = Bounds{Lower: 0, Upper: 0}
	NoBound          = Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}
	BoundGreaterZero = Bounds{Lower: 0, Upper: math.Inf(1)}
	BoundSmallerZero = Bounds{Lower: math.Inf(-1), Upper: 0}
)

// NewBoundsEqual returns bounds that only admit v.
func NewBoundsEqual(v float64) Bounds {
	return Bounds{Lower: v, Upper: v}
}

// IsEquality reports whether the bounds admit a single value.
func (b Bounds) IsEquality() bool {
	return b.Lower == b.Upper
}

// Violation returns how far v lies outside the bounds, zero if inside.
func (b Bounds) Violation(v float64) float64 {
	switch {
	case v < b.Lower:
		return b.Lower - v
	case v > b.Upper:
		return v - b.Upper
	default:
		return 0
	}
}

// RepeatBounds returns n copies of bounds laid end to end.
func RepeatBounds(bounds []Bounds, n int) []Bounds {
	out := make([]Bounds, 0, len(bounds)*n)
	for i := 0; i < n; i++ {
		out = append(out, bounds...)
	}
	return out
}
