// Package utils holds small numeric and parsing helpers shared by the description parser and the
// command line tool.
package utils

import (
	"math"

	gonumscalar "gonum.org/v1/gonum/floats/scalar"
)

// DefaultEpsilon is the absolute tolerance of Float64AlmostEqual callers that have no better one.
const DefaultEpsilon = 1e-9

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two floats within an absolute tolerance. Infinities of the same
// sign compare equal.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return gonumscalar.EqualWithinAbs(a, b, epsilon)
}

// SlicesAlmostEqual compares two float slices element-wise within an absolute tolerance.
func SlicesAlmostEqual(a, b []float64, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Float64AlmostEqual(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}

// Square returns n*n.
func Square(n float64) float64 {
	return n * n
}
