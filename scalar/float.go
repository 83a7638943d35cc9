package scalar

import "math"

// Float is the plain double-precision scalar.
type Float float64

// FromFloat constructs a Float.
func (Float) FromFloat(f float64) Float { return Float(f) }

// Float returns the value as a float64.
func (x Float) Float() float64 { return float64(x) }

// Add returns x+o.
func (x Float) Add(o Float) Float { return x + o }

// Sub returns x-o.
func (x Float) Sub(o Float) Float { return x - o }

// Mul returns x*o.
func (x Float) Mul(o Float) Float { return x * o }

// Div returns x/o.
func (x Float) Div(o Float) Float { return x / o }

// Neg returns -x.
func (x Float) Neg() Float { return -x }

// Sqrt returns the square root of x.
func (x Float) Sqrt() Float { return Float(math.Sqrt(float64(x))) }

// Sin returns sin(x).
func (x Float) Sin() Float { return Float(math.Sin(float64(x))) }

// Cos returns cos(x).
func (x Float) Cos() Float { return Float(math.Cos(float64(x))) }

// Atan2 returns atan2(x, o).
func (x Float) Atan2(o Float) Float { return Float(math.Atan2(float64(x), float64(o))) }

// Less reports whether x < o.
func (x Float) Less(o Float) bool { return x < o }

// IsFinite reports whether x is neither infinite nor NaN.
func (x Float) IsFinite() bool {
	return !math.IsInf(float64(x), 0) && !math.IsNaN(float64(x))
}
