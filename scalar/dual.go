package scalar

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

// Dual is a forward-mode automatic differentiation scalar. Real carries the value and Emag the
// derivative with respect to whichever input was seeded with a unit epsilon part.
type Dual struct {
	dual.Number
}

// NewDual returns a dual number with the given value and derivative.
func NewDual(value, derivative float64) Dual {
	return Dual{dual.Number{Real: value, Emag: derivative}}
}

// Variable returns a dual number seeded for differentiation, i.e. with a unit derivative.
func Variable(value float64) Dual {
	return NewDual(value, 1)
}

// FromFloat constructs a constant dual number.
func (Dual) FromFloat(f float64) Dual { return NewDual(f, 0) }

// Float returns the real part.
func (d Dual) Float() float64 { return d.Real }

// Derivative returns the epsilon part.
func (d Dual) Derivative() float64 { return d.Emag }

// Add returns d+o.
func (d Dual) Add(o Dual) Dual { return Dual{dual.Add(d.Number, o.Number)} }

// Sub returns d-o.
func (d Dual) Sub(o Dual) Dual { return Dual{dual.Sub(d.Number, o.Number)} }

// Mul returns d*o.
func (d Dual) Mul(o Dual) Dual { return Dual{dual.Mul(d.Number, o.Number)} }

// Div returns d/o.
func (d Dual) Div(o Dual) Dual { return Dual{dual.Mul(d.Number, dual.Inv(o.Number))} }

// Neg returns -d.
func (d Dual) Neg() Dual { return Dual{dual.Scale(-1, d.Number)} }

// Sqrt returns the square root of d.
func (d Dual) Sqrt() Dual { return Dual{dual.Sqrt(d.Number)} }

// Sin returns sin(d).
func (d Dual) Sin() Dual { return Dual{dual.Sin(d.Number)} }

// Cos returns cos(d).
func (d Dual) Cos() Dual { return Dual{dual.Cos(d.Number)} }

// Atan2 returns atan2(d, x). The derivative is (x·d' − d·x') / (x² + d²).
func (d Dual) Atan2(x Dual) Dual {
	den := x.Real*x.Real + d.Real*d.Real
	var deriv float64
	if den != 0 {
		deriv = (x.Real*d.Emag - d.Real*x.Emag) / den
	}
	return NewDual(math.Atan2(d.Real, x.Real), deriv)
}

// Less compares real parts.
func (d Dual) Less(o Dual) bool { return d.Real < o.Real }

// IsFinite reports whether both parts are finite.
func (d Dual) IsFinite() bool {
	return !math.IsInf(d.Real, 0) && !math.IsNaN(d.Real) && !math.IsInf(d.Emag, 0) && !math.IsNaN(d.Emag)
}
