// Package scalar defines the arithmetic contract that every numeric type used by the multibody
// packages must satisfy, along with the two concrete scalars shipped with it: Float, a plain
// float64, and Dual, a forward-mode automatic differentiation number.
//
// All kinematic code is written once, generic over S Scalar[S], and can be reinstantiated for any
// scalar type without behavioral change besides precision or derivative tracking.
package scalar

import (
	"math"

	"github.com/pkg/errors"
)

// Scalar is the capability set required from a numeric type. Methods are defined on values so
// that the zero value of S can be used as a factory, e.g. `var z S; one := z.FromFloat(1)`.
type Scalar[S any] interface {
	// FromFloat constructs a new S from a double. The receiver is only used for dispatch.
	FromFloat(f float64) S
	// Float evaluates the scalar to a double, dropping any derivative information.
	Float() float64

	Add(o S) S
	Sub(o S) S
	Mul(o S) S
	Div(o S) S
	Neg() S

	Sqrt() S
	Sin() S
	Cos() S
	// Atan2 returns atan2(receiver, x).
	Atan2(x S) S

	// Less compares the evaluated values.
	Less(o S) bool
	IsFinite() bool
}

// ErrInvalidCast is returned when a value cannot be carried over to another scalar type.
var ErrInvalidCast = errors.New("scalar value cannot be cast")

// Of constructs an S from a double.
func Of[S Scalar[S]](f float64) S {
	var z S
	return z.FromFloat(f)
}

// Zero returns the additive identity of S.
func Zero[S Scalar[S]]() S {
	return Of[S](0)
}

// One returns the multiplicative identity of S.
func One[S Scalar[S]]() S {
	return Of[S](1)
}

// Cast carries a value over to another scalar type through its double evaluation. Derivative
// information does not survive a cast. NaN values are rejected; infinities are representable in
// every scalar type and pass through.
func Cast[To Scalar[To], From Scalar[From]](x From) (To, error) {
	f := x.Float()
	if math.IsNaN(f) {
		var z To
		return z, errors.Wrapf(ErrInvalidCast, "NaN to %T", z)
	}
	return Of[To](f), nil
}

// CastSlice casts every element of xs, failing on the first invalid value.
func CastSlice[To Scalar[To], From Scalar[From]](xs []From) ([]To, error) {
	out := make([]To, len(xs))
	for i, x := range xs {
		c, err := Cast[To](x)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = c
	}
	return out, nil
}

// Floats evaluates every element of xs.
func Floats[S Scalar[S]](xs []S) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x.Float()
	}
	return out
}

// FromFloats builds a slice of S from doubles.
func FromFloats[S Scalar[S]](fs []float64) []S {
	out := make([]S, len(fs))
	for i, f := range fs {
		out[i] = Of[S](f)
	}
	return out
}

// Abs returns |x|, preserving derivatives through the sign flip.
func Abs[S Scalar[S]](x S) S {
	if x.Float() < 0 {
		return x.Neg()
	}
	return x
}

// Square returns x*x.
func Square[S Scalar[S]](x S) S {
	return x.Mul(x)
}

// Pi returns π as an S constant.
func Pi[S Scalar[S]]() S {
	return Of[S](math.Pi)
}

// TaylorPrecision returns the magnitude below which a Taylor expansion truncated at the given
// degree is exact to machine precision: eps^(1/(degree+1)).
func TaylorPrecision[S Scalar[S]](degree int) S {
	if degree < 0 {
		panic("taylor expansion degree must be non-negative")
	}
	const eps = 2.220446049250313e-16
	return Of[S](math.Pow(eps, 1/float64(degree+1)))
}
