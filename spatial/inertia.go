package spatial

import (
	"math"

	"go.viam.com/multibody/scalar"
)

// Inertia is a rigid-body spatial inertia: mass, center of mass expressed in the body frame, and
// rotational inertia about the center of mass (body-frame axes).
type Inertia[S scalar.Scalar[S]] struct {
	Mass  S
	Lever Vec3[S]
	Rot   Mat3[S]
}

// ZeroInertia returns the inertia of nothing, the neutral element of Add.
func ZeroInertia[S scalar.Scalar[S]]() Inertia[S] {
	return Inertia[S]{Mass: scalar.Zero[S](), Lever: ZeroVec3[S](), Rot: ZeroMat3[S]()}
}

// NewInertia builds an inertia from its parameters.
func NewInertia[S scalar.Scalar[S]](mass S, com Vec3[S], rot Mat3[S]) Inertia[S] {
	return Inertia[S]{Mass: mass, Lever: com, Rot: rot}
}

// SymmetricRot builds the rotational inertia from its six independent entries.
func SymmetricRot[S scalar.Scalar[S]](ixx, ixy, ixz, iyy, iyz, izz float64) Mat3[S] {
	f := func(v float64) S { return scalar.Of[S](v) }
	return Mat3[S]{
		{f(ixx), f(ixy), f(ixz)},
		{f(ixy), f(iyy), f(iyz)},
		{f(ixz), f(iyz), f(izz)},
	}
}

// Add merges two inertias expressed in the same frame. The result has the summed mass, the
// mass-weighted center, and rotational inertia about the new center given by the parallel-axis
// theorem: I = I1 + I2 - (m1·m2/m)·[c1-c2]×². With zero total mass the center is the origin.
// The operation is commutative and associative.
func (in Inertia[S]) Add(o Inertia[S]) Inertia[S] {
	m := in.Mass.Add(o.Mass)
	if m.Float() == 0 {
		return Inertia[S]{Mass: m, Lever: ZeroVec3[S](), Rot: in.Rot.Add(o.Rot)}
	}
	com := in.Lever.Scale(in.Mass).Add(o.Lever.Scale(o.Mass)).Scale(scalar.One[S]().Div(m))
	d := Skew(in.Lever.Sub(o.Lever))
	coupling := in.Mass.Mul(o.Mass).Div(m)
	rot := in.Rot.Add(o.Rot).Sub(d.Mul(d).Scale(coupling))
	return Inertia[S]{Mass: m, Lever: com, Rot: rot}
}

// SE3Action re-expresses an inertia given in the child frame of p in its parent frame.
func (in Inertia[S]) SE3Action(p SE3[S]) Inertia[S] {
	return Inertia[S]{
		Mass:  in.Mass,
		Lever: p.ActPoint(in.Lever),
		Rot:   p.R.Mul(in.Rot).Mul(p.R.T()),
	}
}

// SE3ActionInverse re-expresses an inertia given in the parent frame of p in its child frame.
func (in Inertia[S]) SE3ActionInverse(p SE3[S]) Inertia[S] {
	return in.SE3Action(p.Inverse())
}

// Matrix returns the 6×6 form [[m·I, -m·[c]×], [m·[c]×, Ic - m·[c]×²]].
func (in Inertia[S]) Matrix() Matrix[S] {
	out := NewMatrix[S](6, 6)
	c := Skew(in.Lever)
	mc := c.Scale(in.Mass)
	out.SetBlock3(0, 0, IdentityMat3[S]().Scale(in.Mass))
	out.SetBlock3(0, 3, mc.Scale(scalar.Of[S](-1)))
	out.SetBlock3(3, 0, mc)
	out.SetBlock3(3, 3, in.Rot.Sub(mc.Mul(c)))
	return out
}

// MulMotion returns the momentum I·v.
func (in Inertia[S]) MulMotion(v Motion[S]) Force[S] {
	lin := v.Linear.Sub(in.Lever.Cross(v.Angular)).Scale(in.Mass)
	ang := in.Rot.MulVec(v.Angular).Add(in.Lever.Cross(lin))
	return Force[S]{Linear: lin, Angular: ang}
}

// AlmostEqual compares every parameter within tol.
func (in Inertia[S]) AlmostEqual(o Inertia[S], tol float64) bool {
	if math.Abs(in.Mass.Float()-o.Mass.Float()) > tol {
		return false
	}
	if in.Lever.R3().Sub(o.Lever.R3()).Norm() > tol {
		return false
	}
	a, b := in.Rot.Floats(), o.Rot.Floats()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// CastInertia carries an inertia over to another scalar type.
func CastInertia[To scalar.Scalar[To], From scalar.Scalar[From]](in Inertia[From]) (Inertia[To], error) {
	var out Inertia[To]
	m, err := scalar.Cast[To](in.Mass)
	if err != nil {
		return out, err
	}
	out.Mass = m
	for i := 0; i < 3; i++ {
		if out.Lever[i], err = scalar.Cast[To](in.Lever[i]); err != nil {
			return out, err
		}
		for j := 0; j < 3; j++ {
			if out.Rot[i][j], err = scalar.Cast[To](in.Rot[i][j]); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}
