package spatial

import (
	"math"

	"go.viam.com/multibody/scalar"
)

// nearPi is the angular distance from π below which Log3 reads the axis off the diagonal.
const nearPi = 1e-3

// Exp3 maps a rotation vector to a rotation matrix.
func Exp3[S scalar.Scalar[S]](w Vec3[S]) Mat3[S] {
	t2 := w.Dot(w)
	prec := scalar.TaylorPrecision[S](3)
	var a, b S
	if t2.Float() < scalar.Square(prec).Float() {
		a = scalar.One[S]().Sub(t2.Div(scalar.Of[S](6)))
		b = scalar.Of[S](0.5).Sub(t2.Div(scalar.Of[S](24)))
	} else {
		t := t2.Sqrt()
		a = t.Sin().Div(t)
		b = scalar.One[S]().Sub(t.Cos()).Div(t2)
	}
	k := Skew(w)
	return IdentityMat3[S]().Add(k.Scale(a)).Add(k.Mul(k).Scale(b))
}

// Log3 maps a rotation matrix to its rotation vector, with angle in [0, π].
func Log3[S scalar.Scalar[S]](r Mat3[S]) Vec3[S] {
	half := scalar.Of[S](0.5)
	c := r.Trace().Sub(scalar.One[S]()).Mul(half)
	v := Vec3[S]{
		r[2][1].Sub(r[1][2]).Mul(half),
		r[0][2].Sub(r[2][0]).Mul(half),
		r[1][0].Sub(r[0][1]).Mul(half),
	}
	s2 := v.Dot(v)
	prec := scalar.TaylorPrecision[S](3)
	if s2.Float() < scalar.Square(prec).Float() && c.Float() > 0 {
		// theta/sin(theta) ~ 1 + theta^2/6 and theta^2 ~ sin^2
		return v.Scale(scalar.One[S]().Add(s2.Div(scalar.Of[S](6))))
	}
	if cf := c.Float(); cf > 1 {
		c = scalar.One[S]()
	} else if cf < -1 {
		c = scalar.Of[S](-1)
	}
	var s S
	if s2.Float() > 0 {
		s = s2.Sqrt()
	} else {
		s = scalar.Zero[S]()
	}
	theta := s.Atan2(c)
	if math.Pi-theta.Float() > nearPi {
		return v.Scale(theta.Div(s))
	}
	// Near π the antisymmetric part vanishes; R + Rᵀ = 2cI + 2(1-c)·aaᵀ gives the axis.
	oneMinusC := scalar.One[S]().Sub(c)
	var axis Vec3[S]
	for i := 0; i < 3; i++ {
		d := r[i][i].Sub(c).Div(oneMinusC)
		if d.Float() <= 0 {
			axis[i] = scalar.Zero[S]()
			continue
		}
		axis[i] = d.Sqrt()
	}
	// fix signs relative to the largest component
	big := 0
	for i := 1; i < 3; i++ {
		if axis[big].Less(axis[i]) {
			big = i
		}
	}
	for i := 0; i < 3; i++ {
		if i == big {
			continue
		}
		if r[big][i].Add(r[i][big]).Float() < 0 {
			axis[i] = axis[i].Neg()
		}
	}
	if v[big].Float() < 0 {
		axis = axis.Neg()
	}
	return axis.Normalize().Scale(theta)
}

// Exp6 integrates a constant twist for unit time.
func Exp6[S scalar.Scalar[S]](m Motion[S]) SE3[S] {
	w := m.Angular
	t2 := w.Dot(w)
	prec := scalar.TaylorPrecision[S](3)
	var b, c S
	if t2.Float() < scalar.Square(prec).Float() {
		b = scalar.Of[S](0.5).Sub(t2.Div(scalar.Of[S](24)))
		c = scalar.Of[S](1.0 / 6).Sub(t2.Div(scalar.Of[S](120)))
	} else {
		t := t2.Sqrt()
		b = scalar.One[S]().Sub(t.Cos()).Div(t2)
		c = t.Sub(t.Sin()).Div(t2.Mul(t))
	}
	k := Skew(w)
	vmat := IdentityMat3[S]().Add(k.Scale(b)).Add(k.Mul(k).Scale(c))
	return SE3[S]{R: Exp3(w), P: vmat.MulVec(m.Linear)}
}

// Log6 returns the twist whose unit-time integration yields p.
func Log6[S scalar.Scalar[S]](p SE3[S]) Motion[S] {
	w := Log3(p.R)
	t2 := w.Dot(w)
	prec := scalar.TaylorPrecision[S](3)
	var alpha S
	if t2.Float() < scalar.Square(prec).Float() {
		alpha = scalar.Of[S](1.0 / 12).Add(t2.Div(scalar.Of[S](720)))
	} else {
		t := t2.Sqrt()
		ratio := t.Mul(t.Sin()).Div(scalar.Of[S](2).Mul(scalar.One[S]().Sub(t.Cos())))
		alpha = scalar.One[S]().Sub(ratio).Div(t2)
	}
	k := Skew(w)
	vinv := IdentityMat3[S]().Sub(k.Scale(scalar.Of[S](0.5))).Add(k.Mul(k).Scale(alpha))
	return Motion[S]{Linear: vinv.MulVec(p.P), Angular: w}
}
