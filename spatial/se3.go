package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/multibody/scalar"
)

// SE3 is a rigid transform. Applied to a point expressed in the child (output) frame it yields
// the same point expressed in the parent (input) frame: p_parent = R·p_child + P.
type SE3[S scalar.Scalar[S]] struct {
	R Mat3[S]
	P Vec3[S]
}

// IdentitySE3 returns the identity transform.
func IdentitySE3[S scalar.Scalar[S]]() SE3[S] {
	return SE3[S]{R: IdentityMat3[S](), P: ZeroVec3[S]()}
}

// NewSE3 builds a transform from a rotation and a translation.
func NewSE3[S scalar.Scalar[S]](r Mat3[S], p Vec3[S]) SE3[S] {
	return SE3[S]{R: r, P: p}
}

// NewTranslation returns a pure translation.
func NewTranslation[S scalar.Scalar[S]](p Vec3[S]) SE3[S] {
	return SE3[S]{R: IdentityMat3[S](), P: p}
}

// NewSE3FromRPY builds a transform from a translation and fixed-axis roll, pitch, yaw angles
// in radians, the convention of URDF origins: R = Rz(yaw)·Ry(pitch)·Rx(roll).
func NewSE3FromRPY[S scalar.Scalar[S]](xyz, rpy r3.Vector) SE3[S] {
	half := func(a float64) (float64, float64) { return math.Cos(a / 2), math.Sin(a / 2) }
	cr, sr := half(rpy.X)
	cp, sp := half(rpy.Y)
	cy, sy := half(rpy.Z)
	qx := quat.Number{Real: cr, Imag: sr}
	qy := quat.Number{Real: cp, Jmag: sp}
	qz := quat.Number{Real: cy, Kmag: sy}
	q := quat.Mul(qz, quat.Mul(qy, qx))
	return SE3[S]{R: RotationFromQuat[S](q), P: Vec3FromR3[S](xyz)}
}

// RotationFromQuat converts a quaternion to a rotation matrix. The quaternion is normalized first.
func RotationFromQuat[S scalar.Scalar[S]](q quat.Number) Mat3[S] {
	if n := quat.Abs(q); n != 0 && n != 1 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	f := func(v float64) S { return scalar.Of[S](v) }
	return Mat3[S]{
		{f(1 - 2*(y*y+z*z)), f(2 * (x*y - z*w)), f(2 * (x*z + y*w))},
		{f(2 * (x*y + z*w)), f(1 - 2*(x*x+z*z)), f(2 * (y*z - x*w))},
		{f(2 * (x*z - y*w)), f(2 * (y*z + x*w)), f(1 - 2*(x*x+y*y))},
	}
}

// RotationFromQuatCoeffs builds a rotation from scalar quaternion coefficients (x, y, z, w),
// normalizing them. Used where the quaternion itself carries derivatives.
func RotationFromQuatCoeffs[S scalar.Scalar[S]](x, y, z, w S) Mat3[S] {
	n := x.Mul(x).Add(y.Mul(y)).Add(z.Mul(z)).Add(w.Mul(w)).Sqrt()
	x, y, z, w = x.Div(n), y.Div(n), z.Div(n), w.Div(n)
	one, two := scalar.One[S](), scalar.Of[S](2)
	return Mat3[S]{
		{one.Sub(two.Mul(y.Mul(y).Add(z.Mul(z)))), two.Mul(x.Mul(y).Sub(z.Mul(w))), two.Mul(x.Mul(z).Add(y.Mul(w)))},
		{two.Mul(x.Mul(y).Add(z.Mul(w))), one.Sub(two.Mul(x.Mul(x).Add(z.Mul(z)))), two.Mul(y.Mul(z).Sub(x.Mul(w)))},
		{two.Mul(x.Mul(z).Sub(y.Mul(w))), two.Mul(y.Mul(z).Add(x.Mul(w))), one.Sub(two.Mul(x.Mul(x).Add(y.Mul(y))))},
	}
}

// Quaternion evaluates the rotation as a unit quaternion.
func (m SE3[S]) Quaternion() quat.Number {
	r := m.R.Floats()
	trace := r[0] + r[4] + r[8]
	var q quat.Number
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (r[7] - r[5]) * s, Jmag: (r[2] - r[6]) * s, Kmag: (r[3] - r[1]) * s}
	case r[0] > r[4] && r[0] > r[8]:
		s := 2 * math.Sqrt(1+r[0]-r[4]-r[8])
		q = quat.Number{Real: (r[7] - r[5]) / s, Imag: 0.25 * s, Jmag: (r[1] + r[3]) / s, Kmag: (r[2] + r[6]) / s}
	case r[4] > r[8]:
		s := 2 * math.Sqrt(1+r[4]-r[0]-r[8])
		q = quat.Number{Real: (r[2] - r[6]) / s, Imag: (r[1] + r[3]) / s, Jmag: 0.25 * s, Kmag: (r[5] + r[7]) / s}
	default:
		s := 2 * math.Sqrt(1+r[8]-r[0]-r[4])
		q = quat.Number{Real: (r[3] - r[1]) / s, Imag: (r[2] + r[6]) / s, Jmag: (r[5] + r[7]) / s, Kmag: 0.25 * s}
	}
	return q
}

// DualQuaternion evaluates the transform as a unit dual quaternion.
func (m SE3[S]) DualQuaternion() dualquat.Number {
	rot := m.Quaternion()
	p := m.P.R3()
	t := quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
	return dualquat.Number{Real: rot, Dual: quat.Scale(0.5, quat.Mul(t, rot))}
}

// Compose returns m·o, the transform of o's child frame into m's parent frame.
func (m SE3[S]) Compose(o SE3[S]) SE3[S] {
	return SE3[S]{R: m.R.Mul(o.R), P: m.R.MulVec(o.P).Add(m.P)}
}

// Inverse returns m⁻¹.
func (m SE3[S]) Inverse() SE3[S] {
	rt := m.R.T()
	return SE3[S]{R: rt, P: rt.MulVec(m.P).Neg()}
}

// ActPoint maps a child-frame point into the parent frame.
func (m SE3[S]) ActPoint(p Vec3[S]) Vec3[S] {
	return m.R.MulVec(p).Add(m.P)
}

// ActMotion re-expresses a motion given in the child frame in the parent frame.
func (m SE3[S]) ActMotion(v Motion[S]) Motion[S] {
	w := m.R.MulVec(v.Angular)
	return Motion[S]{Linear: m.R.MulVec(v.Linear).Add(m.P.Cross(w)), Angular: w}
}

// ActInvMotion re-expresses a motion given in the parent frame in the child frame.
func (m SE3[S]) ActInvMotion(v Motion[S]) Motion[S] {
	rt := m.R.T()
	return Motion[S]{
		Linear:  rt.MulVec(v.Linear.Sub(m.P.Cross(v.Angular))),
		Angular: rt.MulVec(v.Angular),
	}
}

// ActForce re-expresses a force given in the child frame in the parent frame.
func (m SE3[S]) ActForce(f Force[S]) Force[S] {
	lin := m.R.MulVec(f.Linear)
	return Force[S]{Linear: lin, Angular: m.R.MulVec(f.Angular).Add(m.P.Cross(lin))}
}

// ActInvForce re-expresses a force given in the parent frame in the child frame.
func (m SE3[S]) ActInvForce(f Force[S]) Force[S] {
	rt := m.R.T()
	return Force[S]{
		Linear:  rt.MulVec(f.Linear),
		Angular: rt.MulVec(f.Angular.Sub(m.P.Cross(f.Linear))),
	}
}

// ActionMatrix returns the 6×6 matrix X such that X·v == m.ActMotion(v) for v as a 6-vector.
func (m SE3[S]) ActionMatrix() Matrix[S] {
	x := NewMatrix[S](6, 6)
	pr := Skew(m.P).Mul(m.R)
	x.SetBlock3(0, 0, m.R)
	x.SetBlock3(0, 3, pr)
	x.SetBlock3(3, 3, m.R)
	return x
}

// AlmostEqual compares both transforms entry-wise within tol.
func (m SE3[S]) AlmostEqual(o SE3[S], tol float64) bool {
	a, b := m.R.Floats(), o.R.Floats()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return m.P.R3().Sub(o.P.R3()).Norm() <= tol
}

// CastSE3 carries a transform over to another scalar type.
func CastSE3[To scalar.Scalar[To], From scalar.Scalar[From]](m SE3[From]) (SE3[To], error) {
	var out SE3[To]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v, err := scalar.Cast[To](m.R[i][j])
			if err != nil {
				return out, err
			}
			out.R[i][j] = v
		}
		v, err := scalar.Cast[To](m.P[i])
		if err != nil {
			return out, err
		}
		out.P[i] = v
	}
	return out, nil
}
