package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
	"go.viam.com/test"

	"go.viam.com/multibody/scalar"
)

type F = scalar.Float

const tol = 1e-9

func randomPlacement() SE3[F] {
	return NewSE3FromRPY[F](r3.Vector{X: 0.3, Y: -1.2, Z: 0.7}, r3.Vector{X: 0.4, Y: -0.2, Z: 1.1})
}

func TestSE3ComposeInverse(t *testing.T) {
	m := randomPlacement()
	test.That(t, m.Compose(m.Inverse()).AlmostEqual(IdentitySE3[F](), tol), test.ShouldBeTrue)
	test.That(t, m.Inverse().Compose(m).AlmostEqual(IdentitySE3[F](), tol), test.ShouldBeTrue)

	p := NewVec3[F](1, 2, 3)
	back := m.Inverse().ActPoint(m.ActPoint(p))
	test.That(t, back.R3().Sub(p.R3()).Norm(), test.ShouldBeLessThan, tol)

	n := NewSE3FromRPY[F](r3.Vector{X: 1}, r3.Vector{Z: math.Pi / 2})
	mn := m.Compose(n)
	test.That(t, mn.ActPoint(p).R3().Sub(m.ActPoint(n.ActPoint(p)).R3()).Norm(), test.ShouldBeLessThan, tol)
}

func TestRPY(t *testing.T) {
	yaw := NewSE3FromRPY[F](r3.Vector{}, r3.Vector{Z: math.Pi / 2})
	x := yaw.ActPoint(UnitVec3[F](0)).R3()
	test.That(t, x.Sub(r3.Vector{Y: 1}).Norm(), test.ShouldBeLessThan, tol)

	roll := NewSE3FromRPY[F](r3.Vector{}, r3.Vector{X: math.Pi / 2})
	y := roll.ActPoint(UnitVec3[F](1)).R3()
	test.That(t, y.Sub(r3.Vector{Z: 1}).Norm(), test.ShouldBeLessThan, tol)

	rpy := NewSE3FromRPY[F](r3.Vector{}, r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
	composed := AxisAngle(UnitVec3[F](2), F(0.3)).Mul(AxisAngle(UnitVec3[F](1), F(0.2))).Mul(AxisAngle(UnitVec3[F](0), F(0.1)))
	test.That(t, rpy.AlmostEqual(NewSE3(composed, ZeroVec3[F]()), tol), test.ShouldBeTrue)
}

func TestQuaternionRoundTrip(t *testing.T) {
	m := randomPlacement()
	q := m.Quaternion()
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1)
	back := NewSE3(RotationFromQuat[F](q), m.P)
	test.That(t, back.AlmostEqual(m, tol), test.ShouldBeTrue)

	coeffs := RotationFromQuatCoeffs(F(q.Imag*2), F(q.Jmag*2), F(q.Kmag*2), F(q.Real*2))
	test.That(t, NewSE3(coeffs, m.P).AlmostEqual(m, tol), test.ShouldBeTrue)

	dq := m.DualQuaternion()
	// translation is recovered as 2·dual·conj(real)
	tr := quat.Scale(2, quat.Mul(dq.Dual, quat.Conj(dq.Real)))
	test.That(t, r3.Vector{X: tr.Imag, Y: tr.Jmag, Z: tr.Kmag}.Sub(m.P.R3()).Norm(), test.ShouldBeLessThan, tol)
	test.That(t, quat.Abs(dq.Real), test.ShouldAlmostEqual, 1)
	test.That(t, quat.Abs(dualquat.Mul(dq, dualquat.Conj(dq)).Real), test.ShouldAlmostEqual, 1)
}

func TestMotionAction(t *testing.T) {
	m := randomPlacement()
	v := Motion[F]{Linear: NewVec3[F](0.1, 0.2, -0.3), Angular: NewVec3[F](1, -2, 0.5)}

	test.That(t, m.ActInvMotion(m.ActMotion(v)).AlmostEqual(v, tol), test.ShouldBeTrue)

	viaMatrix := MotionFromVector(m.ActionMatrix().MulVec(v.Vector()))
	test.That(t, viaMatrix.AlmostEqual(m.ActMotion(v), tol), test.ShouldBeTrue)

	// power is frame invariant
	f := Force[F]{Linear: NewVec3[F](3, 0, 1), Angular: NewVec3[F](0, -1, 2)}
	test.That(t, m.ActMotion(v).Dot(m.ActForce(f)).Float(), test.ShouldAlmostEqual, v.Dot(f).Float())
	back := m.ActInvForce(m.ActForce(f))
	test.That(t, back.Sub(f).Linear.R3().Norm()+back.Sub(f).Angular.R3().Norm(), test.ShouldBeLessThan, tol)

	// v ×ₘ v = 0
	self := v.Cross(v)
	test.That(t, self.AlmostEqual(ZeroMotion[F](), tol), test.ShouldBeTrue)

	// ×* is the negative adjoint of ×ₘ: (v ×ₘ w)·f = -w·(v ×* f)
	w := Motion[F]{Linear: NewVec3[F](-0.4, 1, 0.2), Angular: NewVec3[F](0.1, 0.7, -1.3)}
	test.That(t, v.Cross(w).Dot(f).Float(), test.ShouldAlmostEqual, -w.Dot(v.CrossForce(f)).Float())
	selfPower := v.Dot(v.CrossForce(f))
	test.That(t, selfPower.Float(), test.ShouldAlmostEqual, 0.)
}

func TestInertiaMerge(t *testing.T) {
	a := NewInertia(F(2), NewVec3[F](0.1, 0, 0), SymmetricRot[F](0.1, 0, 0, 0.2, 0, 0.3))
	b := NewInertia(F(1), NewVec3[F](0, 0.5, -0.2), SymmetricRot[F](0.05, 0.01, 0, 0.05, 0, 0.02))
	c := NewInertia(F(0.5), NewVec3[F](-1, 0, 0.3), SymmetricRot[F](0.01, 0, 0, 0.01, 0, 0.01))

	t.Run("commutative", func(t *testing.T) {
		test.That(t, a.Add(b).AlmostEqual(b.Add(a), tol), test.ShouldBeTrue)
	})
	t.Run("associative", func(t *testing.T) {
		test.That(t, a.Add(b).Add(c).AlmostEqual(a.Add(b.Add(c)), tol), test.ShouldBeTrue)
	})
	t.Run("neutral", func(t *testing.T) {
		test.That(t, a.Add(ZeroInertia[F]()).AlmostEqual(a, tol), test.ShouldBeTrue)
	})
	t.Run("matrix is additive", func(t *testing.T) {
		sum := a.Matrix().Add(b.Matrix())
		test.That(t, a.Add(b).Matrix().AlmostEqual(sum, tol), test.ShouldBeTrue)
	})
	t.Run("zero mass", func(t *testing.T) {
		z := NewInertia(F(0), NewVec3[F](1, 1, 1), ZeroMat3[F]())
		merged := z.Add(z)
		test.That(t, merged.Mass, test.ShouldEqual, F(0))
		test.That(t, merged.Lever.R3().Norm(), test.ShouldEqual, 0.)
	})
}

func TestInertiaAction(t *testing.T) {
	in := NewInertia(F(2), NewVec3[F](0.1, 0.3, 0), SymmetricRot[F](0.1, 0, 0, 0.2, 0, 0.3))
	m := randomPlacement()
	v := Motion[F]{Linear: NewVec3[F](0.1, 0.2, -0.3), Angular: NewVec3[F](1, -2, 0.5)}

	// momentum transforms as a force
	moved := in.SE3Action(m)
	lhs := moved.MulMotion(m.ActMotion(v))
	rhs := m.ActForce(in.MulMotion(v))
	test.That(t, lhs.Sub(rhs).Linear.R3().Norm()+lhs.Sub(rhs).Angular.R3().Norm(), test.ShouldBeLessThan, tol)

	viaMatrix := ForceFromVector(in.Matrix().MulVec(v.Vector()))
	diff := viaMatrix.Sub(in.MulMotion(v))
	test.That(t, diff.Linear.R3().Norm()+diff.Angular.R3().Norm(), test.ShouldBeLessThan, tol)

	test.That(t, moved.SE3ActionInverse(m).AlmostEqual(in, tol), test.ShouldBeTrue)

	// the 6×6 form is symmetric positive definite
	dense := in.Matrix().Dense()
	sym := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		for j := i; j < 6; j++ {
			test.That(t, dense.At(i, j), test.ShouldAlmostEqual, dense.At(j, i))
			sym.SetSym(i, j, dense.At(i, j))
		}
	}
	var chol mat.Cholesky
	test.That(t, chol.Factorize(sym), test.ShouldBeTrue)
}

func TestMatrixInverse(t *testing.T) {
	m := MatrixFromFloats[F](3, 3, []float64{0, 2, 1, 1, 1, 0, 3, 0, 4})
	inv, err := m.Inverse()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Mul(inv).AlmostEqual(IdentityMatrix[F](3), tol), test.ShouldBeTrue)

	var ref mat.Dense
	test.That(t, ref.Inverse(m.Dense()), test.ShouldBeNil)
	test.That(t, mat.EqualApprox(&ref, inv.Dense(), tol), test.ShouldBeTrue)

	_, err = MatrixFromFloats[F](2, 2, []float64{1, 2, 2, 4}).Inverse()
	test.That(t, err, test.ShouldBeError)

	empty, err := NewMatrix[F](0, 0).Inverse()
	test.That(t, err, test.ShouldBeNil)
	r, c := empty.Dims()
	test.That(t, r+c, test.ShouldEqual, 0)
	test.That(t, empty.Dense(), test.ShouldBeNil)

	test.That(t, func() { NewMatrix[F](2, 3).At(2, 0) }, test.ShouldPanic)
	test.That(t, func() { NewMatrix[F](2, 3).Mul(NewMatrix[F](2, 3)) }, test.ShouldPanic)
}

func TestExpLog(t *testing.T) {
	for _, tc := range []struct {
		name string
		w    Vec3[F]
	}{
		{"zero", ZeroVec3[F]()},
		{"tiny", NewVec3[F](1e-7, -2e-7, 0)},
		{"generic", NewVec3[F](0.3, -0.8, 1.1)},
		{"near pi", NewVec3[F](0, math.Pi-1e-5, 0)},
		{"pi about diagonal", NewVec3[F](1, 1, 0).Normalize().Scale(F(math.Pi))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := Exp3(tc.w)
			back := Log3(r)
			test.That(t, NewSE3(Exp3(back), ZeroVec3[F]()).AlmostEqual(NewSE3(r, ZeroVec3[F]()), 1e-8), test.ShouldBeTrue)
			if tc.w.Norm().Float() < math.Pi-1e-3 {
				test.That(t, back.R3().Sub(tc.w.R3()).Norm(), test.ShouldBeLessThan, 1e-6)
			}
			rt := r.Mul(r.T()).Floats()
			id := IdentityMat3[F]().Floats()
			for i := range rt {
				test.That(t, rt[i], test.ShouldAlmostEqual, id[i])
			}
		})
	}

	v := Motion[F]{Linear: NewVec3[F](0.5, -1, 2), Angular: NewVec3[F](0.3, 0.2, -0.4)}
	test.That(t, Log6(Exp6(v)).AlmostEqual(v, 1e-8), test.ShouldBeTrue)
	m := randomPlacement()
	test.That(t, Exp6(Log6(m)).AlmostEqual(m, 1e-8), test.ShouldBeTrue)

	pure := Motion[F]{Linear: NewVec3[F](1, 2, 3), Angular: ZeroVec3[F]()}
	test.That(t, Exp6(pure).P.R3(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
}

func TestExp3Derivative(t *testing.T) {
	// d/dθ of Rz(θ)[0][1] = -cos θ
	theta := scalar.Variable(0.4)
	r := Exp3(Vec3[scalar.Dual]{scalar.Zero[scalar.Dual](), scalar.Zero[scalar.Dual](), theta})
	test.That(t, r[0][1].Derivative(), test.ShouldAlmostEqual, -math.Cos(0.4))
	test.That(t, r[0][0].Derivative(), test.ShouldAlmostEqual, -math.Sin(0.4))
}

func TestCastHelpers(t *testing.T) {
	m := randomPlacement()
	d, err := CastSE3[scalar.Dual](m)
	test.That(t, err, test.ShouldBeNil)
	back, err := CastSE3[F](d)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, m)

	in := NewInertia(F(math.NaN()), ZeroVec3[F](), ZeroMat3[F]())
	_, err = CastInertia[scalar.Dual](in)
	test.That(t, err, test.ShouldBeError)
}
