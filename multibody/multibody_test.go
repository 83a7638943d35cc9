package multibody

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

type F = scalar.Float

const tol = 1e-9

var approx = cmpopts.EquateApprox(0, tol)

func link(mass float64, com r3.Vector) spatial.Inertia[F] {
	return spatial.NewInertia(F(mass), spatial.Vec3FromR3[F](com), spatial.SymmetricRot[F](0.01, 0, 0, 0.01, 0, 0.01))
}

// twoLinkArm is a yaw joint at the origin carrying a pitch joint one meter out along x.
func twoLinkArm() *Model[F] {
	m := NewModel[F]("arm")
	j1 := m.AddJoint(0, joint.NewRevolute[F](2), spatial.IdentitySE3[F](), "shoulder", Limits[F]{
		Lower: []F{-1}, Upper: []F{1}, Effort: []F{10}, Velocity: []F{2},
	})
	m.AppendBodyToJoint(j1, link(2, r3.Vector{X: 0.5}), spatial.IdentitySE3[F]())
	m.AddJointFrame(j1, 0)
	j2 := m.AddJoint(j1, joint.NewRevolute[F](1), spatial.NewTranslation(spatial.NewVec3[F](1, 0, 0)), "elbow", Limits[F]{})
	m.AppendBodyToJoint(j2, link(1, r3.Vector{X: 0.5}), spatial.IdentitySE3[F]())
	m.AddJointFrame(j2, 1)
	m.AddBodyFrame("tool", j2, spatial.NewTranslation(spatial.NewVec3[F](1, 0, 0)), 2)
	return m
}

func TestModelConstruction(t *testing.T) {
	m := twoLinkArm()
	test.That(t, m.NJoints(), test.ShouldEqual, 3)
	test.That(t, m.NBodies(), test.ShouldEqual, 3)
	test.That(t, m.NQ, test.ShouldEqual, 2)
	test.That(t, m.NV, test.ShouldEqual, 2)
	test.That(t, m.Parents, test.ShouldResemble, []int{0, 0, 1})
	test.That(t, joint.IdxQ(m.Joints[1]), test.ShouldEqual, 0)
	test.That(t, joint.IdxQ(m.Joints[2]), test.ShouldEqual, 1)
	test.That(t, joint.ID(m.Joints[2]), test.ShouldEqual, 2)
	test.That(t, m.Validate(), test.ShouldBeNil)

	test.That(t, m.LowerPosition[0], test.ShouldEqual, F(-1))
	test.That(t, math.IsInf(m.LowerPosition[1].Float(), -1), test.ShouldBeTrue)
	test.That(t, math.IsInf(m.UpperPosition[1].Float(), 1), test.ShouldBeTrue)
	test.That(t, m.Effort, test.ShouldHaveLength, 2)
	test.That(t, m.Armature, test.ShouldResemble, []F{0, 0})

	test.That(t, m.Mass(), test.ShouldEqual, F(3))
	test.That(t, m.Children(0), test.ShouldResemble, []int{1})
	test.That(t, m.Children(1), test.ShouldResemble, []int{2})
	test.That(t, m.Children(2), test.ShouldBeEmpty)

	id, ok := m.JointID("elbow")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, 2)
	_, ok = m.JointID("wrist")
	test.That(t, ok, test.ShouldBeFalse)
	fid, ok := m.FrameID("tool", BodyFrame)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, fid, test.ShouldEqual, 3)
	_, ok = m.FrameID("tool", JointFrame)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, func() { m.AddJoint(7, joint.NewRevolute[F](0), spatial.IdentitySE3[F](), "bad", Limits[F]{}) }, test.ShouldPanic)
	test.That(t, func() {
		m.AddJoint(0, joint.NewRevolute[F](0), spatial.IdentitySE3[F](), "bad", Limits[F]{Lower: []F{1, 2}})
	}, test.ShouldPanic)
}

func TestValidateAggregates(t *testing.T) {
	m := twoLinkArm()
	m.Parents[2] = 2
	m.Inertias[1].Mass = F(-1)
	m.LowerPosition[0] = F(5)
	m.Frames[3].ParentJoint = 9
	err := m.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 4)
	test.That(t, err.Error(), test.ShouldContainSubstring, "elbow")

	short := twoLinkArm()
	short.Names = short.Names[:2]
	test.That(t, short.Validate().Error(), test.ShouldContainSubstring, "names")
}

func TestForwardKinematics(t *testing.T) {
	m := twoLinkArm()
	d := NewData(m)
	ForwardKinematics(m, d, []F{math.Pi / 2, 0})
	test.That(t, d.OMi[2].P.R3().Sub(r3.Vector{Y: 1}).Norm(), test.ShouldBeLessThan, tol)

	UpdateFramePlacements(m, d)
	test.That(t, d.OMf[3].P.R3().Sub(r3.Vector{Y: 2}).Norm(), test.ShouldBeLessThan, tol)

	// pitching the elbow by 90° points the forearm down
	ForwardKinematics(m, d, []F{0, math.Pi / 2})
	UpdateFramePlacements(m, d)
	test.That(t, d.OMf[3].P.R3().Sub(r3.Vector{X: 1, Z: -1}).Norm(), test.ShouldBeLessThan, tol)

	test.That(t, func() { ForwardKinematics(m, d, []F{0}) }, test.ShouldPanic)
}

// The world-frame velocity of a body origin is the time derivative of its position along
// q(t) = q0 + t·v.
func TestForwardKinematicsVelocity(t *testing.T) {
	fm := twoLinkArm()
	m, err := CastModel[scalar.Dual](fm)
	test.That(t, err, test.ShouldBeNil)
	d := NewData(m)
	q0, vel := []float64{0.3, -0.4}, []float64{1.5, -0.7}
	q := []scalar.Dual{scalar.NewDual(q0[0], vel[0]), scalar.NewDual(q0[1], vel[1])}
	v := scalar.FromFloats[scalar.Dual](vel)
	ForwardKinematicsVelocity(m, d, q, v)

	for i := 1; i < m.NJoints(); i++ {
		worldLin := d.OMi[i].R.MulVec(d.V[i].Linear)
		for k := 0; k < 3; k++ {
			test.That(t, d.OMi[i].P[k].Derivative(), test.ShouldAlmostEqual, worldLin[k].Float())
		}
	}

	// the same sweep in doubles agrees with the dual values
	fd := NewData(fm)
	ForwardKinematicsVelocity(fm, fd, scalar.FromFloats[F](q0), scalar.FromFloats[F](vel))
	for i := range fd.V {
		test.That(t, cmp.Diff(scalar.Floats(fd.V[i].Vector()), scalar.Floats(d.V[i].Vector()), approx), test.ShouldBeEmpty)
	}
}

func TestCompositeInertias(t *testing.T) {
	m := twoLinkArm()
	d := NewData(m)
	ForwardKinematics(m, d, []F{0, 0})
	ComputeCompositeInertias(m, d)

	total := d.Ycrb[0]
	test.That(t, total.Mass, test.ShouldEqual, F(3))
	// centers at x=0.5 (2 kg) and x=1.5 (1 kg)
	test.That(t, total.Lever.R3().Sub(r3.Vector{X: (2*0.5 + 1.5) / 3}).Norm(), test.ShouldBeLessThan, tol)
	test.That(t, d.Ycrb[1].AlmostEqual(total, tol), test.ShouldBeTrue)
	test.That(t, d.Ycrb[2].AlmostEqual(m.Inertias[2], tol), test.ShouldBeTrue)

	// placement-independent mass, configuration-dependent center
	ForwardKinematics(m, d, []F{math.Pi / 2, math.Pi / 2})
	ComputeCompositeInertias(m, d)
	test.That(t, d.Ycrb[0].Mass, test.ShouldEqual, F(3))
	test.That(t, d.Ycrb[0].Lever.R3().Sub(r3.Vector{Y: (2*0.5 + 1) / 3, Z: -0.5 / 3}).Norm(), test.ShouldBeLessThan, tol)
}

func TestArticulatedInertias(t *testing.T) {
	m := twoLinkArm()
	d := NewData(m)
	ForwardKinematics(m, d, []F{0.2, -0.6})
	test.That(t, ComputeArticulatedInertias(m, d), test.ShouldBeNil)

	// the leaf is projected before being handed to its parent
	s2 := joint.MotionSubspace(d.Joints[2])
	test.That(t, d.Ia[2].Mul(s2).AlmostEqual(spatial.NewMatrix[F](6, 1), 1e-12), test.ShouldBeTrue)

	// the leaf's joint-space inertia is that of the bare body about its axis
	want := s2.T().Mul(m.Inertias[2].Matrix()).Mul(s2)
	test.That(t, joint.StUInertia(d.Joints[2]).AlmostEqual(want, tol), test.ShouldBeTrue)

	// the root articulated inertia is no heavier than the rigid composite and no lighter than the bare body
	ComputeCompositeInertias(m, d)
	s1 := joint.MotionSubspace(d.Joints[1])
	art := joint.StUInertia(d.Joints[1]).At(0, 0).Float()
	rigid := s1.T().Mul(d.Ycrb[1].Matrix()).Mul(s1).At(0, 0).Float()
	bare := s1.T().Mul(m.Inertias[1].Matrix()).Mul(s1).At(0, 0).Float()
	test.That(t, art, test.ShouldBeLessThanOrEqualTo, rigid+tol)
	test.That(t, art, test.ShouldBeGreaterThanOrEqualTo, bare-tol)

	m.Armature[1] = F(0.5)
	test.That(t, ComputeArticulatedInertias(m, d), test.ShouldBeNil)
	test.That(t, joint.StUInertia(d.Joints[2]).At(0, 0).Float(), test.ShouldAlmostEqual, want.At(0, 0).Float()+0.5)
}

func TestArticulatedInertiasSingular(t *testing.T) {
	m := twoLinkArm()
	m.Inertias[2] = spatial.ZeroInertia[F]()
	d := NewData(m)
	ForwardKinematics(m, d, []F{0, 0})
	err := ComputeArticulatedInertias(m, d)
	test.That(t, errors.Is(err, joint.ErrSingularArticulatedInertia), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "elbow")
	test.That(t, err.Error(), test.ShouldContainSubstring, "joint 2")
}

func TestCastModel(t *testing.T) {
	m := twoLinkArm()
	dm, err := CastModel[scalar.Dual](m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Validate(), test.ShouldBeNil)
	back, err := CastModel[F](dm)
	test.That(t, err, test.ShouldBeNil)
	for i := range m.Joints {
		test.That(t, joint.Equal(back.Joints[i], m.Joints[i]), test.ShouldBeTrue)
	}
	test.That(t, back.Inertias, test.ShouldResemble, m.Inertias)
	test.That(t, back.Frames, test.ShouldResemble, m.Frames)

	m.Inertias[1].Mass = F(math.NaN())
	_, err = CastModel[scalar.Dual](m)
	test.That(t, errors.Is(err, scalar.ErrInvalidCast), test.ShouldBeTrue)
}

func TestNeutralConfiguration(t *testing.T) {
	m := NewModel[F]("floating")
	root := m.AddJoint(0, joint.NewFreeFlyer[F](), spatial.IdentitySE3[F](), "root_joint", Limits[F]{})
	m.AddJoint(root, joint.NewPrismatic[F](2), spatial.IdentitySE3[F](), "lift", Limits[F]{})
	q := NeutralConfiguration(m)
	test.That(t, q, test.ShouldResemble, []F{0, 0, 0, 0, 0, 0, 1, 0})
	test.That(t, m.NV, test.ShouldEqual, 7)
	test.That(t, m.LowerPosition, test.ShouldHaveLength, 8)

	d := NewData(m)
	ForwardKinematics(m, d, q)
	test.That(t, d.OMi[2].AlmostEqual(spatial.IdentitySE3[F](), 0), test.ShouldBeTrue)
}

func TestModelString(t *testing.T) {
	out := twoLinkArm().String()
	for _, s := range []string{"shoulder", "elbow", "revolute_z", "revolute_y", "universe", "nq=2"} {
		test.That(t, out, test.ShouldContainSubstring, s)
	}
}

func TestGeometryModel(t *testing.T) {
	m := twoLinkArm()
	g := &GeometryModel{}
	g.AddObject(GeometryObject{Name: "upper", ParentJoint: 1, Placement: spatial.NewTranslation(spatial.NewVec3[F](0.5, 0, 0)), Geometry: NewBox(r3.Vector{X: 1, Y: 0.1, Z: 0.1})})
	g.AddObject(GeometryObject{Name: "fore", ParentJoint: 2, Placement: spatial.IdentitySE3[F](), Geometry: NewCylinder(0.05, 1)})
	test.That(t, g.ObjectsOf(2), test.ShouldHaveLength, 1)
	id, ok := g.ObjectID("fore")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, 1)

	d := NewData(m)
	ForwardKinematics(m, d, []F{math.Pi / 2, 0})
	placements := GeometryPlacements(g, d)
	test.That(t, placements[0].P.R3().Sub(r3.Vector{Y: 0.5}).Norm(), test.ShouldBeLessThan, tol)
	test.That(t, placements[1].P.R3().Sub(r3.Vector{Y: 1}).Norm(), test.ShouldBeLessThan, tol)

	lower, upper := g.Objects[1].Geometry.Bounds()
	test.That(t, lower, test.ShouldResemble, r3.Vector{X: -0.05, Y: -0.05, Z: -0.5})
	test.That(t, upper, test.ShouldResemble, r3.Vector{X: 0.05, Y: 0.05, Z: 0.5})

	mesh := NewMesh("tri.stl", []Triangle{{{}, {X: 1}, {Y: 2}}})
	lower, upper = mesh.Bounds()
	test.That(t, lower, test.ShouldResemble, r3.Vector{})
	test.That(t, upper, test.ShouldResemble, r3.Vector{X: 1, Y: 2})
	test.That(t, mesh.Triangles[0].Normal(), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, SphereShape.String(), test.ShouldEqual, "sphere")
}
