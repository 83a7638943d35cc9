package multibody

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/scalar"
)

func checkSizes[S scalar.Scalar[S]](m *Model[S], d *Data[S], q, v []S) {
	if len(d.Joints) != m.NJoints() {
		panic(fmt.Sprintf("data sized for %d joints, model has %d", len(d.Joints), m.NJoints()))
	}
	if q != nil && len(q) != m.NQ {
		panic(fmt.Sprintf("configuration has %d entries, model expects %d", len(q), m.NQ))
	}
	if v != nil && len(v) != m.NV {
		panic(fmt.Sprintf("velocity has %d entries, model expects %d", len(v), m.NV))
	}
}

// ForwardKinematics places every joint for configuration q, parents before children.
func ForwardKinematics[S scalar.Scalar[S]](m *Model[S], d *Data[S], q []S) {
	checkSizes(m, d, q, nil)
	for i := 1; i < m.NJoints(); i++ {
		jd := d.Joints[i]
		joint.CalcZeroOrder(m.Joints[i], jd, q)
		d.LiMi[i] = m.JointPlacements[i].Compose(joint.Transform(jd))
		d.OMi[i] = d.OMi[m.Parents[i]].Compose(d.LiMi[i])
	}
}

// ForwardKinematicsVelocity places every joint and propagates body velocities for (q, v).
func ForwardKinematicsVelocity[S scalar.Scalar[S]](m *Model[S], d *Data[S], q, v []S) {
	checkSizes(m, d, q, v)
	for i := 1; i < m.NJoints(); i++ {
		jd := d.Joints[i]
		parent := m.Parents[i]
		joint.CalcFirstOrder(m.Joints[i], jd, q, v)
		d.LiMi[i] = m.JointPlacements[i].Compose(joint.Transform(jd))
		d.OMi[i] = d.OMi[parent].Compose(d.LiMi[i])
		d.V[i] = d.LiMi[i].ActInvMotion(d.V[parent]).Add(joint.Motion(jd))
	}
}

// UpdateFramePlacements places every frame in the world from the joint placements of the last
// kinematic sweep.
func UpdateFramePlacements[S scalar.Scalar[S]](m *Model[S], d *Data[S]) {
	for f, frame := range m.Frames {
		d.OMf[f] = d.OMi[frame.ParentJoint].Compose(frame.Placement)
	}
}

// ComputeArticulatedInertias runs the child-to-parent pass of the articulated-body recursion from
// the joint placements of the last kinematic sweep: each body starts from its own inertia, the
// joint projects it through CalcAba and the remainder is carried to the parent. Children of the
// universe keep their full articulated inertia. Model armature is added to every joint-space
// inertia.
func ComputeArticulatedInertias[S scalar.Scalar[S]](m *Model[S], d *Data[S]) error {
	checkSizes(m, d, nil, nil)
	for i := range m.Inertias {
		d.Ia[i].CopyFrom(m.Inertias[i].Matrix())
	}
	for i := m.NJoints() - 1; i > 0; i-- {
		parent := m.Parents[i]
		if err := joint.CalcAba(m.Joints[i], d.Joints[i], m.Armature, d.Ia[i], parent > 0); err != nil {
			return errors.Wrapf(err, "articulated inertia of %s", m.Names[i])
		}
		if parent == 0 {
			continue
		}
		// motions map parent→child through X, forces map back through Xᵗ
		x := d.LiMi[i].Inverse().ActionMatrix()
		d.Ia[parent].CopyFrom(d.Ia[parent].Add(x.T().Mul(d.Ia[i]).Mul(x)))
	}
	return nil
}

// ComputeCompositeInertias accumulates, child to parent, the rigid-body inertia of every subtree
// from the joint placements of the last kinematic sweep. Ycrb[0] ends up holding the whole tree in
// the world frame.
func ComputeCompositeInertias[S scalar.Scalar[S]](m *Model[S], d *Data[S]) {
	checkSizes(m, d, nil, nil)
	copy(d.Ycrb, m.Inertias)
	for i := m.NJoints() - 1; i > 0; i-- {
		parent := m.Parents[i]
		d.Ycrb[parent] = d.Ycrb[parent].Add(d.Ycrb[i].SE3Action(d.LiMi[i]))
	}
}

// NeutralConfiguration returns the configuration where every joint sits at its origin.
func NeutralConfiguration[S scalar.Scalar[S]](m *Model[S]) []S {
	q := make([]S, 0, m.NQ)
	for _, j := range m.Joints {
		q = append(q, joint.Neutral(j)...)
	}
	return q
}
