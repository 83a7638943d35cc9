package multibody

import (
	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// Data is the working state matching one Model. It is sized once by NewData and refilled by the
// sweeps; a Data must not be shared between concurrent sweeps.
type Data[S scalar.Scalar[S]] struct {
	Joints []*joint.Data[S]

	// LiMi[i] places joint i in the frame of its parent joint.
	LiMi []spatial.SE3[S]
	// OMi[i] places joint i in the world frame.
	OMi []spatial.SE3[S]
	// OMf[f] places frame f in the world frame.
	OMf []spatial.SE3[S]
	// V[i] is the spatial velocity of body i, in its own frame.
	V []spatial.Motion[S]
	// Ia[i] is the articulated-body inertia of the subtree rooted at i, in joint i's frame.
	Ia []spatial.Matrix[S]
	// Ycrb[i] is the composite rigid-body inertia of the subtree rooted at i, in joint i's frame.
	Ycrb []spatial.Inertia[S]
}

// NewData allocates the working state of m.
func NewData[S scalar.Scalar[S]](m *Model[S]) *Data[S] {
	n := m.NJoints()
	d := &Data[S]{
		Joints: make([]*joint.Data[S], n),
		LiMi:   make([]spatial.SE3[S], n),
		OMi:    make([]spatial.SE3[S], n),
		OMf:    make([]spatial.SE3[S], len(m.Frames)),
		V:      make([]spatial.Motion[S], n),
		Ia:     make([]spatial.Matrix[S], n),
		Ycrb:   make([]spatial.Inertia[S], n),
	}
	for i, j := range m.Joints {
		d.Joints[i] = joint.CreateData(j)
		d.LiMi[i] = spatial.IdentitySE3[S]()
		d.OMi[i] = spatial.IdentitySE3[S]()
		d.V[i] = spatial.ZeroMotion[S]()
		d.Ia[i] = spatial.NewMatrix[S](6, 6)
		d.Ycrb[i] = spatial.ZeroInertia[S]()
	}
	for f := range d.OMf {
		d.OMf[f] = spatial.IdentitySE3[S]()
	}
	return d
}
