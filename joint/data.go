package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// Data is the working state of one joint. It is created once per joint by CreateData, refilled by
// the Calc* operations and never resized.
type Data[S scalar.Scalar[S]] struct {
	kind Type

	m spatial.SE3[S]
	v spatial.Motion[S]
	c spatial.Motion[S]
	s spatial.Matrix[S]

	u     spatial.Matrix[S]
	dinv  spatial.Matrix[S]
	udinv spatial.Matrix[S]
	stu   spatial.Matrix[S]

	q  []S
	vq []S

	// composite only
	elements []*Data[S]
	// forward[i] maps the output frame of the last element into the output frame of element i.
	forward []spatial.SE3[S]
}

func newData[S scalar.Scalar[S]](kind Type, nq, nv int) *Data[S] {
	d := &Data[S]{
		kind:  kind,
		m:     spatial.IdentitySE3[S](),
		v:     spatial.ZeroMotion[S](),
		c:     spatial.ZeroMotion[S](),
		s:     spatial.NewMatrix[S](6, nv),
		u:     spatial.NewMatrix[S](6, nv),
		dinv:  spatial.NewMatrix[S](nv, nv),
		udinv: spatial.NewMatrix[S](6, nv),
		stu:   spatial.NewMatrix[S](nv, nv),
		q:     make([]S, nq),
		vq:    make([]S, nv),
	}
	z := scalar.Zero[S]()
	for i := range d.q {
		d.q[i] = z
	}
	for i := range d.vq {
		d.vq[i] = z
	}
	return d
}

// Kind returns the joint kind the data was created for.
func (d *Data[S]) Kind() Type { return d.kind }

func (d *Data[S]) storeQ(q []S) { copy(d.q, q) }

func (d *Data[S]) storeV(v []S) { copy(d.vq, v) }

// setVelocityFromSubspace sets V = S·v.
func (d *Data[S]) setVelocityFromSubspace(v []S) {
	if len(v) == 0 {
		d.v = spatial.ZeroMotion[S]()
		return
	}
	d.v = spatial.MotionFromVector(d.s.MulVec(v))
}

func motionEqual[S scalar.Scalar[S]](a, b spatial.Motion[S]) bool {
	return vecEqual(a.Linear, b.Linear) && vecEqual(a.Angular, b.Angular)
}

func vecEqual[S scalar.Scalar[S]](a, b spatial.Vec3[S]) bool {
	return a[0].Float() == b[0].Float() && a[1].Float() == b[1].Float() && a[2].Float() == b[2].Float()
}

func se3Equal[S scalar.Scalar[S]](a, b spatial.SE3[S]) bool {
	return a.R.Floats() == b.R.Floats() && vecEqual(a.P, b.P)
}

func slicesEqual[S scalar.Scalar[S]](a, b []S) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Float() != b[i].Float() {
			return false
		}
	}
	return true
}
