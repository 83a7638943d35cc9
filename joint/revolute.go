package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// revoluteModel rotates about dir. axis is the Cartesian index of dir, or -1 when unaligned.
type revoluteModel[S scalar.Scalar[S]] struct {
	axis int
	dir  spatial.Vec3[S]
}

func (*revoluteModel[S]) isVariant() {}

func (r *revoluteModel[S]) kind() Type {
	if r.axis < 0 {
		return RevoluteUnaligned
	}
	return RevoluteX + Type(r.axis)
}

func (r *revoluteModel[S]) createData() *Data[S] {
	d := newData[S](r.kind(), 1, 1)
	z := scalar.Zero[S]()
	d.s.SetColumn(0, []S{z, z, z, r.dir[0], r.dir[1], r.dir[2]})
	return d
}

func (r *revoluteModel[S]) placement(q []S) spatial.SE3[S] {
	if r.axis < 0 {
		return spatial.NewSE3(spatial.AxisAngle(r.dir, q[0]), spatial.ZeroVec3[S]())
	}
	sin, cos := q[0].Sin(), q[0].Cos()
	one, z := scalar.One[S](), scalar.Zero[S]()
	var rot spatial.Mat3[S]
	switch r.axis {
	case 0:
		rot = spatial.Mat3[S]{{one, z, z}, {z, cos, sin.Neg()}, {z, sin, cos}}
	case 1:
		rot = spatial.Mat3[S]{{cos, z, sin}, {z, one, z}, {sin.Neg(), z, cos}}
	default:
		rot = spatial.Mat3[S]{{cos, sin.Neg(), z}, {sin, cos, z}, {z, z, one}}
	}
	return spatial.NewSE3(rot, spatial.ZeroVec3[S]())
}

func (r *revoluteModel[S]) calcZeroOrder(d *Data[S], q []S) {
	d.storeQ(q)
	d.m = r.placement(q)
}

func (r *revoluteModel[S]) calcVelocity(d *Data[S], v []S) {
	d.storeV(v)
	d.v = spatial.Motion[S]{Linear: spatial.ZeroVec3[S](), Angular: r.dir.Scale(v[0])}
}

func (r *revoluteModel[S]) equal(o *revoluteModel[S]) bool {
	return r.axis == o.axis && vecEqual(r.dir, o.dir)
}
