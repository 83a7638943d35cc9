package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// freeFlyerModel is configured by q = [x y z qx qy qz qw]; the quaternion is normalized on use.
// Its velocity is the body twist, so the motion subspace is the identity.
type freeFlyerModel[S scalar.Scalar[S]] struct{}

func (*freeFlyerModel[S]) isVariant() {}

func (*freeFlyerModel[S]) createData() *Data[S] {
	d := newData[S](FreeFlyer, 7, 6)
	d.s.CopyFrom(spatial.IdentityMatrix[S](6))
	return d
}

func (*freeFlyerModel[S]) calcZeroOrder(d *Data[S], q []S) {
	d.storeQ(q)
	rot := spatial.RotationFromQuatCoeffs(q[3], q[4], q[5], q[6])
	d.m = spatial.NewSE3(rot, spatial.Vec3[S]{q[0], q[1], q[2]})
}

func (*freeFlyerModel[S]) calcVelocity(d *Data[S], v []S) {
	d.storeV(v)
	d.v = spatial.MotionFromVector(v[:6])
}
