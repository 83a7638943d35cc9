package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// fixedModel has no coordinates. It is used for the universe joint and as a composite element.
type fixedModel[S scalar.Scalar[S]] struct{}

func (*fixedModel[S]) isVariant() {}

func (*fixedModel[S]) createData() *Data[S] {
	return newData[S](Fixed, 0, 0)
}

func (*fixedModel[S]) calcZeroOrder(d *Data[S], _ []S) {
	d.m = spatial.IdentitySE3[S]()
}

func (*fixedModel[S]) calcVelocity(d *Data[S], _ []S) {
	d.v = spatial.ZeroMotion[S]()
}
