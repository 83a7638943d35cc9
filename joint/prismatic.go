package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

type prismaticModel[S scalar.Scalar[S]] struct {
	axis int
}

func (*prismaticModel[S]) isVariant() {}

func (p *prismaticModel[S]) kind() Type { return PrismaticX + Type(p.axis) }

func (p *prismaticModel[S]) createData() *Data[S] {
	d := newData[S](p.kind(), 1, 1)
	d.s.Set(p.axis, 0, scalar.One[S]())
	return d
}

func (p *prismaticModel[S]) calcZeroOrder(d *Data[S], q []S) {
	d.storeQ(q)
	t := spatial.ZeroVec3[S]()
	t[p.axis] = q[0]
	d.m = spatial.NewTranslation(t)
}

func (p *prismaticModel[S]) calcVelocity(d *Data[S], v []S) {
	d.storeV(v)
	lin := spatial.ZeroVec3[S]()
	lin[p.axis] = v[0]
	d.v = spatial.Motion[S]{Linear: lin, Angular: spatial.ZeroVec3[S]()}
}
