package joint

import (
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// compositeModel chains elements; each is preceded by its placement relative to the output frame
// of the previous element. Configuration and velocity segments are concatenated in order.
type compositeModel[S scalar.Scalar[S]] struct {
	elements   []Model[S]
	placements []spatial.SE3[S]
	offsetsQ   []int
	offsetsV   []int
	nq, nv     int
}

func (*compositeModel[S]) isVariant() {}

func (c *compositeModel[S]) createData() *Data[S] {
	d := newData[S](Composite, c.nq, c.nv)
	for _, e := range c.elements {
		d.elements = append(d.elements, CreateData(e))
	}
	d.forward = make([]spatial.SE3[S], len(c.elements))
	for i := range d.forward {
		d.forward[i] = spatial.IdentitySE3[S]()
	}
	return d
}

func (c *compositeModel[S]) calcZeroOrder(d *Data[S], q []S) {
	d.storeQ(q)
	for i, e := range c.elements {
		calcZeroOrderSegment(e, d.elements[i], q[c.offsetsQ[i]:c.offsetsQ[i]+NQ(e)])
	}
	c.updatePlacement(d)
}

// updatePlacement composes M = Π Pᵢ·Mᵢ and re-expresses every element subspace in the output frame.
func (c *compositeModel[S]) updatePlacement(d *Data[S]) {
	n := len(c.elements)
	m := spatial.IdentitySE3[S]()
	for i := 0; i < n; i++ {
		m = m.Compose(c.placements[i]).Compose(d.elements[i].m)
	}
	d.m = m

	if n == 0 {
		return
	}
	d.forward[n-1] = spatial.IdentitySE3[S]()
	for i := n - 2; i >= 0; i-- {
		d.forward[i] = c.placements[i+1].Compose(d.elements[i+1].m).Compose(d.forward[i+1])
	}
	for i, e := range c.elements {
		ed := d.elements[i]
		for j := 0; j < NV(e); j++ {
			col := d.forward[i].ActInvMotion(ed.s.MotionColumn(j))
			d.s.SetColumn(c.offsetsV[i]+j, col.Vector())
		}
	}
}

func (c *compositeModel[S]) calcVelocity(d *Data[S], v []S) {
	d.storeV(v)
	vel := spatial.ZeroMotion[S]()
	bias := spatial.ZeroMotion[S]()
	transported := make([]spatial.Motion[S], len(c.elements))
	for i, e := range c.elements {
		ed := d.elements[i]
		calcVelocitySegment(e, ed, v[c.offsetsV[i]:c.offsetsV[i]+NV(e)])
		transported[i] = d.forward[i].ActInvMotion(ed.v)
		vel = vel.Add(transported[i])
		bias = bias.Add(d.forward[i].ActInvMotion(ed.c))
	}
	for i := range transported {
		for k := i + 1; k < len(transported); k++ {
			bias = bias.Add(transported[i].Cross(transported[k]))
		}
	}
	d.v = vel
	d.c = bias
}

func (c *compositeModel[S]) equal(o *compositeModel[S]) bool {
	if len(c.elements) != len(o.elements) {
		return false
	}
	for i := range c.elements {
		if !paramsEqual(c.elements[i], o.elements[i]) || !se3Equal(c.placements[i], o.placements[i]) {
			return false
		}
	}
	return true
}
