package joint

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// variant is the sealed set of per-kind descriptions. Only the types in this package implement it.
type variant[S scalar.Scalar[S]] interface {
	isVariant()
}

// Model is the immutable description of one joint. The zero value is not usable; build models
// with the New* constructors. Indexes are unset (-1) until SetIndexes is called once.
type Model[S scalar.Scalar[S]] struct {
	v       variant[S]
	id      int
	idxQ    int
	idxV    int
	idxVExt int
	indexed bool
}

func newModel[S scalar.Scalar[S]](v variant[S]) Model[S] {
	return Model[S]{v: v, id: -1, idxQ: -1, idxV: -1, idxVExt: -1}
}

// NewRevolute returns a revolute joint about the x (0), y (1) or z (2) axis of its frame.
func NewRevolute[S scalar.Scalar[S]](axis int) Model[S] {
	checkAxis(axis)
	return newModel[S](&revoluteModel[S]{axis: axis, dir: spatial.UnitVec3[S](axis)})
}

// NewRevoluteUnaligned returns a revolute joint about an arbitrary axis, normalized here.
// It panics on the zero axis.
func NewRevoluteUnaligned[S scalar.Scalar[S]](axis r3.Vector) Model[S] {
	dir := spatial.Vec3FromR3[S](axis).Normalize()
	return newModel[S](&revoluteModel[S]{axis: -1, dir: dir})
}

// NewPrismatic returns a prismatic joint along the x (0), y (1) or z (2) axis of its frame.
func NewPrismatic[S scalar.Scalar[S]](axis int) Model[S] {
	checkAxis(axis)
	return newModel[S](&prismaticModel[S]{axis: axis})
}

// NewFixed returns a joint without degrees of freedom.
func NewFixed[S scalar.Scalar[S]]() Model[S] {
	return newModel[S](&fixedModel[S]{})
}

// NewFreeFlyer returns a 6-DoF joint parametrized by a translation and a unit quaternion.
func NewFreeFlyer[S scalar.Scalar[S]]() Model[S] {
	return newModel[S](&freeFlyerModel[S]{})
}

// Element is one stage of a composite joint: a joint preceded by its placement relative to the
// output frame of the previous element (or the composite input frame for the first one).
type Element[S scalar.Scalar[S]] struct {
	Joint     Model[S]
	Placement spatial.SE3[S]
}

// NewComposite chains joints into a single joint. Composites may nest.
func NewComposite[S scalar.Scalar[S]](elements ...Element[S]) Model[S] {
	c := &compositeModel[S]{}
	for _, e := range elements {
		c.elements = append(c.elements, e.Joint)
		c.placements = append(c.placements, e.Placement)
		c.offsetsQ = append(c.offsetsQ, c.nq)
		c.offsetsV = append(c.offsetsV, c.nv)
		c.nq += NQ(e.Joint)
		c.nv += NV(e.Joint)
	}
	return newModel[S](c)
}

func checkAxis(axis int) {
	if axis < 0 || axis > 2 {
		panic(fmt.Sprintf("joint axis must be 0, 1 or 2, got %d", axis))
	}
}

func (m Model[S]) String() string {
	return fmt.Sprintf("%s(id=%d, idx_q=%d, idx_v=%d)", Shortname(m), m.id, m.idxQ, m.idxV)
}
