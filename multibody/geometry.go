package multibody

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// ShapeType enumerates collision shapes.
type ShapeType int

// The shapes.
const (
	BoxShape ShapeType = iota
	SphereShape
	CylinderShape
	MeshShape
)

func (s ShapeType) String() string {
	switch s {
	case BoxShape:
		return "box"
	case SphereShape:
		return "sphere"
	case CylinderShape:
		return "cylinder"
	case MeshShape:
		return "mesh"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Triangle is a mesh facet.
type Triangle [3]r3.Vector

// Normal returns the unit normal following the right-hand rule, or the zero vector for a
// degenerate facet.
func (t Triangle) Normal() r3.Vector {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Norm() == 0 {
		return r3.Vector{}
	}
	return n.Normalize()
}

// Geometry is a collision shape in its local frame. Dims holds the box side lengths, the sphere
// radius in X, or the cylinder radius in X and length in Z. Meshes carry their triangles already
// scaled.
type Geometry struct {
	Shape     ShapeType
	Dims      r3.Vector
	Triangles []Triangle
	// Source names the file a mesh was loaded from.
	Source string
}

// NewBox returns a box with the given side lengths.
func NewBox(size r3.Vector) Geometry {
	return Geometry{Shape: BoxShape, Dims: size}
}

// NewSphere returns a sphere.
func NewSphere(radius float64) Geometry {
	return Geometry{Shape: SphereShape, Dims: r3.Vector{X: radius}}
}

// NewCylinder returns a cylinder along Z.
func NewCylinder(radius, length float64) Geometry {
	return Geometry{Shape: CylinderShape, Dims: r3.Vector{X: radius, Z: length}}
}

// NewMesh returns a triangle mesh.
func NewMesh(source string, triangles []Triangle) Geometry {
	return Geometry{Shape: MeshShape, Triangles: triangles, Source: source}
}

// Bounds returns the axis-aligned box enclosing the shape in its local frame.
func (g Geometry) Bounds() (lower, upper r3.Vector) {
	switch g.Shape {
	case BoxShape:
		half := g.Dims.Mul(0.5)
		return half.Mul(-1), half
	case SphereShape:
		r := g.Dims.X
		return r3.Vector{X: -r, Y: -r, Z: -r}, r3.Vector{X: r, Y: r, Z: r}
	case CylinderShape:
		r, h := g.Dims.X, g.Dims.Z/2
		return r3.Vector{X: -r, Y: -r, Z: -h}, r3.Vector{X: r, Y: r, Z: h}
	default:
		if len(g.Triangles) == 0 {
			return r3.Vector{}, r3.Vector{}
		}
		inf := math.Inf(1)
		lower, upper = r3.Vector{X: inf, Y: inf, Z: inf}, r3.Vector{X: -inf, Y: -inf, Z: -inf}
		for _, t := range g.Triangles {
			for _, p := range t {
				lower = r3.Vector{X: math.Min(lower.X, p.X), Y: math.Min(lower.Y, p.Y), Z: math.Min(lower.Z, p.Z)}
				upper = r3.Vector{X: math.Max(upper.X, p.X), Y: math.Max(upper.Y, p.Y), Z: math.Max(upper.Z, p.Z)}
			}
		}
		return lower, upper
	}
}

// GeometryObject is a shape rigidly attached to a joint frame.
type GeometryObject struct {
	Name        string
	ParentJoint int
	ParentFrame int
	Placement   spatial.SE3[scalar.Float]
	Geometry    Geometry
}

// GeometryModel collects the collision shapes of a model.
type GeometryModel struct {
	Objects []GeometryObject
}

// AddObject appends a shape and returns its index.
func (g *GeometryModel) AddObject(obj GeometryObject) int {
	g.Objects = append(g.Objects, obj)
	return len(g.Objects) - 1
}

// ObjectsOf returns the shapes attached to joint j.
func (g *GeometryModel) ObjectsOf(j int) []GeometryObject {
	return lo.Filter(g.Objects, func(o GeometryObject, _ int) bool { return o.ParentJoint == j })
}

// ObjectID returns the index of the named shape.
func (g *GeometryModel) ObjectID(name string) (int, bool) {
	_, idx, ok := lo.FindIndexOf(g.Objects, func(o GeometryObject) bool { return o.Name == name })
	return idx, ok
}

// GeometryPlacements places every shape in the world from the joint placements of the last
// kinematic sweep.
func GeometryPlacements(g *GeometryModel, d *Data[scalar.Float]) []spatial.SE3[scalar.Float] {
	return lo.Map(g.Objects, func(o GeometryObject, _ int) spatial.SE3[scalar.Float] {
		return d.OMi[o.ParentJoint].Compose(o.Placement)
	})
}
