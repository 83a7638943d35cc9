// Package urdf reads robot descriptions and builds kinematic models from them.
package urdf

import (
	"github.com/golang/geo/r3"

	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// Extension is the file extension associated with URDF files.
const Extension = "urdf"

// Joint type tags as they appear in a description.
const (
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
	FixedJoint      = "fixed"
	FloatingJoint   = "floating"
	PlanarJoint     = "planar"
)

// Collision shape tags.
const (
	BoxShape      = "box"
	SphereShape   = "sphere"
	CylinderShape = "cylinder"
	MeshShape     = "mesh"
)

// Pose is a translation followed by fixed-axis roll, pitch and yaw, in meters and radians.
type Pose struct {
	XYZ r3.Vector
	RPY r3.Vector
}

// SE3 returns the pose as a rigid transform.
func (p Pose) SE3() spatial.SE3[scalar.Float] {
	return spatial.NewSE3FromRPY[scalar.Float](p.XYZ, p.RPY)
}

// InertiaTensor is the upper triangle of a symmetric rotational inertia, about the center of mass.
type InertiaTensor struct {
	Ixx, Ixy, Ixz, Iyy, Iyz, Izz float64
}

// Inertial is the mass distribution of a link. Origin places the center of mass and the axes in
// which Inertia is expressed.
type Inertial struct {
	Mass    float64
	Origin  Pose
	Inertia InertiaTensor
}

// Spatial returns the inertia expressed in the link frame.
func (in Inertial) Spatial() spatial.Inertia[scalar.Float] {
	t := in.Inertia
	local := spatial.NewInertia(
		scalar.Float(in.Mass),
		spatial.ZeroVec3[scalar.Float](),
		spatial.SymmetricRot[scalar.Float](t.Ixx, t.Ixy, t.Ixz, t.Iyy, t.Iyz, t.Izz),
	)
	return local.SE3Action(in.Origin.SE3())
}

// Limits bounds a single degree of freedom.
type Limits struct {
	Effort   float64
	Velocity float64
	Lower    float64
	Upper    float64
}

// Shape describes collision geometry. Size applies to boxes, Radius to spheres and cylinders,
// Length to cylinders, Filename and Scale to meshes.
type Shape struct {
	Type     string
	Size     r3.Vector
	Radius   float64
	Length   float64
	Filename string
	Scale    r3.Vector
}

// Collision is a shape placed in its link frame.
type Collision struct {
	Name   string
	Origin Pose
	Shape  Shape
}

// Joint connects a parent link to a child link. Origin places the joint frame in the parent link
// frame; Axis is expressed in the joint frame.
type Joint struct {
	Name   string
	Type   string
	Parent string
	Child  string
	Origin Pose
	Axis   r3.Vector
	Limits *Limits
}

// Link is a node of the description tree. Every link but the root has a Parent and the Joint
// connecting it to that parent.
type Link struct {
	Name       string
	Inertial   *Inertial
	Collisions []Collision

	Joint    *Joint
	Parent   *Link
	Children []*Link
}

// AddChild attaches child below l through j and returns the child.
func (l *Link) AddChild(j *Joint, child *Link) *Link {
	j.Parent, j.Child = l.Name, child.Name
	child.Joint = j
	child.Parent = l
	l.Children = append(l.Children, child)
	return child
}

// Robot is a description tree.
type Robot struct {
	Name string
	Root *Link
}

// Links returns every link in pre-order.
func (r *Robot) Links() []*Link {
	if r.Root == nil {
		return nil
	}
	var out []*Link
	stack := []*Link{r.Root}
	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, l)
		for i := len(l.Children) - 1; i >= 0; i-- {
			stack = append(stack, l.Children[i])
		}
	}
	return out
}

// Link returns the named link.
func (r *Robot) Link(name string) (*Link, bool) {
	for _, l := range r.Links() {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}
