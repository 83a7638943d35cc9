package urdf

import (
	"encoding/xml"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/multibody/utils"
)

type robotXML struct {
	XMLName xml.Name   `xml:"robot"`
	Name    string     `xml:"name,attr"`
	Links   []linkXML  `xml:"link"`
	Joints  []jointXML `xml:"joint"`
}

type linkXML struct {
	XMLName   xml.Name       `xml:"link"`
	Name      string         `xml:"name,attr"`
	Inertial  *inertialXML   `xml:"inertial"`
	Collision []collisionXML `xml:"collision"`
}

type inertialXML struct {
	XMLName xml.Name `xml:"inertial"`
	Origin  *poseXML `xml:"origin"`
	Mass    *struct {
		Value float64 `xml:"value,attr"`
	} `xml:"mass"`
	Inertia *struct {
		IXX float64 `xml:"ixx,attr"`
		IXY float64 `xml:"ixy,attr"`
		IXZ float64 `xml:"ixz,attr"`
		IYY float64 `xml:"iyy,attr"`
		IYZ float64 `xml:"iyz,attr"`
		IZZ float64 `xml:"izz,attr"`
	} `xml:"inertia"`
}

type collisionXML struct {
	XMLName  xml.Name `xml:"collision"`
	Name     string   `xml:"name,attr"`
	Origin   *poseXML `xml:"origin"`
	Geometry struct {
		Box *struct {
			Size string `xml:"size,attr"`
		} `xml:"box"`
		Sphere *struct {
			Radius float64 `xml:"radius,attr"`
		} `xml:"sphere"`
		Cylinder *struct {
			Radius float64 `xml:"radius,attr"`
			Length float64 `xml:"length,attr"`
		} `xml:"cylinder"`
		Mesh *struct {
			Filename string `xml:"filename,attr"`
			Scale    string `xml:"scale,attr"`
		} `xml:"mesh"`
	} `xml:"geometry"`
}

type jointXML struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frameXML `xml:"parent"`
	Child   frameXML `xml:"child"`
	Origin  *poseXML `xml:"origin"`
	Axis    *struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *struct {
		Effort   float64 `xml:"effort,attr"`
		Velocity float64 `xml:"velocity,attr"`
		Lower    float64 `xml:"lower,attr"`
		Upper    float64 `xml:"upper,attr"`
	} `xml:"limit"`
}

type frameXML struct {
	Link string `xml:"link,attr"`
}

type poseXML struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// ParseFile reads and parses a URDF file.
func ParseFile(filename string) (*Robot, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return Parse(xmlData)
}

// Parse decodes URDF XML into a description tree. Children keep the document order of the joints
// that attach them.
func Parse(xmlData []byte) (*Robot, error) {
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}
	doc := &robotXML{}
	if err := xml.Unmarshal(xmlData, doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode URDF")
	}
	if len(doc.Links) == 0 {
		return nil, ErrNoModelInformation
	}

	links := make(map[string]*Link, len(doc.Links))
	order := make([]*Link, 0, len(doc.Links))
	for _, lx := range doc.Links {
		if _, dup := links[lx.Name]; dup {
			return nil, errors.Errorf("duplicate link %q", lx.Name)
		}
		l, err := lx.toLink()
		if err != nil {
			return nil, errors.Wrapf(err, "link %q", lx.Name)
		}
		links[lx.Name] = l
		order = append(order, l)
	}

	seen := make(map[string]bool, len(doc.Joints))
	for _, jx := range doc.Joints {
		if seen[jx.Name] {
			return nil, errors.Errorf("duplicate joint %q", jx.Name)
		}
		seen[jx.Name] = true
		j, err := jx.toJoint()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", jx.Name)
		}
		parent, ok := links[j.Parent]
		if !ok {
			return nil, errors.Errorf("joint %q: unknown parent link %q", j.Name, j.Parent)
		}
		child, ok := links[j.Child]
		if !ok {
			return nil, errors.Errorf("joint %q: unknown child link %q", j.Name, j.Child)
		}
		if child.Joint != nil {
			return nil, errors.Errorf("link %q has two parent joints: %q and %q", child.Name, child.Joint.Name, j.Name)
		}
		parent.AddChild(j, child)
	}

	var roots []*Link
	for _, l := range order {
		if l.Joint == nil {
			roots = append(roots, l)
		}
	}
	switch len(roots) {
	case 0:
		return nil, errors.New("no root link: the joints form a cycle")
	case 1:
	default:
		return nil, errors.Errorf("%d root links, expected one (first two: %q, %q)", len(roots), roots[0].Name, roots[1].Name)
	}

	robot := &Robot{Name: doc.Name, Root: roots[0]}
	if got := len(robot.Links()); got != len(order) {
		return nil, errors.Errorf("%d links unreachable from root %q", len(order)-got, robot.Root.Name)
	}
	return robot, nil
}

func (lx *linkXML) toLink() (*Link, error) {
	l := &Link{Name: lx.Name}
	if lx.Inertial != nil {
		in, err := lx.Inertial.toInertial()
		if err != nil {
			return nil, err
		}
		l.Inertial = in
	}
	for i := range lx.Collision {
		c, err := lx.Collision[i].toCollision()
		if err != nil {
			return nil, errors.Wrapf(err, "collision %d", i)
		}
		l.Collisions = append(l.Collisions, c)
	}
	return l, nil
}

func (ix *inertialXML) toInertial() (*Inertial, error) {
	origin, err := ix.Origin.toPose()
	if err != nil {
		return nil, errors.Wrap(err, "inertial origin")
	}
	in := &Inertial{Origin: origin}
	if ix.Mass != nil {
		in.Mass = ix.Mass.Value
	}
	if ix.Inertia != nil {
		t := ix.Inertia
		in.Inertia = InertiaTensor{Ixx: t.IXX, Ixy: t.IXY, Ixz: t.IXZ, Iyy: t.IYY, Iyz: t.IYZ, Izz: t.IZZ}
	}
	return in, nil
}

func (cx *collisionXML) toCollision() (Collision, error) {
	origin, err := cx.Origin.toPose()
	if err != nil {
		return Collision{}, errors.Wrap(err, "origin")
	}
	c := Collision{Name: cx.Name, Origin: origin}
	g := cx.Geometry
	switch {
	case g.Box != nil:
		size, err := parseVec3(g.Box.Size, r3.Vector{})
		if err != nil {
			return Collision{}, errors.Wrap(err, "box size")
		}
		c.Shape = Shape{Type: BoxShape, Size: size}
	case g.Sphere != nil:
		c.Shape = Shape{Type: SphereShape, Radius: g.Sphere.Radius}
	case g.Cylinder != nil:
		c.Shape = Shape{Type: CylinderShape, Radius: g.Cylinder.Radius, Length: g.Cylinder.Length}
	case g.Mesh != nil:
		scale, err := parseVec3(g.Mesh.Scale, r3.Vector{X: 1, Y: 1, Z: 1})
		if err != nil {
			return Collision{}, errors.Wrap(err, "mesh scale")
		}
		c.Shape = Shape{Type: MeshShape, Filename: g.Mesh.Filename, Scale: scale}
	default:
		return Collision{}, errors.New("no geometry defined")
	}
	return c, nil
}

func (jx *jointXML) toJoint() (*Joint, error) {
	origin, err := jx.Origin.toPose()
	if err != nil {
		return nil, errors.Wrap(err, "origin")
	}
	j := &Joint{
		Name:   jx.Name,
		Type:   jx.Type,
		Parent: jx.Parent.Link,
		Child:  jx.Child.Link,
		Origin: origin,
		Axis:   r3.Vector{X: 1},
	}
	if jx.Axis != nil {
		if j.Axis, err = parseVec3(jx.Axis.XYZ, r3.Vector{X: 1}); err != nil {
			return nil, errors.Wrap(err, "axis")
		}
	}
	if jx.Limit != nil {
		j.Limits = &Limits{
			Effort:   jx.Limit.Effort,
			Velocity: jx.Limit.Velocity,
			Lower:    jx.Limit.Lower,
			Upper:    jx.Limit.Upper,
		}
	}
	return j, nil
}

func (px *poseXML) toPose() (Pose, error) {
	if px == nil {
		return Pose{}, nil
	}
	xyz, err := parseVec3(px.XYZ, r3.Vector{})
	if err != nil {
		return Pose{}, errors.Wrap(err, "xyz")
	}
	rpy, err := parseVec3(px.RPY, r3.Vector{})
	if err != nil {
		return Pose{}, errors.Wrap(err, "rpy")
	}
	return Pose{XYZ: xyz, RPY: rpy}, nil
}

// parseVec3 reads an "x y z" attribute; an empty attribute yields def.
func parseVec3(s string, def r3.Vector) (r3.Vector, error) {
	vals := utils.SpaceDelimitedStringToFloatSlice(s)
	if len(vals) == 0 {
		return def, nil
	}
	if len(vals) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 values, got %q", s)
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			return r3.Vector{}, errors.Errorf("not a number in %q", s)
		}
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
