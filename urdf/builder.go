package urdf

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/logging"
	"go.viam.com/multibody/multibody"
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// RootJointName names the joint inserted by WithRootJoint.
const RootJointName = "root_joint"

// AxisAlignmentTolerance bounds how far a normalized axis may sit from a positive Cartesian axis
// and still select the aligned joint kind.
const AxisAlignmentTolerance = 1e-6

// Option configures BuildModel.
type Option func(*builder)

// WithRootJoint mounts the root link on j instead of welding it to the universe.
func WithRootJoint(j joint.Model[scalar.Float]) Option {
	return func(b *builder) { b.rootJoint = &j }
}

// WithGeometryResolver sets how mesh references are loaded.
func WithGeometryResolver(r GeometryResolver) Option {
	return func(b *builder) { b.resolver = r }
}

// WithMeshRoot resolves meshes from files below dir.
func WithMeshRoot(dir string) Option {
	return func(b *builder) { b.resolver = FileGeometryResolver{Root: dir} }
}

// WithLogger sets the logger receiving construction traces.
func WithLogger(logger logging.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// WithModelName overrides the model name taken from the description.
func WithModelName(name string) Option {
	return func(b *builder) { b.name = name }
}

type builder struct {
	name      string
	rootJoint *joint.Model[scalar.Float]
	resolver  GeometryResolver
	logger    logging.Logger

	model *multibody.Model[scalar.Float]
	geom  *multibody.GeometryModel
}

// pending is a link waiting to be visited. offset places the link's joint origin frame in the
// frame of parent, the closest non-fixed ancestor joint.
type pending struct {
	link      *Link
	offset    spatial.SE3[scalar.Float]
	parent    int
	prevFrame int
}

// BuildModelFromFile parses a URDF file and builds its model. Meshes resolve relative to the
// file's directory unless another resolver is given.
func BuildModelFromFile(filename string, opts ...Option) (*multibody.Model[scalar.Float], *multibody.GeometryModel, error) {
	robot, err := ParseFile(filename)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]Option{WithMeshRoot(filepath.Dir(filename))}, opts...)
	return BuildModel(robot, opts...)
}

// BuildModel walks the description from its root and returns the kinematic model and the
// collision shapes attached to it. Fixed joints are folded into their closest movable ancestor.
// Either everything is built or an error is returned.
func BuildModel(robot *Robot, opts ...Option) (*multibody.Model[scalar.Float], *multibody.GeometryModel, error) {
	if robot == nil || robot.Root == nil {
		return nil, nil, ErrNoModelInformation
	}
	b := &builder{
		name:     robot.Name,
		resolver: FileGeometryResolver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewLogger("urdf")
	}
	b.model = multibody.NewModel[scalar.Float](b.name)
	b.geom = &multibody.GeometryModel{}

	if err := b.walk(robot.Root); err != nil {
		return nil, nil, err
	}
	b.logger.Debugw("model built", "name", b.name, "joints", b.model.NJoints(), "nq", b.model.NQ, "nv", b.model.NV,
		"collision_objects", len(b.geom.Objects))
	return b.model, b.geom, nil
}

func (b *builder) walk(root *Link) error {
	if root.Joint != nil || root.Parent != nil {
		return errors.Wrapf(ErrUnsupportedJointConfiguration, "root link %q has a parent", root.Name)
	}
	start, err := b.visitRoot(root)
	if err != nil {
		return err
	}
	stack := b.push(nil, root, start)
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		next, err := b.visit(item)
		if err != nil {
			return err
		}
		stack = b.push(stack, item.link, next)
	}
	return nil
}

// push stacks the children of l in reverse so they pop in document order.
func (b *builder) push(stack []pending, l *Link, next pending) []pending {
	for i := len(l.Children) - 1; i >= 0; i-- {
		child := next
		child.link = l.Children[i]
		stack = append(stack, child)
	}
	return stack
}

func (b *builder) visitRoot(root *Link) (pending, error) {
	identity := spatial.IdentitySE3[scalar.Float]()
	inertia := spatial.ZeroInertia[scalar.Float]()
	if root.Inertial != nil {
		inertia = root.Inertial.Spatial()
	}

	if b.rootJoint == nil {
		b.model.AppendBodyToJoint(0, inertia, identity)
		frame := b.model.AddBodyFrame(root.Name, 0, identity, 0)
		if err := b.attachCollisions(root, 0, frame, identity); err != nil {
			return pending{}, err
		}
		return pending{offset: identity, parent: 0, prevFrame: frame}, nil
	}

	if root.Inertial == nil {
		b.logger.Warnw("root link has no inertial data, mounting a massless body", "link", root.Name)
	}
	id := b.model.AddJoint(0, *b.rootJoint, identity, RootJointName, multibody.Limits[scalar.Float]{})
	b.model.AppendBodyToJoint(id, inertia, identity)
	jointFrame := b.model.AddJointFrame(id, 0)
	frame := b.model.AddBodyFrame(root.Name, id, identity, jointFrame)
	b.logger.Debugw("root joint added", "link", root.Name, "type", joint.Shortname(*b.rootJoint))
	if err := b.attachCollisions(root, id, frame, identity); err != nil {
		return pending{}, err
	}
	return pending{offset: identity, parent: id, prevFrame: frame}, nil
}

// visit handles one non-root link and returns the state its children start from.
func (b *builder) visit(item pending) (pending, error) {
	l, j := item.link, item.link.Joint
	if j == nil {
		return pending{}, NewJointInformationMissingError(l.Name)
	}
	placement := item.offset.Compose(j.Origin.SE3())

	switch j.Type {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		if l.Inertial == nil {
			return pending{}, NewMissingInertiaError(l.Name)
		}
		jm, err := jointModelFor(j)
		if err != nil {
			return pending{}, err
		}
		id := b.model.AddJoint(item.parent, jm, placement, j.Name, limitsFor(j))
		b.model.AppendBodyToJoint(id, l.Inertial.Spatial(), spatial.IdentitySE3[scalar.Float]())
		jointFrame := b.model.AddJointFrame(id, item.prevFrame)
		frame := b.model.AddBodyFrame(l.Name, id, spatial.IdentitySE3[scalar.Float](), jointFrame)
		b.logger.Debugw("joint added", "joint", j.Name, "link", l.Name, "id", id,
			"type", joint.Shortname(jm), "parent", b.model.Names[item.parent])
		if err := b.attachCollisions(l, id, frame, spatial.IdentitySE3[scalar.Float]()); err != nil {
			return pending{}, err
		}
		return pending{offset: spatial.IdentitySE3[scalar.Float](), parent: id, prevFrame: frame}, nil

	case FixedJoint:
		if l.Inertial != nil {
			b.model.AppendBodyToJoint(item.parent, l.Inertial.Spatial(), placement)
		}
		jointFrame := b.model.AddFrame(multibody.Frame[scalar.Float]{
			Name:          j.Name,
			Type:          multibody.FixedJointFrame,
			ParentJoint:   item.parent,
			PreviousFrame: item.prevFrame,
			Placement:     placement,
		})
		frame := b.model.AddBodyFrame(l.Name, item.parent, placement, jointFrame)
		b.logger.Debugw("fixed link merged", "joint", j.Name, "link", l.Name, "into", b.model.Names[item.parent])
		if err := b.attachCollisions(l, item.parent, frame, placement); err != nil {
			return pending{}, err
		}
		return pending{offset: placement, parent: item.parent, prevFrame: frame}, nil

	default:
		return pending{}, NewUnsupportedJointTypeError(j.Name, j.Type)
	}
}

func jointModelFor(j *Joint) (joint.Model[scalar.Float], error) {
	axis, aligned, err := cartesianAxis(j.Axis)
	if err != nil {
		return joint.Model[scalar.Float]{}, errors.Wrapf(err, "joint %q", j.Name)
	}
	if j.Type == PrismaticJoint {
		if aligned < 0 {
			return joint.Model[scalar.Float]{}, errors.Wrapf(ErrUnsupportedJointConfiguration,
				"joint %q: prismatic axis (%g, %g, %g) is not X, Y or Z", j.Name, j.Axis.X, j.Axis.Y, j.Axis.Z)
		}
		return joint.NewPrismatic[scalar.Float](aligned), nil
	}
	if aligned < 0 {
		return joint.NewRevoluteUnaligned[scalar.Float](axis), nil
	}
	return joint.NewRevolute[scalar.Float](aligned), nil
}

// cartesianAxis normalizes axis and reports which positive Cartesian axis it matches, or -1.
func cartesianAxis(axis r3.Vector) (r3.Vector, int, error) {
	norm := axis.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return r3.Vector{}, -1, errors.Wrapf(ErrUnsupportedJointConfiguration, "degenerate axis %v", axis)
	}
	n := axis.Mul(1 / norm)
	for i, e := range []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}} {
		if n.Sub(e).Norm() <= AxisAlignmentTolerance {
			return e, i, nil
		}
	}
	return n, -1, nil
}

func limitsFor(j *Joint) multibody.Limits[scalar.Float] {
	if j.Limits == nil {
		return multibody.Limits[scalar.Float]{}
	}
	one := func(v float64) []scalar.Float { return []scalar.Float{scalar.Float(v)} }
	lim := multibody.Limits[scalar.Float]{
		Effort:   one(j.Limits.Effort),
		Velocity: one(j.Limits.Velocity),
		Lower:    one(j.Limits.Lower),
		Upper:    one(j.Limits.Upper),
	}
	if j.Type == ContinuousJoint {
		lim.Lower, lim.Upper = one(math.Inf(-1)), one(math.Inf(1))
	}
	return lim
}

// attachCollisions registers the collision shapes of l on joint parent, with placement mapping
// the link frame into the joint frame.
func (b *builder) attachCollisions(l *Link, parent, frame int, placement spatial.SE3[scalar.Float]) error {
	for i, c := range l.Collisions {
		g, err := b.resolve(c.Shape)
		if err != nil {
			return errors.Wrapf(err, "collision %d of link %q", i, l.Name)
		}
		name := c.Name
		if name == "" {
			name = l.Name
			if i > 0 {
				name = fmt.Sprintf("%s_%d", l.Name, i)
			}
		}
		b.geom.AddObject(multibody.GeometryObject{
			Name:        name,
			ParentJoint: parent,
			ParentFrame: frame,
			Placement:   placement.Compose(c.Origin.SE3()),
			Geometry:    g,
		})
	}
	return nil
}

func (b *builder) resolve(s Shape) (multibody.Geometry, error) {
	switch s.Type {
	case BoxShape:
		if s.Size.X <= 0 || s.Size.Y <= 0 || s.Size.Z <= 0 {
			return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "empty box %v", s.Size)
		}
		return multibody.NewBox(s.Size), nil
	case SphereShape:
		if s.Radius <= 0 {
			return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "sphere radius %g", s.Radius)
		}
		return multibody.NewSphere(s.Radius), nil
	case CylinderShape:
		if s.Radius <= 0 || s.Length <= 0 {
			return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "cylinder radius %g length %g", s.Radius, s.Length)
		}
		return multibody.NewCylinder(s.Radius, s.Length), nil
	case MeshShape:
		scale := s.Scale
		if scale == (r3.Vector{}) {
			scale = r3.Vector{X: 1, Y: 1, Z: 1}
		}
		if scale.X != scale.Y || scale.Y != scale.Z {
			return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "mesh %q: non-uniform scale %v", s.Filename, scale)
		}
		g, err := b.resolver.ResolveMesh(s.Filename, scale.X)
		if err != nil {
			return multibody.Geometry{}, NewGeometryResolutionError(fmt.Sprintf("mesh %q", s.Filename), err)
		}
		if g.Shape == multibody.MeshShape && len(g.Triangles) == 0 {
			return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "mesh %q is empty", s.Filename)
		}
		return g, nil
	default:
		return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "unknown shape %q", s.Type)
	}
}
