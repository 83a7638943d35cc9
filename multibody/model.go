// Package multibody holds the kinematic model of a tree-structured mechanism: its joints, the
// bodies rigidly attached to them, named frames, limits, and the sweeps that propagate placements,
// velocities and inertias along the tree.
package multibody

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

// UniverseName names joint 0, the fixed world frame every tree hangs from.
const UniverseName = "universe"

// FrameType classifies model frames.
type FrameType int

// The frame kinds.
const (
	OpFrame FrameType = iota
	JointFrame
	FixedJointFrame
	BodyFrame
)

func (t FrameType) String() string {
	switch t {
	case OpFrame:
		return "op"
	case JointFrame:
		return "joint"
	case FixedJointFrame:
		return "fixed_joint"
	case BodyFrame:
		return "body"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Frame is a named placement rigidly attached to a joint.
type Frame[S scalar.Scalar[S]] struct {
	Name          string
	Type          FrameType
	ParentJoint   int
	PreviousFrame int
	Placement     spatial.SE3[S]
}

// Limits bound one joint. Effort and Velocity have one entry per velocity coordinate, Lower and
// Upper one per configuration coordinate. A nil slice means unlimited.
type Limits[S scalar.Scalar[S]] struct {
	Effort   []S
	Velocity []S
	Lower    []S
	Upper    []S
}

// Model is a kinematic tree. Joint 0 is the universe; every other joint i has Parents[i] < i.
// Body i is rigidly attached to the output frame of joint i.
type Model[S scalar.Scalar[S]] struct {
	Name string

	Joints          []joint.Model[S]
	Parents         []int
	JointPlacements []spatial.SE3[S]
	Inertias        []spatial.Inertia[S]
	Names           []string
	Frames          []Frame[S]

	Effort        []S
	Velocity      []S
	LowerPosition []S
	UpperPosition []S
	Armature      []S

	NQ         int
	NV         int
	NVExtended int
}

// NewModel returns a model holding only the universe joint and its frame.
func NewModel[S scalar.Scalar[S]](name string) *Model[S] {
	universe := joint.NewFixed[S]()
	joint.SetIndexes(&universe, 0, 0, 0)
	return &Model[S]{
		Name:            name,
		Joints:          []joint.Model[S]{universe},
		Parents:         []int{0},
		JointPlacements: []spatial.SE3[S]{spatial.IdentitySE3[S]()},
		Inertias:        []spatial.Inertia[S]{spatial.ZeroInertia[S]()},
		Names:           []string{UniverseName},
		Frames: []Frame[S]{{
			Name:      UniverseName,
			Type:      FixedJointFrame,
			Placement: spatial.IdentitySE3[S](),
		}},
	}
}

// NJoints returns the number of joints, universe included.
func (m *Model[S]) NJoints() int { return len(m.Joints) }

// NBodies returns the number of bodies, which matches the number of joints.
func (m *Model[S]) NBodies() int { return len(m.Inertias) }

// AddJoint appends j as a child of parent, placed at placement in the parent joint frame, and
// assigns its indexes. Missing limits are unbounded. It returns the new joint index.
func (m *Model[S]) AddJoint(parent int, j joint.Model[S], placement spatial.SE3[S], name string, limits Limits[S]) int {
	if parent < 0 || parent >= len(m.Joints) {
		panic(fmt.Sprintf("parent joint %d out of range [0, %d)", parent, len(m.Joints)))
	}
	id := len(m.Joints)
	joint.SetIndexesExtended(&j, id, m.NQ, m.NV, m.NVExtended)
	nq, nv := joint.NQ(j), joint.NV(j)

	m.Joints = append(m.Joints, j)
	m.Parents = append(m.Parents, parent)
	m.JointPlacements = append(m.JointPlacements, placement)
	m.Inertias = append(m.Inertias, spatial.ZeroInertia[S]())
	m.Names = append(m.Names, name)

	inf := scalar.Of[S](math.Inf(1))
	m.Effort = append(m.Effort, fill(limits.Effort, nv, inf)...)
	m.Velocity = append(m.Velocity, fill(limits.Velocity, nv, inf)...)
	m.LowerPosition = append(m.LowerPosition, fill(limits.Lower, nq, inf.Neg())...)
	m.UpperPosition = append(m.UpperPosition, fill(limits.Upper, nq, inf)...)
	m.Armature = append(m.Armature, fill(nil, nv, scalar.Zero[S]())...)

	m.NQ += nq
	m.NV += nv
	m.NVExtended += joint.NVExtended(j)
	return id
}

func fill[S scalar.Scalar[S]](vals []S, n int, def S) []S {
	if len(vals) != 0 && len(vals) != n {
		panic(fmt.Sprintf("limit has %d entries, joint expects %d", len(vals), n))
	}
	if len(vals) == n {
		return append([]S(nil), vals...)
	}
	return lo.Times(n, func(int) S { return def })
}

// AppendBodyToJoint rigidly attaches a body to the output frame of joint j at placement. Its inertia
// is merged into body j; attaching is irreversible.
func (m *Model[S]) AppendBodyToJoint(j int, in spatial.Inertia[S], placement spatial.SE3[S]) {
	m.Inertias[j] = m.Inertias[j].Add(in.SE3Action(placement))
}

// AddFrame registers a frame and returns its index.
func (m *Model[S]) AddFrame(f Frame[S]) int {
	if f.ParentJoint < 0 || f.ParentJoint >= len(m.Joints) {
		panic(fmt.Sprintf("frame %q attached to missing joint %d", f.Name, f.ParentJoint))
	}
	m.Frames = append(m.Frames, f)
	return len(m.Frames) - 1
}

// AddJointFrame registers the frame of joint j, placed at the joint output frame.
func (m *Model[S]) AddJointFrame(j, previousFrame int) int {
	return m.AddFrame(Frame[S]{
		Name:          m.Names[j],
		Type:          JointFrame,
		ParentJoint:   j,
		PreviousFrame: previousFrame,
		Placement:     spatial.IdentitySE3[S](),
	})
}

// AddBodyFrame registers a body frame attached to joint j.
func (m *Model[S]) AddBodyFrame(name string, j int, placement spatial.SE3[S], previousFrame int) int {
	return m.AddFrame(Frame[S]{Name: name, Type: BodyFrame, ParentJoint: j, PreviousFrame: previousFrame, Placement: placement})
}

// FrameID returns the index of the first frame with the given name and type.
func (m *Model[S]) FrameID(name string, t FrameType) (int, bool) {
	_, idx, ok := lo.FindIndexOf(m.Frames, func(f Frame[S]) bool { return f.Name == name && f.Type == t })
	return idx, ok
}

// JointID returns the index of the named joint.
func (m *Model[S]) JointID(name string) (int, bool) {
	idx := lo.IndexOf(m.Names, name)
	return idx, idx >= 0
}

// Children returns the direct children of joint j in insertion order.
func (m *Model[S]) Children(j int) []int {
	return lo.Filter(lo.Range(len(m.Joints)), func(i, _ int) bool { return i > 0 && m.Parents[i] == j })
}

// Mass returns the total mass carried by the tree.
func (m *Model[S]) Mass() S {
	return lo.Reduce(m.Inertias, func(acc S, in spatial.Inertia[S], _ int) S { return acc.Add(in.Mass) }, scalar.Zero[S]())
}

// Validate checks the structural invariants of the model and reports every violation found.
func (m *Model[S]) Validate() error {
	var err error
	n := len(m.Joints)
	for name, l := range map[string]int{
		"parents":          len(m.Parents),
		"joint placements": len(m.JointPlacements),
		"inertias":         len(m.Inertias),
		"names":            len(m.Names),
	} {
		if l != n {
			err = multierr.Append(err, errors.Errorf("%d %s for %d joints", l, name, n))
		}
	}
	if err != nil {
		return err
	}
	for name, l := range map[string]struct{ got, want int }{
		"effort limits":   {len(m.Effort), m.NV},
		"velocity limits": {len(m.Velocity), m.NV},
		"armature":        {len(m.Armature), m.NV},
		"lower limits":    {len(m.LowerPosition), m.NQ},
		"upper limits":    {len(m.UpperPosition), m.NQ},
	} {
		if l.got != l.want {
			err = multierr.Append(err, errors.Errorf("%d %s, expected %d", l.got, name, l.want))
		}
	}

	nextQ, nextV := 0, 0
	for i := 1; i < n; i++ {
		j := m.Joints[i]
		if p := m.Parents[i]; p < 0 || p >= i {
			err = multierr.Append(err, errors.Errorf("joint %d (%s) has parent %d", i, m.Names[i], p))
		}
		if joint.ID(j) != i {
			err = multierr.Append(err, errors.Errorf("joint %d (%s) has id %d", i, m.Names[i], joint.ID(j)))
		}
		if joint.IdxQ(j) != nextQ || joint.IdxV(j) != nextV {
			err = multierr.Append(err, errors.Errorf(
				"joint %d (%s) starts at q=%d v=%d, expected q=%d v=%d", i, m.Names[i], joint.IdxQ(j), joint.IdxV(j), nextQ, nextV))
		}
		nextQ += joint.NQ(j)
		nextV += joint.NV(j)
	}
	if nextQ != m.NQ || nextV != m.NV {
		err = multierr.Append(err, errors.Errorf("joints cover nq=%d nv=%d, model declares nq=%d nv=%d", nextQ, nextV, m.NQ, m.NV))
	}

	for i := range m.LowerPosition {
		if i < len(m.UpperPosition) && m.UpperPosition[i].Less(m.LowerPosition[i]) {
			err = multierr.Append(err, errors.Errorf("configuration %d has lower limit above upper limit", i))
		}
	}
	for i, in := range m.Inertias {
		if in.Mass.Float() < 0 || !in.Mass.IsFinite() {
			err = multierr.Append(err, errors.Errorf("body %d has invalid mass %v", i, in.Mass.Float()))
		}
	}
	for i, f := range m.Frames {
		if f.ParentJoint < 0 || f.ParentJoint >= n {
			err = multierr.Append(err, errors.Errorf("frame %d (%s) attached to missing joint %d", i, f.Name, f.ParentJoint))
		}
		if f.PreviousFrame < 0 || f.PreviousFrame >= len(m.Frames) {
			err = multierr.Append(err, errors.Errorf("frame %d (%s) follows missing frame %d", i, f.Name, f.PreviousFrame))
		}
	}
	return err
}

// CastModel carries a model over to another scalar type.
func CastModel[To scalar.Scalar[To], From scalar.Scalar[From]](m *Model[From]) (*Model[To], error) {
	out := &Model[To]{
		Name:       m.Name,
		Parents:    append([]int(nil), m.Parents...),
		Names:      append([]string(nil), m.Names...),
		NQ:         m.NQ,
		NV:         m.NV,
		NVExtended: m.NVExtended,
	}
	for i, j := range m.Joints {
		cj, err := joint.CastModel[To](j)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %d (%s)", i, m.Names[i])
		}
		out.Joints = append(out.Joints, cj)
		p, err := spatial.CastSE3[To](m.JointPlacements[i])
		if err != nil {
			return nil, errors.Wrapf(err, "placement of joint %d (%s)", i, m.Names[i])
		}
		out.JointPlacements = append(out.JointPlacements, p)
		in, err := spatial.CastInertia[To](m.Inertias[i])
		if err != nil {
			return nil, errors.Wrapf(err, "inertia of body %d", i)
		}
		out.Inertias = append(out.Inertias, in)
	}
	for _, f := range m.Frames {
		p, err := spatial.CastSE3[To](f.Placement)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %s", f.Name)
		}
		out.Frames = append(out.Frames, Frame[To]{
			Name: f.Name, Type: f.Type, ParentJoint: f.ParentJoint, PreviousFrame: f.PreviousFrame, Placement: p,
		})
	}
	var err error
	for _, v := range []struct {
		dst *[]To
		src []From
	}{
		{&out.Effort, m.Effort},
		{&out.Velocity, m.Velocity},
		{&out.LowerPosition, m.LowerPosition},
		{&out.UpperPosition, m.UpperPosition},
		{&out.Armature, m.Armature},
	} {
		if *v.dst, err = scalar.CastSlice[To](v.src); err != nil {
			return nil, errors.Wrap(err, "limits")
		}
	}
	return out, nil
}

// String renders the joint tree as a table.
func (m *Model[S]) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("model %q: nq=%d nv=%d", m.Name, m.NQ, m.NV))
	t.AppendHeader(table.Row{"#", "Joint", "Type", "Parent", "idx_q", "idx_v", "Mass"})
	for i, j := range m.Joints {
		parent := "-"
		if i > 0 {
			parent = m.Names[m.Parents[i]]
		}
		t.AppendRow(table.Row{
			i, m.Names[i], joint.Shortname(j), parent, joint.IdxQ(j), joint.IdxV(j),
			fmt.Sprintf("%.4g", m.Inertias[i].Mass.Float()),
		})
	}
	return t.Render()
}
