package joint

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
)

func unknownVariant(v any) string {
	return fmt.Sprintf("unknown joint variant %T", v)
}

// Kind returns the joint kind held by m.
func Kind[S scalar.Scalar[S]](m Model[S]) Type {
	switch jm := m.v.(type) {
	case *revoluteModel[S]:
		return jm.kind()
	case *prismaticModel[S]:
		return jm.kind()
	case *freeFlyerModel[S]:
		return FreeFlyer
	case *fixedModel[S]:
		return Fixed
	case *compositeModel[S]:
		return Composite
	default:
		panic(unknownVariant(jm))
	}
}

// NQ returns the dimension of the joint configuration.
func NQ[S scalar.Scalar[S]](m Model[S]) int {
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		return 1
	case *freeFlyerModel[S]:
		return 7
	case *fixedModel[S]:
		return 0
	case *compositeModel[S]:
		return jm.nq
	default:
		panic(unknownVariant(jm))
	}
}

// NV returns the dimension of the joint velocity (tangent space).
func NV[S scalar.Scalar[S]](m Model[S]) int {
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		return 1
	case *freeFlyerModel[S]:
		return 6
	case *fixedModel[S]:
		return 0
	case *compositeModel[S]:
		return jm.nv
	default:
		panic(unknownVariant(jm))
	}
}

// NVExtended returns the dimension of the extended velocity space. It equals NV for every
// supported kind.
func NVExtended[S scalar.Scalar[S]](m Model[S]) int {
	return NV(m)
}

// ID returns the joint index in its model, or -1 before SetIndexes.
func ID[S scalar.Scalar[S]](m Model[S]) int { return m.id }

// IdxQ returns the first index of the joint in the configuration vector.
func IdxQ[S scalar.Scalar[S]](m Model[S]) int { return m.idxQ }

// IdxV returns the first index of the joint in the velocity vector.
func IdxV[S scalar.Scalar[S]](m Model[S]) int { return m.idxV }

// IdxVExtended returns the first index of the joint in the extended velocity vector.
func IdxVExtended[S scalar.Scalar[S]](m Model[S]) int { return m.idxVExt }

// Shortname names the joint kind.
func Shortname[S scalar.Scalar[S]](m Model[S]) string {
	return Kind(m).String()
}

// HasConfigurationLimit reports, per configuration coordinate, whether position limits apply.
func HasConfigurationLimit[S scalar.Scalar[S]](m Model[S]) []bool {
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		return []bool{true}
	case *freeFlyerModel[S]:
		return []bool{true, true, true, false, false, false, false}
	case *fixedModel[S]:
		return []bool{}
	case *compositeModel[S]:
		out := []bool{}
		for _, e := range jm.elements {
			out = append(out, HasConfigurationLimit(e)...)
		}
		return out
	default:
		panic(unknownVariant(jm))
	}
}

// HasConfigurationLimitInTangent reports, per velocity coordinate, whether position limits apply.
func HasConfigurationLimitInTangent[S scalar.Scalar[S]](m Model[S]) []bool {
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		return []bool{true}
	case *freeFlyerModel[S]:
		return []bool{true, true, true, false, false, false}
	case *fixedModel[S]:
		return []bool{}
	case *compositeModel[S]:
		out := []bool{}
		for _, e := range jm.elements {
			out = append(out, HasConfigurationLimitInTangent(e)...)
		}
		return out
	default:
		panic(unknownVariant(jm))
	}
}

// Neutral returns the joint configuration at its origin: zero coordinates and identity
// quaternions.
func Neutral[S scalar.Scalar[S]](m Model[S]) []S {
	z, one := scalar.Zero[S](), scalar.One[S]()
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		return []S{z}
	case *freeFlyerModel[S]:
		return []S{z, z, z, z, z, z, one}
	case *fixedModel[S]:
		return []S{}
	case *compositeModel[S]:
		out := []S{}
		for _, e := range jm.elements {
			out = append(out, Neutral(e)...)
		}
		return out
	default:
		panic(unknownVariant(jm))
	}
}

// SetIndexes assigns the joint id and its offsets in the configuration and velocity vectors. It is
// the only mutator of a Model and may be called once.
func SetIndexes[S scalar.Scalar[S]](m *Model[S], id, idxQ, idxV int) {
	SetIndexesExtended(m, id, idxQ, idxV, idxV)
}

// SetIndexesExtended is SetIndexes with an explicit extended velocity offset.
func SetIndexesExtended[S scalar.Scalar[S]](m *Model[S], id, idxQ, idxV, idxVExt int) {
	if m.indexed {
		panic(fmt.Sprintf("indexes of joint %d already set", m.id))
	}
	if id < 0 || idxQ < 0 || idxV < 0 || idxVExt < 0 {
		panic(fmt.Sprintf("negative joint index (id=%d, q=%d, v=%d, vExt=%d)", id, idxQ, idxV, idxVExt))
	}
	m.id, m.idxQ, m.idxV, m.idxVExt = id, idxQ, idxV, idxVExt
	m.indexed = true
}

// HasSameIndexes compares id and offsets only.
func HasSameIndexes[S scalar.Scalar[S]](a, b Model[S]) bool {
	return a.id == b.id && a.idxQ == b.idxQ && a.idxV == b.idxV && a.idxVExt == b.idxVExt
}

// Equal reports whether both joints have the same kind, parameters and indexes.
func Equal[S scalar.Scalar[S]](a, b Model[S]) bool {
	return paramsEqual(a, b) && HasSameIndexes(a, b)
}

func paramsEqual[S scalar.Scalar[S]](a, b Model[S]) bool {
	switch ja := a.v.(type) {
	case *revoluteModel[S]:
		jb, ok := b.v.(*revoluteModel[S])
		return ok && ja.equal(jb)
	case *prismaticModel[S]:
		jb, ok := b.v.(*prismaticModel[S])
		return ok && ja.axis == jb.axis
	case *freeFlyerModel[S]:
		_, ok := b.v.(*freeFlyerModel[S])
		return ok
	case *fixedModel[S]:
		_, ok := b.v.(*fixedModel[S])
		return ok
	case *compositeModel[S]:
		jb, ok := b.v.(*compositeModel[S])
		return ok && ja.equal(jb)
	default:
		panic(unknownVariant(ja))
	}
}

// CastModel carries a joint over to another scalar type, keeping its indexes.
func CastModel[To scalar.Scalar[To], From scalar.Scalar[From]](m Model[From]) (Model[To], error) {
	var v variant[To]
	switch jm := m.v.(type) {
	case *revoluteModel[From]:
		var dir spatial.Vec3[To]
		for i := range dir {
			c, err := scalar.Cast[To](jm.dir[i])
			if err != nil {
				return Model[To]{}, errors.Wrap(err, "revolute axis")
			}
			dir[i] = c
		}
		v = &revoluteModel[To]{axis: jm.axis, dir: dir}
	case *prismaticModel[From]:
		v = &prismaticModel[To]{axis: jm.axis}
	case *freeFlyerModel[From]:
		v = &freeFlyerModel[To]{}
	case *fixedModel[From]:
		v = &fixedModel[To]{}
	case *compositeModel[From]:
		c := &compositeModel[To]{
			offsetsQ: jm.offsetsQ,
			offsetsV: jm.offsetsV,
			nq:       jm.nq,
			nv:       jm.nv,
		}
		for i, e := range jm.elements {
			ce, err := CastModel[To](e)
			if err != nil {
				return Model[To]{}, errors.Wrapf(err, "composite element %d", i)
			}
			p, err := spatial.CastSE3[To](jm.placements[i])
			if err != nil {
				return Model[To]{}, errors.Wrapf(err, "composite placement %d", i)
			}
			c.elements = append(c.elements, ce)
			c.placements = append(c.placements, p)
		}
		v = c
	default:
		panic(unknownVariant(jm))
	}
	return Model[To]{v: v, id: m.id, idxQ: m.idxQ, idxV: m.idxV, idxVExt: m.idxVExt, indexed: m.indexed}, nil
}

// CreateData allocates the working state of m.
func CreateData[S scalar.Scalar[S]](m Model[S]) *Data[S] {
	switch jm := m.v.(type) {
	case *revoluteModel[S]:
		return jm.createData()
	case *prismaticModel[S]:
		return jm.createData()
	case *freeFlyerModel[S]:
		return jm.createData()
	case *fixedModel[S]:
		return jm.createData()
	case *compositeModel[S]:
		return jm.createData()
	default:
		panic(unknownVariant(jm))
	}
}

func checkData[S scalar.Scalar[S]](m Model[S], d *Data[S]) {
	if k := Kind(m); d.kind != k {
		panic(fmt.Sprintf("joint data of kind %s used with joint model of kind %s", d.kind, k))
	}
}

func checkIndexed[S scalar.Scalar[S]](m Model[S]) {
	if !m.indexed {
		panic(fmt.Sprintf("%s joint used before its indexes were set", Shortname(m)))
	}
}

// CalcZeroOrder computes the joint placement from the global configuration vector q.
func CalcZeroOrder[S scalar.Scalar[S]](m Model[S], d *Data[S], q []S) {
	checkData(m, d)
	checkIndexed(m)
	calcZeroOrderSegment(m, d, q[m.idxQ:m.idxQ+NQ(m)])
}

// CalcFirstOrder computes the placement, velocity and bias from the global vectors q and v.
func CalcFirstOrder[S scalar.Scalar[S]](m Model[S], d *Data[S], q, v []S) {
	checkData(m, d)
	checkIndexed(m)
	calcZeroOrderSegment(m, d, q[m.idxQ:m.idxQ+NQ(m)])
	calcVelocitySegment(m, d, v[m.idxV:m.idxV+NV(m)])
}

// CalcFirstOrderVelocityOnly refreshes velocity and bias, keeping the placement already held in d.
func CalcFirstOrderVelocityOnly[S scalar.Scalar[S]](m Model[S], d *Data[S], _ Blank, v []S) {
	checkData(m, d)
	checkIndexed(m)
	calcVelocitySegment(m, d, v[m.idxV:m.idxV+NV(m)])
}

func calcZeroOrderSegment[S scalar.Scalar[S]](m Model[S], d *Data[S], q []S) {
	switch jm := m.v.(type) {
	case *revoluteModel[S]:
		jm.calcZeroOrder(d, q)
	case *prismaticModel[S]:
		jm.calcZeroOrder(d, q)
	case *freeFlyerModel[S]:
		jm.calcZeroOrder(d, q)
	case *fixedModel[S]:
		jm.calcZeroOrder(d, q)
	case *compositeModel[S]:
		jm.calcZeroOrder(d, q)
	default:
		panic(unknownVariant(jm))
	}
}

func calcVelocitySegment[S scalar.Scalar[S]](m Model[S], d *Data[S], v []S) {
	switch jm := m.v.(type) {
	case *revoluteModel[S]:
		jm.calcVelocity(d, v)
	case *prismaticModel[S]:
		jm.calcVelocity(d, v)
	case *freeFlyerModel[S]:
		jm.calcVelocity(d, v)
	case *fixedModel[S]:
		jm.calcVelocity(d, v)
	case *compositeModel[S]:
		jm.calcVelocity(d, v)
	default:
		panic(unknownVariant(jm))
	}
}

// CalcAba computes the articulated-body terms of the joint given the articulated inertia I of its
// child subtree expressed in the joint output frame: U = I·S, D = Sᵗ·U + diag(armature), D⁻¹ and
// U·D⁻¹. With update set, I is reduced in place to I − U·D⁻¹·Uᵗ. armature is the model-wide vector
// indexed like velocities; nil means no armature.
func CalcAba[S scalar.Scalar[S]](m Model[S], d *Data[S], armature []S, inertia spatial.Matrix[S], update bool) error {
	checkData(m, d)
	checkIndexed(m)
	nv := NV(m)
	if nv == 0 {
		return nil
	}
	u := inertia.Mul(d.s)
	stu := d.s.T().Mul(u)
	if len(armature) > 0 {
		arm := armature[m.idxV : m.idxV+nv]
		for i := 0; i < nv; i++ {
			stu.Set(i, i, stu.At(i, i).Add(arm[i]))
		}
	}
	if err := checkInvertible(stu); err != nil {
		return errors.Wrapf(err, "joint %d", m.id)
	}
	dinv, err := stu.Inverse()
	if err != nil {
		return errors.Wrapf(ErrSingularArticulatedInertia, "joint %d: %v", m.id, err)
	}
	udinv := u.Mul(dinv)

	d.u.CopyFrom(u)
	d.stu.CopyFrom(stu)
	d.dinv.CopyFrom(dinv)
	d.udinv.CopyFrom(udinv)
	if update {
		inertia.CopyFrom(inertia.Sub(udinv.Mul(u.T())))
	}
	return nil
}

// checkInvertible evaluates D and rejects it when non-finite or ill-conditioned.
func checkInvertible[S scalar.Scalar[S]](dm spatial.Matrix[S]) error {
	if !dm.IsFinite() {
		return errors.Wrap(ErrSingularArticulatedInertia, "non-finite entries")
	}
	var lu mat.LU
	lu.Factorize(dm.Dense())
	if cond := lu.Cond(); math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return errors.Wrapf(ErrSingularArticulatedInertia, "condition number %g", cond)
	}
	return nil
}

// Transform returns the placement computed by the last zero-order evaluation.
func Transform[S scalar.Scalar[S]](d *Data[S]) spatial.SE3[S] { return d.m }

// Motion returns the joint spatial velocity, expressed in the output frame.
func Motion[S scalar.Scalar[S]](d *Data[S]) spatial.Motion[S] { return d.v }

// Bias returns the velocity-product acceleration term.
func Bias[S scalar.Scalar[S]](d *Data[S]) spatial.Motion[S] { return d.c }

// MotionSubspace returns S as a dense 6×nv matrix.
func MotionSubspace[S scalar.Scalar[S]](d *Data[S]) spatial.Matrix[S] { return d.s.Clone() }

// UInertia returns U = I·S from the last CalcAba.
func UInertia[S scalar.Scalar[S]](d *Data[S]) spatial.Matrix[S] { return d.u.Clone() }

// DInvInertia returns D⁻¹ from the last CalcAba.
func DInvInertia[S scalar.Scalar[S]](d *Data[S]) spatial.Matrix[S] { return d.dinv.Clone() }

// UDInvInertia returns U·D⁻¹ from the last CalcAba.
func UDInvInertia[S scalar.Scalar[S]](d *Data[S]) spatial.Matrix[S] { return d.udinv.Clone() }

// StUInertia returns D = Sᵗ·U + diag(armature) from the last CalcAba.
func StUInertia[S scalar.Scalar[S]](d *Data[S]) spatial.Matrix[S] { return d.stu.Clone() }

// JointQ returns the configuration segment of the last evaluation.
func JointQ[S scalar.Scalar[S]](d *Data[S]) []S { return append([]S(nil), d.q...) }

// JointV returns the velocity segment of the last evaluation.
func JointV[S scalar.Scalar[S]](d *Data[S]) []S { return append([]S(nil), d.vq...) }

// DataEqual compares two working states value by value.
func DataEqual[S scalar.Scalar[S]](a, b *Data[S]) bool {
	if a.kind != b.kind || len(a.elements) != len(b.elements) {
		return false
	}
	if !se3Equal(a.m, b.m) || !motionEqual(a.v, b.v) || !motionEqual(a.c, b.c) {
		return false
	}
	for _, pair := range [][2]spatial.Matrix[S]{{a.s, b.s}, {a.u, b.u}, {a.dinv, b.dinv}, {a.udinv, b.udinv}, {a.stu, b.stu}} {
		if !pair[0].AlmostEqual(pair[1], 0) {
			return false
		}
	}
	if !slicesEqual(a.q, b.q) || !slicesEqual(a.vq, b.vq) {
		return false
	}
	for i := range a.elements {
		if !DataEqual(a.elements[i], b.elements[i]) {
			return false
		}
	}
	return true
}

// ConfigVectorAffineTransform writes qOut = scaling·qIn + offset over the joint configuration
// segment. Only joints whose configuration space is a vector space support it.
func ConfigVectorAffineTransform[S scalar.Scalar[S]](m Model[S], qIn []S, scaling, offset S, qOut []S) error {
	checkIndexed(m)
	switch jm := m.v.(type) {
	case *revoluteModel[S], *prismaticModel[S]:
		qOut[m.idxQ] = scaling.Mul(qIn[m.idxQ]).Add(offset)
		return nil
	case *freeFlyerModel[S], *fixedModel[S], *compositeModel[S]:
		return errors.Wrapf(ErrUnsupportedAffineTransform, "%s joint %d", Shortname(m), m.id)
	default:
		panic(unknownVariant(jm))
	}
}

// ApplyConstraintOnForce combines Sᵗ·f into r, which has one entry per joint velocity.
func ApplyConstraintOnForce[S scalar.Scalar[S]](d *Data[S], f spatial.Force[S], r []S, op Op) {
	_, nv := d.s.Dims()
	if len(r) != nv {
		panic(fmt.Sprintf("constraint result has %d entries, joint has %d velocities", len(r), nv))
	}
	for j := 0; j < nv; j++ {
		proj := d.s.MotionColumn(j).Dot(f)
		switch op {
		case Assign:
			r[j] = proj
		case Add:
			r[j] = r[j].Add(proj)
		case Rm:
			r[j] = r[j].Sub(proj)
		default:
			panic(fmt.Sprintf("unknown constraint operator %d", op))
		}
	}
}
