package spatial

import (
	"fmt"

	"go.viam.com/multibody/scalar"
)

// Motion is a spatial velocity (twist): linear velocity of the point at the frame origin and
// angular velocity.
type Motion[S scalar.Scalar[S]] struct {
	Linear  Vec3[S]
	Angular Vec3[S]
}

// Force is a spatial force (wrench): force and torque about the frame origin.
type Force[S scalar.Scalar[S]] struct {
	Linear  Vec3[S]
	Angular Vec3[S]
}

// ZeroMotion returns the null twist.
func ZeroMotion[S scalar.Scalar[S]]() Motion[S] {
	return Motion[S]{Linear: ZeroVec3[S](), Angular: ZeroVec3[S]()}
}

// ZeroForce returns the null wrench.
func ZeroForce[S scalar.Scalar[S]]() Force[S] {
	return Force[S]{Linear: ZeroVec3[S](), Angular: ZeroVec3[S]()}
}

// MotionFromVector builds a twist from a 6-vector ordered linear then angular.
func MotionFromVector[S scalar.Scalar[S]](v []S) Motion[S] {
	if len(v) != 6 {
		panic(fmt.Sprintf("motion vector must have 6 entries, got %d", len(v)))
	}
	return Motion[S]{Linear: Vec3[S]{v[0], v[1], v[2]}, Angular: Vec3[S]{v[3], v[4], v[5]}}
}

// ForceFromVector builds a wrench from a 6-vector ordered force then torque.
func ForceFromVector[S scalar.Scalar[S]](v []S) Force[S] {
	if len(v) != 6 {
		panic(fmt.Sprintf("force vector must have 6 entries, got %d", len(v)))
	}
	return Force[S]{Linear: Vec3[S]{v[0], v[1], v[2]}, Angular: Vec3[S]{v[3], v[4], v[5]}}
}

// Vector flattens the twist.
func (m Motion[S]) Vector() []S {
	return []S{m.Linear[0], m.Linear[1], m.Linear[2], m.Angular[0], m.Angular[1], m.Angular[2]}
}

// Add returns m+o.
func (m Motion[S]) Add(o Motion[S]) Motion[S] {
	return Motion[S]{Linear: m.Linear.Add(o.Linear), Angular: m.Angular.Add(o.Angular)}
}

// Sub returns m-o.
func (m Motion[S]) Sub(o Motion[S]) Motion[S] {
	return Motion[S]{Linear: m.Linear.Sub(o.Linear), Angular: m.Angular.Sub(o.Angular)}
}

// Neg returns -m.
func (m Motion[S]) Neg() Motion[S] {
	return Motion[S]{Linear: m.Linear.Neg(), Angular: m.Angular.Neg()}
}

// Scale returns s*m.
func (m Motion[S]) Scale(s S) Motion[S] {
	return Motion[S]{Linear: m.Linear.Scale(s), Angular: m.Angular.Scale(s)}
}

// Cross is the motion cross product m ×ₘ o.
func (m Motion[S]) Cross(o Motion[S]) Motion[S] {
	return Motion[S]{
		Linear:  m.Angular.Cross(o.Linear).Add(m.Linear.Cross(o.Angular)),
		Angular: m.Angular.Cross(o.Angular),
	}
}

// CrossForce is the dual cross product m ×* f.
func (m Motion[S]) CrossForce(f Force[S]) Force[S] {
	return Force[S]{
		Linear:  m.Angular.Cross(f.Linear),
		Angular: m.Angular.Cross(f.Angular).Add(m.Linear.Cross(f.Linear)),
	}
}

// Dot is the power pairing of a twist with a wrench.
func (m Motion[S]) Dot(f Force[S]) S {
	return m.Linear.Dot(f.Linear).Add(m.Angular.Dot(f.Angular))
}

// AlmostEqual compares entry-wise within tol.
func (m Motion[S]) AlmostEqual(o Motion[S], tol float64) bool {
	return m.Linear.R3().Sub(o.Linear.R3()).Norm() <= tol && m.Angular.R3().Sub(o.Angular.R3()).Norm() <= tol
}

// Vector flattens the wrench.
func (f Force[S]) Vector() []S {
	return []S{f.Linear[0], f.Linear[1], f.Linear[2], f.Angular[0], f.Angular[1], f.Angular[2]}
}

// Add returns f+o.
func (f Force[S]) Add(o Force[S]) Force[S] {
	return Force[S]{Linear: f.Linear.Add(o.Linear), Angular: f.Angular.Add(o.Angular)}
}

// Sub returns f-o.
func (f Force[S]) Sub(o Force[S]) Force[S] {
	return Force[S]{Linear: f.Linear.Sub(o.Linear), Angular: f.Angular.Sub(o.Angular)}
}

// Scale returns s*f.
func (f Force[S]) Scale(s S) Force[S] {
	return Force[S]{Linear: f.Linear.Scale(s), Angular: f.Angular.Scale(s)}
}
