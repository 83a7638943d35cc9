// Package spatial implements the 6D spatial algebra used by rigid-body kinematics and dynamics:
// rigid transforms, motions (twists), forces (wrenches) and spatial inertias. Every type is generic
// over the scalar so that the same code serves plain doubles and automatic differentiation.
//
// Spatial 6-vectors are ordered linear part first, angular part second.
package spatial

import (
	"github.com/golang/geo/r3"

	"go.viam.com/multibody/scalar"
)

// Vec3 is a 3-vector of scalars.
type Vec3[S scalar.Scalar[S]] [3]S

// ZeroVec3 returns the zero vector.
func ZeroVec3[S scalar.Scalar[S]]() Vec3[S] {
	z := scalar.Zero[S]()
	return Vec3[S]{z, z, z}
}

// NewVec3 builds a vector from doubles.
func NewVec3[S scalar.Scalar[S]](x, y, z float64) Vec3[S] {
	return Vec3[S]{scalar.Of[S](x), scalar.Of[S](y), scalar.Of[S](z)}
}

// Vec3FromR3 converts an r3.Vector.
func Vec3FromR3[S scalar.Scalar[S]](v r3.Vector) Vec3[S] {
	return NewVec3[S](v.X, v.Y, v.Z)
}

// UnitVec3 returns the canonical basis vector along axis 0, 1 or 2.
func UnitVec3[S scalar.Scalar[S]](axis int) Vec3[S] {
	v := ZeroVec3[S]()
	v[axis] = scalar.One[S]()
	return v
}

// R3 evaluates the vector to an r3.Vector.
func (v Vec3[S]) R3() r3.Vector {
	return r3.Vector{X: v[0].Float(), Y: v[1].Float(), Z: v[2].Float()}
}

// Add returns v+o.
func (v Vec3[S]) Add(o Vec3[S]) Vec3[S] {
	return Vec3[S]{v[0].Add(o[0]), v[1].Add(o[1]), v[2].Add(o[2])}
}

// Sub returns v-o.
func (v Vec3[S]) Sub(o Vec3[S]) Vec3[S] {
	return Vec3[S]{v[0].Sub(o[0]), v[1].Sub(o[1]), v[2].Sub(o[2])}
}

// Neg returns -v.
func (v Vec3[S]) Neg() Vec3[S] {
	return Vec3[S]{v[0].Neg(), v[1].Neg(), v[2].Neg()}
}

// Scale returns s*v.
func (v Vec3[S]) Scale(s S) Vec3[S] {
	return Vec3[S]{v[0].Mul(s), v[1].Mul(s), v[2].Mul(s)}
}

// Dot returns the inner product.
func (v Vec3[S]) Dot(o Vec3[S]) S {
	return v[0].Mul(o[0]).Add(v[1].Mul(o[1])).Add(v[2].Mul(o[2]))
}

// Cross returns v × o.
func (v Vec3[S]) Cross(o Vec3[S]) Vec3[S] {
	return Vec3[S]{
		v[1].Mul(o[2]).Sub(v[2].Mul(o[1])),
		v[2].Mul(o[0]).Sub(v[0].Mul(o[2])),
		v[0].Mul(o[1]).Sub(v[1].Mul(o[0])),
	}
}

// Norm returns the Euclidean norm.
func (v Vec3[S]) Norm() S {
	return v.Dot(v).Sqrt()
}

// Normalize returns v scaled to unit length. It panics on the zero vector.
func (v Vec3[S]) Normalize() Vec3[S] {
	n := v.Norm()
	if n.Float() == 0 {
		panic("cannot normalize zero vector")
	}
	return Vec3[S]{v[0].Div(n), v[1].Div(n), v[2].Div(n)}
}

// Mat3 is a row-major 3×3 matrix of scalars.
type Mat3[S scalar.Scalar[S]] [3][3]S

// ZeroMat3 returns the zero matrix.
func ZeroMat3[S scalar.Scalar[S]]() Mat3[S] {
	z := scalar.Zero[S]()
	return Mat3[S]{{z, z, z}, {z, z, z}, {z, z, z}}
}

// IdentityMat3 returns the identity matrix.
func IdentityMat3[S scalar.Scalar[S]]() Mat3[S] {
	m := ZeroMat3[S]()
	one := scalar.One[S]()
	m[0][0], m[1][1], m[2][2] = one, one, one
	return m
}

// Skew returns the cross-product matrix [v]× such that Skew(v)·w == v × w.
func Skew[S scalar.Scalar[S]](v Vec3[S]) Mat3[S] {
	z := scalar.Zero[S]()
	return Mat3[S]{
		{z, v[2].Neg(), v[1]},
		{v[2], z, v[0].Neg()},
		{v[1].Neg(), v[0], z},
	}
}

// AxisAngle returns the rotation of angle theta about the unit axis (Rodrigues' formula).
func AxisAngle[S scalar.Scalar[S]](axis Vec3[S], theta S) Mat3[S] {
	return rodrigues(axis, theta.Sin(), theta.Cos())
}

func rodrigues[S scalar.Scalar[S]](axis Vec3[S], s, c S) Mat3[S] {
	k := Skew(axis)
	oneMinusC := scalar.One[S]().Sub(c)
	return IdentityMat3[S]().Add(k.Scale(s)).Add(k.Mul(k).Scale(oneMinusC))
}

// Add returns m+o.
func (m Mat3[S]) Add(o Mat3[S]) Mat3[S] {
	var r Mat3[S]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j].Add(o[i][j])
		}
	}
	return r
}

// Sub returns m-o.
func (m Mat3[S]) Sub(o Mat3[S]) Mat3[S] {
	var r Mat3[S]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j].Sub(o[i][j])
		}
	}
	return r
}

// Scale returns s*m.
func (m Mat3[S]) Scale(s S) Mat3[S] {
	var r Mat3[S]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j].Mul(s)
		}
	}
	return r
}

// Mul returns the matrix product m·o.
func (m Mat3[S]) Mul(o Mat3[S]) Mat3[S] {
	var r Mat3[S]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0].Mul(o[0][j]).Add(m[i][1].Mul(o[1][j])).Add(m[i][2].Mul(o[2][j]))
		}
	}
	return r
}

// MulVec returns m·v.
func (m Mat3[S]) MulVec(v Vec3[S]) Vec3[S] {
	return Vec3[S]{
		m[0][0].Mul(v[0]).Add(m[0][1].Mul(v[1])).Add(m[0][2].Mul(v[2])),
		m[1][0].Mul(v[0]).Add(m[1][1].Mul(v[1])).Add(m[1][2].Mul(v[2])),
		m[2][0].Mul(v[0]).Add(m[2][1].Mul(v[1])).Add(m[2][2].Mul(v[2])),
	}
}

// T returns the transpose.
func (m Mat3[S]) T() Mat3[S] {
	var r Mat3[S]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Trace returns the sum of the diagonal.
func (m Mat3[S]) Trace() S {
	return m[0][0].Add(m[1][1]).Add(m[2][2])
}

// Floats evaluates the matrix row-major.
func (m Mat3[S]) Floats() [9]float64 {
	var r [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = m[i][j].Float()
		}
	}
	return r
}
