package spatial

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/multibody/scalar"
)

// ErrSingularMatrix is returned when a matrix has no inverse.
var ErrSingularMatrix = errors.New("matrix is singular")

// Matrix is a dense row-major matrix of scalars. It is the generic counterpart of mat.Dense: gonum
// only stores float64, so anything that must carry derivatives lives here and is evaluated to a
// mat.Dense when a float view is needed.
type Matrix[S scalar.Scalar[S]] struct {
	rows, cols int
	data       []S
}

// NewMatrix returns a zero r×c matrix. Zero-sized dimensions are allowed.
func NewMatrix[S scalar.Scalar[S]](r, c int) Matrix[S] {
	if r < 0 || c < 0 {
		panic(fmt.Sprintf("negative matrix dimension %dx%d", r, c))
	}
	data := make([]S, r*c)
	z := scalar.Zero[S]()
	for i := range data {
		data[i] = z
	}
	return Matrix[S]{rows: r, cols: c, data: data}
}

// IdentityMatrix returns the n×n identity.
func IdentityMatrix[S scalar.Scalar[S]](n int) Matrix[S] {
	m := NewMatrix[S](n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, scalar.One[S]())
	}
	return m
}

// MatrixFromFloats builds an r×c matrix from row-major doubles.
func MatrixFromFloats[S scalar.Scalar[S]](r, c int, vals []float64) Matrix[S] {
	if len(vals) != r*c {
		panic(fmt.Sprintf("%d values for a %dx%d matrix", len(vals), r, c))
	}
	return Matrix[S]{rows: r, cols: c, data: scalar.FromFloats[S](vals)}
}

// Dims returns the number of rows and columns.
func (m Matrix[S]) Dims() (int, int) { return m.rows, m.cols }

// At returns the element at row i, column j.
func (m Matrix[S]) At(i, j int) S {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

// Set sets the element at row i, column j.
func (m Matrix[S]) Set(i, j int, v S) {
	m.check(i, j)
	m.data[i*m.cols+j] = v
}

func (m Matrix[S]) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// Column copies out column j.
func (m Matrix[S]) Column(j int) []S {
	out := make([]S, m.rows)
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}

// SetColumn overwrites column j.
func (m Matrix[S]) SetColumn(j int, v []S) {
	if len(v) != m.rows {
		panic(fmt.Sprintf("column of length %d for %d rows", len(v), m.rows))
	}
	for i, x := range v {
		m.Set(i, j, x)
	}
}

// MotionColumn reads column j of a 6-row matrix as a twist.
func (m Matrix[S]) MotionColumn(j int) Motion[S] {
	return MotionFromVector(m.Column(j))
}

// SetBlock3 writes a 3×3 block with its top-left corner at (i, j).
func (m Matrix[S]) SetBlock3(i, j int, b Mat3[S]) {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(i+r, j+c, b[r][c])
		}
	}
}

// Clone returns a deep copy.
func (m Matrix[S]) Clone() Matrix[S] {
	data := make([]S, len(m.data))
	copy(data, m.data)
	return Matrix[S]{rows: m.rows, cols: m.cols, data: data}
}

// CopyFrom overwrites m with o, which must have the same shape.
func (m Matrix[S]) CopyFrom(o Matrix[S]) {
	m.sameShape(o)
	copy(m.data, o.data)
}

func (m Matrix[S]) sameShape(o Matrix[S]) {
	if m.rows != o.rows || m.cols != o.cols {
		panic(fmt.Sprintf("shape mismatch %dx%d vs %dx%d", m.rows, m.cols, o.rows, o.cols))
	}
}

// T returns the transpose.
func (m Matrix[S]) T() Matrix[S] {
	out := NewMatrix[S](m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// Add returns m+o.
func (m Matrix[S]) Add(o Matrix[S]) Matrix[S] {
	m.sameShape(o)
	out := m.Clone()
	for i := range out.data {
		out.data[i] = out.data[i].Add(o.data[i])
	}
	return out
}

// Sub returns m-o.
func (m Matrix[S]) Sub(o Matrix[S]) Matrix[S] {
	m.sameShape(o)
	out := m.Clone()
	for i := range out.data {
		out.data[i] = out.data[i].Sub(o.data[i])
	}
	return out
}

// Scale returns s*m.
func (m Matrix[S]) Scale(s S) Matrix[S] {
	out := m.Clone()
	for i := range out.data {
		out.data[i] = out.data[i].Mul(s)
	}
	return out
}

// Mul returns the product m·o.
func (m Matrix[S]) Mul(o Matrix[S]) Matrix[S] {
	if m.cols != o.rows {
		panic(fmt.Sprintf("cannot multiply %dx%d by %dx%d", m.rows, m.cols, o.rows, o.cols))
	}
	out := NewMatrix[S](m.rows, o.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < o.cols; j++ {
			acc := scalar.Zero[S]()
			for k := 0; k < m.cols; k++ {
				acc = acc.Add(m.At(i, k).Mul(o.At(k, j)))
			}
			out.Set(i, j, acc)
		}
	}
	return out
}

// MulVec returns m·v.
func (m Matrix[S]) MulVec(v []S) []S {
	if len(v) != m.cols {
		panic(fmt.Sprintf("cannot multiply %dx%d by vector of length %d", m.rows, m.cols, len(v)))
	}
	out := make([]S, m.rows)
	for i := range out {
		acc := scalar.Zero[S]()
		for k, x := range v {
			acc = acc.Add(m.At(i, k).Mul(x))
		}
		out[i] = acc
	}
	return out
}

// Inverse inverts a square matrix by Gauss-Jordan elimination with partial pivoting.
func (m Matrix[S]) Inverse() (Matrix[S], error) {
	if m.rows != m.cols {
		panic(fmt.Sprintf("cannot invert non-square %dx%d matrix", m.rows, m.cols))
	}
	n := m.rows
	a := m.Clone()
	inv := IdentityMatrix[S](n)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if scalar.Abs(a.At(pivot, col)).Less(scalar.Abs(a.At(r, col))) {
				pivot = r
			}
		}
		if a.At(pivot, col).Float() == 0 {
			return Matrix[S]{}, errors.Wrapf(ErrSingularMatrix, "zero pivot in column %d", col)
		}
		a.swapRows(col, pivot)
		inv.swapRows(col, pivot)
		p := a.At(col, col)
		for j := 0; j < n; j++ {
			a.Set(col, j, a.At(col, j).Div(p))
			inv.Set(col, j, inv.At(col, j).Div(p))
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := a.At(r, col)
			for j := 0; j < n; j++ {
				a.Set(r, j, a.At(r, j).Sub(f.Mul(a.At(col, j))))
				inv.Set(r, j, inv.At(r, j).Sub(f.Mul(inv.At(col, j))))
			}
		}
	}
	return inv, nil
}

func (m Matrix[S]) swapRows(i, j int) {
	if i == j {
		return
	}
	for c := 0; c < m.cols; c++ {
		a, b := m.At(i, c), m.At(j, c)
		m.Set(i, c, b)
		m.Set(j, c, a)
	}
}

// Dense evaluates the matrix to a gonum matrix. It returns nil for an empty matrix since gonum
// does not represent zero-sized matrices.
func (m Matrix[S]) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return nil
	}
	return mat.NewDense(m.rows, m.cols, scalar.Floats(m.data))
}

// IsFinite reports whether every entry is finite.
func (m Matrix[S]) IsFinite() bool {
	for _, x := range m.data {
		if !x.IsFinite() {
			return false
		}
	}
	return true
}

// AlmostEqual compares shape and entries within tol.
func (m Matrix[S]) AlmostEqual(o Matrix[S], tol float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		d := m.data[i].Float() - o.data[i].Float()
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}
