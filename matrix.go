package texsource

import (
	"fmt"
	"math"
)

// Matrix is a 4x4 transformation matrix in row-major order, applied to
// column vectors:
//
//	| m[0][0] m[0][1] m[0][2] m[0][3] |   | x |
//	| m[1][0] m[1][1] m[1][2] m[1][3] | * | y |
//	| m[2][0] m[2][1] m[2][2] m[2][3] |   | z |
//	| m[3][0] m[3][1] m[3][2] m[3][3] |   | 1 |
//
// Transformers use it to map destination normalized coordinates to source
// normalized coordinates. Only the 2D affine part is meaningful; z passes
// through unchanged.
type Matrix [4][4]float64

// The normalized coordinate space is centered before rotating and scaling
// and moved back afterwards.
var (
	popMatrix  = Translate(0.5, 0.5, 0)
	pushMatrix = Translate(-0.5, -0.5, 0)
)

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate creates a translation matrix.
func Translate(x, y, z float64) Matrix {
	m := Identity()
	m[0][3] = x
	m[1][3] = y
	m[2][3] = z
	return m
}

// Scale creates a scaling matrix.
func Scale(x, y, z float64) Matrix {
	m := Identity()
	m[0][0] = x
	m[1][1] = y
	m[2][2] = z
	return m
}

// RotateZ creates a rotation about the z axis by the given angle in degrees.
// Multiples of 90 degrees produce exact matrices.
func RotateZ(degrees float64) Matrix {
	sin, cos := sincosDegrees(degrees)
	m := Identity()
	m[0][0] = cos
	m[0][1] = -sin
	m[1][0] = sin
	m[1][1] = cos
	return m
}

// TRS creates translate * rotate * scale.
func TRS(offset Vec2, degrees float64, scale Vec2) Matrix {
	return Translate(offset.X, offset.Y, 0).
		Mul(RotateZ(degrees)).
		Mul(Scale(scale.X, scale.Y, 1))
}

// NewTransform builds the sampling matrix for an offset, a clockwise
// rotation in degrees and per-axis scale factors, all expressed in
// normalized coordinates around the image center:
//
//	Pop * TRS(-offset, -rotation, 1/scale) * Push
//
// A negative scale component mirrors that axis. A zero or non-finite scale
// component returns ErrConfiguration.
func NewTransform(offset Vec2, rotationDegrees float64, scale Vec2) (Matrix, error) {
	if !validScale(scale.X) || !validScale(scale.Y) {
		return Matrix{}, fmt.Errorf("%w: scale (%g, %g) must be finite and non-zero",
			ErrConfiguration, scale.X, scale.Y)
	}
	trs := TRS(offset.Neg(), -rotationDegrees, Vec2{X: 1 / scale.X, Y: 1 / scale.Y})
	return popMatrix.Mul(trs).Mul(pushMatrix), nil
}

// CenterAround wraps m so it acts around the image center: Pop * m * Push.
// AR display matrices are delivered in this centered form.
func CenterAround(m Matrix) Matrix {
	return popMatrix.Mul(m).Mul(pushMatrix)
}

func validScale(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Mul returns m * n (n is applied first).
func (m Matrix) Mul(n Matrix) Matrix {
	var r Matrix
	for i := range 4 {
		for j := range 4 {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j] + m[i][3]*n[3][j]
		}
	}
	return r
}

// Transpose returns the transposed matrix.
func (m Matrix) Transpose() Matrix {
	var r Matrix
	for i := range 4 {
		for j := range 4 {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// TransformPoint applies the matrix to the point (x, y, 0, 1).
func (m Matrix) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][3],
	}
}

// Determinant2D returns the determinant of the 2x2 linear part.
func (m Matrix) Determinant2D() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Invert returns the inverse of the 2D affine part of m.
// The second result is false when the linear part is singular.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant2D()
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	inv := Identity()
	inv[0][0] = m[1][1] / det
	inv[0][1] = -m[0][1] / det
	inv[1][0] = -m[1][0] / det
	inv[1][1] = m[0][0] / det
	inv[0][3] = -(inv[0][0]*m[0][3] + inv[0][1]*m[1][3])
	inv[1][3] = -(inv[1][0]*m[0][3] + inv[1][1]*m[1][3])
	return inv, true
}

// IsIdentity reports whether m is the identity within a small tolerance.
func (m Matrix) IsIdentity() bool {
	return m.ApproxEqual(Identity(), 1e-9)
}

// ApproxEqual reports whether every element of m and n differs by at most eps.
func (m Matrix) ApproxEqual(n Matrix, eps float64) bool {
	for i := range 4 {
		for j := range 4 {
			if math.Abs(m[i][j]-n[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// ColumnMajor32 returns the matrix as float32 in column-major order, the
// layout of a WGSL mat4x4<f32>.
func (m Matrix) ColumnMajor32() [16]float32 {
	var out [16]float32
	for col := range 4 {
		for row := range 4 {
			out[col*4+row] = float32(m[row][col])
		}
	}
	return out
}

// sincosDegrees returns exact values for multiples of 90 degrees.
func sincosDegrees(degrees float64) (sin, cos float64) {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}
