// Package mathutil supplies the quaternion/matrix conversions the animation
// codec needs and the go3d packages do not provide.
package mathutil

import (
	"math"

	"github.com/flywave/go3d/quaternion"
)

// Mat4 is a row-major 4x4 float32 matrix, matching the layout of the
// animation format's rotation blocks.
type Mat4 [4][4]float32

// Ident is the identity matrix.
var Ident = Mat4{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
	{0, 0, 0, 1},
}

// QuatToMat4 converts a unit quaternion (x, y, z, w) to a rotation matrix.
func QuatToMat4(q quaternion.T) Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat4{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy), 0},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx), 0},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy), 0},
		{0, 0, 0, 1},
	}
}

// Mat4ToQuat extracts the rotation of m as a unit quaternion, discarding any
// scale or skew. The branch on the largest diagonal term keeps the division
// numerically safe for every rotation.
func Mat4ToQuat(m Mat4) quaternion.T {
	trace := float64(m[0][0] + m[1][1] + m[2][2])

	var q quaternion.T
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q[0] = float32(float64(m[2][1]-m[1][2]) / s)
		q[1] = float32(float64(m[0][2]-m[2][0]) / s)
		q[2] = float32(float64(m[1][0]-m[0][1]) / s)
		q[3] = float32(s / 4)
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+float64(m[0][0]-m[1][1]-m[2][2])) * 2
		q[0] = float32(s / 4)
		q[1] = float32(float64(m[0][1]+m[1][0]) / s)
		q[2] = float32(float64(m[0][2]+m[2][0]) / s)
		q[3] = float32(float64(m[2][1]-m[1][2]) / s)
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+float64(m[1][1]-m[0][0]-m[2][2])) * 2
		q[0] = float32(float64(m[0][1]+m[1][0]) / s)
		q[1] = float32(s / 4)
		q[2] = float32(float64(m[1][2]+m[2][1]) / s)
		q[3] = float32(float64(m[0][2]-m[2][0]) / s)
	default:
		s := math.Sqrt(1+float64(m[2][2]-m[0][0]-m[1][1])) * 2
		q[0] = float32(float64(m[0][2]+m[2][0]) / s)
		q[1] = float32(float64(m[1][2]+m[2][1]) / s)
		q[2] = float32(s / 4)
		q[3] = float32(float64(m[1][0]-m[0][1]) / s)
	}

	return Normalize(q)
}

// Normalize returns q scaled to unit length. A zero quaternion normalizes to
// the identity.
func Normalize(q quaternion.T) quaternion.T {
	norm := math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]))
	if norm == 0 {
		return quaternion.Ident
	}
	inv := float32(1 / norm)
	return quaternion.T{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}
