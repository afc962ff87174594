package math

import "math"

// Mat4 is a 4x4 matrix stored column by column, the layout glUniformMatrix4fv
// expects without transposing: element (row r, column c) is m[c*4+r].
type Mat4 [16]float32

// Vec4 is a homogeneous 4-component vector.
type Vec4 [4]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a right-handed projection onto GL clip space (depth
// -1 at near, 1 at far). fovY is the vertical field of view in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	depth := 1 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * depth, -1,
		0, 0, 2 * far * near * depth, 0,
	}
}

// LookAt returns the view matrix of a camera at eye looking at center.
// up must not be parallel to the view direction.
func LookAt(eye, center, up Vec3) Mat4 {
	forward := center.Sub(eye).Normalize()
	side := forward.Cross(up).Normalize()
	upward := side.Cross(forward)

	return Mat4{
		side.X, upward.X, -forward.X, 0,
		side.Y, upward.Y, -forward.Y, 0,
		side.Z, upward.Z, -forward.Z, 0,
		-side.Dot(eye), -upward.Dot(eye), forward.Dot(eye), 1,
	}
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r] += m[c*4+r] * v[c]
		}
	}
	return out
}

// Mul returns m * n, the transform that applies n first.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		col := m.MulVec4(Vec4{n[c*4], n[c*4+1], n[c*4+2], n[c*4+3]})
		copy(out[c*4:], col[:])
	}
	return out
}

// Project transforms the point p (w = 1) and divides by the resulting w.
// A zero w is left undivided.
func (m Mat4) Project(p Vec3) Vec3 {
	v := m.MulVec4(Vec4{p.X, p.Y, p.Z, 1})
	if v[3] != 0 {
		return Vec3{v[0] / v[3], v[1] / v[3], v[2] / v[3]}
	}
	return Vec3{v[0], v[1], v[2]}
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	// Gauss-Jordan on [m | I] with partial pivoting, in float64.
	var a [4][8]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			a[r][c] = float64(m[c*4+r])
		}
		a[r][4+r] = 1
	}

	for c := 0; c < 4; c++ {
		pivot := c
		for r := c + 1; r < 4; r++ {
			if math.Abs(a[r][c]) > math.Abs(a[pivot][c]) {
				pivot = r
			}
		}
		if a[pivot][c] == 0 {
			return Identity()
		}
		a[c], a[pivot] = a[pivot], a[c]

		scale := 1 / a[c][c]
		for k := range a[c] {
			a[c][k] *= scale
		}
		for r := 0; r < 4; r++ {
			if f := a[r][c]; r != c && f != 0 {
				for k := range a[r] {
					a[r][k] -= f * a[c][k]
				}
			}
		}
	}

	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = float32(a[r][4+c])
		}
	}
	return out
}

// Ptr returns a pointer to the first element for GL uniform uploads.
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
