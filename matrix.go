package tilegrid

import (
	"encoding/binary"
	"math"
)

// Matrix4 is a 4x4 transform stored in column-major order, the layout WGSL
// expects for a mat4x4<f32> uniform:
//
//	| M[0]  M[4]  M[8]   M[12] |
//	| M[1]  M[5]  M[9]   M[13] |
//	| M[2]  M[6]  M[10]  M[14] |
//	| M[3]  M[7]  M[11]  M[15] |
type Matrix4 [16]float32

// Matrix4Size is the byte size of a Matrix4 uniform.
const Matrix4Size = 64

// identity4 returns the 4x4 identity matrix.
func identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an orthographic projection mapping the box
// [left,right] x [bottom,top] x [near,far] to normalized device coordinates
// with depth in [0, 1].
func Ortho(left, right, bottom, top, near, far float32) Matrix4 {
	rl := right - left
	tb := top - bottom
	fn := far - near
	return Matrix4{
		2 / rl, 0, 0, 0,
		0, 2 / tb, 0, 0,
		0, 0, -1 / fn, 0,
		-(right + left) / rl, -(top + bottom) / tb, -near / fn, 1,
	}
}

// ViewportOrtho returns the projection for a width x height pixel viewport
// with the origin at the top-left corner and y growing downward.
func ViewportOrtho(width, height int) Matrix4 {
	return Ortho(0, float32(width), float32(height), 0, -1, 1)
}

// multiply returns m * other.
func (m Matrix4) multiply(other Matrix4) Matrix4 {
	var out Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// transformPoint applies the matrix to the point (x, y, 0, 1) and returns the
// resulting x, y and z.
func (m Matrix4) transformPoint(x, y float32) (float32, float32, float32) {
	return m[0]*x + m[4]*y + m[12],
		m[1]*x + m[5]*y + m[13],
		m[2]*x + m[6]*y + m[14]
}

// Bytes returns the little-endian encoding of the matrix for uniform upload.
func (m Matrix4) Bytes() []byte {
	buf := make([]byte, Matrix4Size)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
