package tilegrid

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vertex is one corner of the shared tile quad.
//
// GPU layout (VertexStride bytes, stepped per vertex):
//
//	Pos   (vec2<i32>) = 8 bytes  (location 0)
//	Color (vec4<f32>) = 16 bytes (location 1)
type Vertex struct {
	Pos   [2]int32
	Color [4]float32
}

// VertexStride is the byte stride of one Vertex in the geometry buffer.
const VertexStride = 24

// QuadIndices triangulates the quad into two triangles: (0,1,2) and (1,3,2).
var QuadIndices = [6]uint16{0, 1, 2, 1, 3, 2}

// Quad returns the four vertices of a tile spanning [0,tileSize] x [0,tileSize]
// in local pixel space. Vertex 0 is the bottom-left corner, 1 bottom-right,
// 2 top-left and 3 top-right (y grows downward).
//
// After the y-flip of ViewportOrtho both triangles of QuadIndices wind
// counter-clockwise, so they survive CullBack.
func Quad(tileSize int32) [4]Vertex {
	red := RGB(1, 0, 0).Float32()
	green := RGB(0, 1, 0).Float32()
	blue := RGB(0, 0, 1).Float32()
	return [4]Vertex{
		{Pos: [2]int32{0, tileSize}, Color: red},
		{Pos: [2]int32{tileSize, tileSize}, Color: green},
		{Pos: [2]int32{0, 0}, Color: blue},
		{Pos: [2]int32{tileSize, 0}, Color: red},
	}
}

// ValidateGeometry checks that indices triangulate the vertex set: a whole
// number of triangles, each index referencing an existing vertex.
func ValidateGeometry(vertices []Vertex, indices []uint16) error {
	if len(vertices) == 0 {
		return fmt.Errorf("geometry has no vertices")
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a positive multiple of 3", len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("index %d references vertex %d of %d", i, idx, len(vertices))
		}
	}
	return nil
}

// VertexBytes packs vertices into the little-endian geometry buffer layout.
func VertexBytes(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		b := buf[i*VertexStride:]
		binary.LittleEndian.PutUint32(b[0:4], uint32(v.Pos[0]))   //nolint:gosec // two's complement bit pattern
		binary.LittleEndian.PutUint32(b[4:8], uint32(v.Pos[1]))   //nolint:gosec // two's complement bit pattern
		binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Color[0]))
		binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(v.Color[1]))
		binary.LittleEndian.PutUint32(b[16:20], math.Float32bits(v.Color[2]))
		binary.LittleEndian.PutUint32(b[20:24], math.Float32bits(v.Color[3]))
	}
	return buf
}

// IndexBytes packs 16-bit indices little-endian. The result is padded to a
// multiple of 4 bytes, as buffer writes require.
func IndexBytes(indices []uint16) []byte {
	n := len(indices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
