package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the VertexInput struct of the mesh vertex shaders (locations 0, 1 and 2).
// Size: 32 bytes, no padding required.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// GPUVertexSize is the byte size of one marshaled GPUVertex.
const GPUVertexSize = 32

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex into buf, which must hold at least GPUVertexSize bytes.
//
// Parameters:
//   - buf: the destination buffer
func (g *GPUVertex) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
}

// VertexLayout returns the backend layout matching GPUVertex.
//
// Returns:
//   - backend.VertexLayout: position, normal and one texture coordinate
func VertexLayout() backend.VertexLayout {
	return backend.NewVertexLayout(
		backend.VertexAttrib{Attrib: backend.AttribPosition, Num: 3},
		backend.VertexAttrib{Attrib: backend.AttribNormal, Num: 3},
		backend.VertexAttrib{Attrib: backend.AttribTexCoord0, Num: 2},
	)
}

// PositionLayout returns the backend layout of a position-only vertex stream.
//
// Returns:
//   - backend.VertexLayout: three float32 positions
func PositionLayout() backend.VertexLayout {
	return backend.NewVertexLayout(backend.VertexAttrib{Attrib: backend.AttribPosition, Num: 3})
}

// MarshalVertices serializes vertices into one tightly packed buffer.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * GPUVertexSize bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexSize)
	for i := range vertices {
		vertices[i].Marshal(buf[i*GPUVertexSize:])
	}
	return buf
}

// MarshalPositions serializes bare positions into one tightly packed buffer.
//
// Parameters:
//   - positions: the positions to serialize
//
// Returns:
//   - []byte: len(positions) * 12 bytes
func MarshalPositions(positions [][3]float32) []byte {
	buf := make([]byte, len(positions)*12)
	for i, p := range positions {
		binary.LittleEndian.PutUint32(buf[i*12:], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(buf[i*12+4:], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(buf[i*12+8:], math.Float32bits(p[2]))
	}
	return buf
}

// MarshalIndices serializes indices as uint16 when every index fits, uint32 otherwise.
//
// Parameters:
//   - indices: the triangle indices
//
// Returns:
//   - []byte: the index data
//   - bool: true when the data holds uint32 indices
func MarshalIndices(indices []uint32) ([]byte, bool) {
	var largest uint32
	for _, i := range indices {
		largest = max(largest, i)
	}
	if largest <= math.MaxUint16 {
		buf := make([]byte, len(indices)*2)
		for i, v := range indices {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		}
		return buf, false
	}
	buf := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf, true
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of vertex
// positions. The radius is the maximum distance from the origin across all vertices.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
