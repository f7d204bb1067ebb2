// Package model generates the procedural meshes the demo scene and the renderers draw:
// cubes, planes, spheres and the unit box used as every deferred light volume.
//
// All triangles wind counter-clockwise when seen from outside, which is the front face
// convention of the render state decoding.
package model

import (
	"github.com/chewxy/math32"
)

// Geometry is CPU-side triangle mesh data ready to be marshaled for upload.
type Geometry struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32
}

// BoundingRadius returns the radius of the bounding sphere around the model origin.
func (g Geometry) BoundingRadius() float32 {
	return ComputeBoundingRadius(g.Vertices)
}

// face is one side of a cube: its outward normal and two tangent axes with u x v = n.
type face struct {
	n, u, v [3]float32
}

var cubeFaces = [6]face{
	{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
	{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
}

// quad appends a square of half size h around center c spanned by f, with normals f.n.
func quad(g *Geometry, c [3]float32, f face, h float32) {
	base := uint32(len(g.Vertices))
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, k := range corners {
		var p [3]float32
		for i := range 3 {
			p[i] = c[i] + (f.u[i]*k[0]+f.v[i]*k[1])*h
		}
		g.Vertices = append(g.Vertices, GPUVertex{
			Position: p,
			Normal:   f.n,
			TexCoord: [2]float32{(k[0] + 1) / 2, 1 - (k[1]+1)/2},
		})
	}
	g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Cube creates an axis-aligned cube of edge length size centered at the origin,
// with 24 vertices so every face has its own normal.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Geometry: the cube mesh
func Cube(size float32) Geometry {
	g := Geometry{Name: "cube"}
	h := size / 2
	for _, f := range cubeFaces {
		quad(&g, [3]float32{f.n[0] * h, f.n[1] * h, f.n[2] * h}, f, h)
	}
	return g
}

// Plane creates a square in the XZ plane facing +Y, centered at the origin.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Geometry: the plane mesh
func Plane(size float32) Geometry {
	g := Geometry{Name: "plane"}
	quad(&g, [3]float32{}, cubeFaces[2], size/2)
	return g
}

// Sphere creates a UV sphere centered at the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: the number of latitude bands, at least 2
//   - segments: the number of longitude bands, at least 3
//
// Returns:
//   - Geometry: the sphere mesh
func Sphere(radius float32, rings, segments int) Geometry {
	rings = max(rings, 2)
	segments = max(segments, 3)
	g := Geometry{Name: "sphere"}

	for i := 0; i <= rings; i++ {
		theta := math32.Pi * float32(i) / float32(rings)
		sinT, cosT := math32.Sincos(theta)
		for j := 0; j <= segments; j++ {
			phi := 2 * math32.Pi * float32(j) / float32(segments)
			sinP, cosP := math32.Sincos(phi)
			n := [3]float32{sinT * cosP, cosT, sinT * sinP}
			g.Vertices = append(g.Vertices, GPUVertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
				TexCoord: [2]float32{float32(j) / float32(segments), float32(i) / float32(rings)},
			})
		}
	}

	stride := uint32(segments + 1)
	for i := range uint32(rings) {
		for j := range uint32(segments) {
			a := i*stride + j
			b := a + stride
			g.Indices = append(g.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return g
}

// BoxPositions are the corners of the cube spanning [-1, 1] on every axis.
var BoxPositions = [8][3]float32{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// BoxIndices are the 36 indices of the 12 outward facing triangles of BoxPositions.
var BoxIndices = [36]uint32{
	4, 5, 6, 4, 6, 7, // +z
	0, 2, 1, 0, 3, 2, // -z
	1, 2, 6, 1, 6, 5, // +x
	0, 4, 7, 0, 7, 3, // -x
	3, 7, 6, 3, 6, 2, // +y
	0, 1, 5, 0, 5, 4, // -y
}
