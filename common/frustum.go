package common

import (
	"github.com/chewxy/math32"
)

// Plane is ax + by + cz + d = 0, with (a, b, c) = Normal and d = Distance.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum holds the six clip planes of a view-projection matrix.
// The positive half-space of every plane is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts normalized frustum planes from a view-projection matrix
// (Gribb/Hartmann). The near plane uses the WebGPU [0, 1] depth range, so it is row 2 alone.
//
// Parameters:
//   - viewProj: the combined projection * view matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with unit-length plane normals
func ExtractFrustum(viewProj Mat4) Frustum {
	// row r of a column-major matrix is (m[r], m[4+r], m[8+r], m[12+r])
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[FrustumLeft] = makePlane(r3, r0, 1)
	f.Planes[FrustumRight] = makePlane(r3, r0, -1)
	f.Planes[FrustumBottom] = makePlane(r3, r1, 1)
	f.Planes[FrustumTop] = makePlane(r3, r1, -1)
	f.Planes[FrustumNear] = makePlane([4]float32{}, r2, 1)
	f.Planes[FrustumFar] = makePlane(r3, r2, -1)
	return f
}

// SphereVisible reports whether a sphere intersects or lies inside the frustum.
//
// Parameters:
//   - center: sphere center in the space the frustum was extracted for
//   - radius: sphere radius
//
// Returns:
//   - bool: false only if the sphere is entirely outside one of the planes
func (f *Frustum) SphereVisible(center [3]float32, radius float32) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		if dot3(p.Normal, center)+p.Distance < -radius {
			return false
		}
	}
	return true
}

func makePlane(base, r [4]float32, sign float32) Plane {
	p := Plane{
		Normal:   [3]float32{base[0] + sign*r[0], base[1] + sign*r[1], base[2] + sign*r[2]},
		Distance: base[3] + sign*r[3],
	}
	if l := math32.Sqrt(dot3(p.Normal, p.Normal)); l > 0 {
		p.Normal = [3]float32{p.Normal[0] / l, p.Normal[1] / l, p.Normal[2] / l}
		p.Distance /= l
	}
	return p
}
