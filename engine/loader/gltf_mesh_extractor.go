package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lighting/engine/model"
	"github.com/chewxy/math32"
)

// extractGeometry converts one triangle primitive into model.Geometry.
// POSITION is required. Missing normals are computed from the triangles, missing texture
// coordinates are zero and non-indexed primitives get a sequential index list.
//
// Parameters:
//   - p: the parser holding the document
//   - mesh: index of the mesh
//   - prim: index of the primitive inside the mesh
//
// Returns:
//   - model.Geometry: the geometry in the mesh's local space
//   - error: ErrInvalidAsset or ErrUnsupported
func extractGeometry(p *parser, mesh, prim int) (model.Geometry, error) {
	m := p.doc.Meshes[mesh]
	pr := m.Primitives[prim]
	name := primitiveName(m, mesh, prim)

	if pr.Mode != nil && *pr.Mode != modeTriangles {
		return model.Geometry{}, fmt.Errorf("%w: %s has topology %d", ErrUnsupported, name, *pr.Mode)
	}
	posIndex, ok := pr.Attributes["POSITION"]
	if !ok {
		return model.Geometry{}, fmt.Errorf("%w: %s has no POSITION", ErrInvalidAsset, name)
	}

	positions, err := p.readFloats(posIndex, 3)
	if err != nil {
		return model.Geometry{}, fmt.Errorf("%s positions: %w", name, err)
	}
	count := len(positions) / 3
	g := model.Geometry{Name: name, Vertices: make([]model.GPUVertex, count)}
	for i := range g.Vertices {
		copy(g.Vertices[i].Position[:], positions[i*3:])
	}

	if idx, ok := pr.Attributes["TEXCOORD_0"]; ok {
		uv, err := p.readFloats(idx, 2)
		if err != nil {
			return model.Geometry{}, fmt.Errorf("%s texcoords: %w", name, err)
		}
		for i := range min(count, len(uv)/2) {
			copy(g.Vertices[i].TexCoord[:], uv[i*2:])
		}
	}

	if pr.Indices != nil {
		g.Indices, err = p.readIndices(*pr.Indices)
		if err != nil {
			return model.Geometry{}, fmt.Errorf("%s indices: %w", name, err)
		}
	} else {
		g.Indices = make([]uint32, count)
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}
	if len(g.Indices)%3 != 0 {
		return model.Geometry{}, fmt.Errorf("%w: %s has %d indices", ErrInvalidAsset, name, len(g.Indices))
	}
	for _, i := range g.Indices {
		if int(i) >= count {
			return model.Geometry{}, fmt.Errorf("%w: %s index %d out of %d vertices", ErrInvalidAsset, name, i, count)
		}
	}

	if idx, ok := pr.Attributes["NORMAL"]; ok {
		normals, err := p.readFloats(idx, 3)
		if err != nil {
			return model.Geometry{}, fmt.Errorf("%s normals: %w", name, err)
		}
		for i := range min(count, len(normals)/3) {
			copy(g.Vertices[i].Normal[:], normals[i*3:])
		}
	} else {
		computeNormals(&g)
	}
	return g, nil
}

func primitiveName(m gltfMesh, mesh, prim int) string {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", mesh)
	}
	if len(m.Primitives) > 1 {
		name = fmt.Sprintf("%s.%d", name, prim)
	}
	return name
}

// computeNormals sets every vertex normal to the area weighted sum of the normals of the
// triangles sharing it.
func computeNormals(g *model.Geometry) {
	for t := 0; t+2 < len(g.Indices); t += 3 {
		a, b, c := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		pa, pb, pc := g.Vertices[a].Position, g.Vertices[b].Position, g.Vertices[c].Position
		e1 := [3]float32{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
		e2 := [3]float32{pc[0] - pa[0], pc[1] - pa[1], pc[2] - pa[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, v := range [3]uint32{a, b, c} {
			for k := range 3 {
				g.Vertices[v].Normal[k] += n[k]
			}
		}
	}
	for i := range g.Vertices {
		n := &g.Vertices[i].Normal
		l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l == 0 {
			*n = [3]float32{0, 1, 0}
			continue
		}
		n[0], n[1], n[2] = n[0]/l, n[1]/l, n[2]/l
	}
}
