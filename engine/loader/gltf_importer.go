package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lighting/common"
)

// importer flattens the node hierarchy of a parsed document into an Asset.
type importer struct {
	p              *parser
	maxTextureSize int

	asset      *Asset
	geometryOf map[[2]int]int
	defaultMat int
	visited    []bool
}

// importAsset builds the asset of the document's default scene. Without scenes every
// root node is imported.
//
// Parameters:
//   - p: the parser holding the document
//   - name: the asset name
//   - maxTextureSize: largest texture edge, 0 for no limit
//
// Returns:
//   - *Asset: the imported asset
//   - error: the first geometry error
func importAsset(p *parser, name string, maxTextureSize int) (*Asset, error) {
	im := &importer{
		p:              p,
		maxTextureSize: maxTextureSize,
		asset:          &Asset{Name: name},
		geometryOf:     make(map[[2]int]int),
		defaultMat:     -1,
		visited:        make([]bool, len(p.doc.Nodes)),
	}
	for i := range p.doc.Materials {
		im.asset.Materials = append(im.asset.Materials, extractMaterial(p, i, maxTextureSize))
	}

	for _, root := range im.roots() {
		if err := im.node(root, common.Identity4()); err != nil {
			return nil, err
		}
	}
	return im.asset, nil
}

// roots returns the root nodes of the default scene.
func (im *importer) roots() []int {
	doc := im.p.doc
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

// node imports node index with the accumulated parent transform, then its children.
// A node reached twice is skipped, which also breaks cycles in malformed files.
func (im *importer) node(index int, parent common.Mat4) error {
	doc := im.p.doc
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("%w: node %d out of range", ErrInvalidAsset, index)
	}
	if im.visited[index] {
		return nil
	}
	im.visited[index] = true

	n := doc.Nodes[index]
	local := nodeMatrix(n)
	var world common.Mat4
	common.Mul4(world[:], parent[:], local[:])

	if n.Mesh != nil {
		if *n.Mesh < 0 || *n.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("%w: node %d references mesh %d", ErrInvalidAsset, index, *n.Mesh)
		}
		for prim, pr := range doc.Meshes[*n.Mesh].Primitives {
			geo, err := im.geometry(*n.Mesh, prim)
			if err != nil {
				return err
			}
			name := n.Name
			if name == "" {
				name = im.asset.Geometries[geo].Name
			}
			im.asset.Instances = append(im.asset.Instances, Instance{
				Name:      name,
				Geometry:  geo,
				Material:  im.material(pr.Material),
				Transform: world,
			})
		}
	}

	for _, c := range n.Children {
		if err := im.node(c, world); err != nil {
			return err
		}
	}
	return nil
}

// geometry returns the asset index of a primitive, extracting it on first use so meshes
// shared by several nodes are stored once.
func (im *importer) geometry(mesh, prim int) (int, error) {
	key := [2]int{mesh, prim}
	if i, ok := im.geometryOf[key]; ok {
		return i, nil
	}
	g, err := extractGeometry(im.p, mesh, prim)
	if err != nil {
		return 0, err
	}
	im.asset.Geometries = append(im.asset.Geometries, g)
	im.geometryOf[key] = len(im.asset.Geometries) - 1
	return im.geometryOf[key], nil
}

func (im *importer) material(index *int) int {
	if index != nil && *index >= 0 && *index < len(im.p.doc.Materials) {
		return *index
	}
	if im.defaultMat < 0 {
		im.asset.Materials = append(im.asset.Materials, defaultMaterial())
		im.defaultMat = len(im.asset.Materials) - 1
	}
	return im.defaultMat
}

// nodeMatrix returns the local transform of a node: its matrix, or T * R * S.
func nodeMatrix(n gltfNode) common.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}

	t := [3]float32{}
	if n.Translation != nil {
		t = *n.Translation
	}
	s := [3]float32{1, 1, 1}
	if n.Scale != nil {
		s = *n.Scale
	}
	q := [4]float32{0, 0, 0, 1}
	if n.Rotation != nil {
		q = *n.Rotation
	}

	x, y, z, w := q[0], q[1], q[2], q[3]
	return common.Mat4{
		(1 - 2*(y*y+z*z)) * s[0], 2 * (x*y + z*w) * s[0], 2 * (x*z - y*w) * s[0], 0,
		2 * (x*y - z*w) * s[1], (1 - 2*(x*x+z*z)) * s[1], 2 * (y*z + x*w) * s[1], 0,
		2 * (x*z + y*w) * s[2], 2 * (y*z - x*w) * s[2], (1 - 2*(x*x+y*y)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}
