package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// triangleBuffer holds three VEC3 float positions followed by three uint16 indices.
func triangleBuffer() []byte {
	var buf bytes.Buffer
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(f))
	}
	for _, i := range []uint16{0, 1, 2, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

func dataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

// triangleDoc is a document with one indexed triangle mesh. The caller adds nodes,
// materials and buffer sources.
func triangleDoc() gltfDocument {
	return gltfDocument{
		Asset: gltfAsset{Version: "2.0"},
		Meshes: []gltfMesh{{
			Name: "tri",
			Primitives: []gltfPrimitive{{
				Attributes: map[string]int{"POSITION": 0},
				Indices:    ptr(1),
			}},
		}},
		Accessors: []gltfAccessor{
			{BufferView: ptr(0), ComponentType: componentFloat, Count: 3, Type: "VEC3"},
			{BufferView: ptr(1), ComponentType: componentUnsignedShort, Count: 3, Type: "SCALAR"},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Buffers: []gltfBuffer{{URI: dataURI(triangleBuffer()), ByteLength: 44}},
		Nodes:   []gltfNode{{Name: "node", Mesh: ptr(0)}},
	}
}

func encodeDoc(t *testing.T, doc gltfDocument) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func loadDoc(t *testing.T, doc gltfDocument, options ...LoaderBuilderOption) (*Asset, error) {
	t.Helper()
	fsys := fstest.MapFS{"models/scene.gltf": {Data: encodeDoc(t, doc)}}
	return NewLoader(append([]LoaderBuilderOption{WithFS(fsys)}, options...)...).Load("models/scene.gltf")
}

func assertPointInDelta(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d", i)
	}
}

func TestLoader_LoadGLTF(t *testing.T) {
	a, err := loadDoc(t, triangleDoc())
	require.NoError(t, err)

	assert.Equal(t, "scene", a.Name)
	require.Len(t, a.Geometries, 1)
	g := a.Geometries[0]
	assert.Equal(t, "tri", g.Name)
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices)
	require.Len(t, g.Vertices, 3)
	assert.Equal(t, [3]float32{1, 0, 0}, g.Vertices[1].Position)
	// normals are computed from the counter-clockwise triangle
	for _, v := range g.Vertices {
		assertPointInDelta(t, [3]float32{0, 0, 1}, v.Normal)
	}

	require.Len(t, a.Instances, 1)
	assert.Equal(t, "node", a.Instances[0].Name)
	assert.Equal(t, common.Identity4(), a.Instances[0].Transform)

	// the primitive has no material, so the default one is added
	require.Len(t, a.Materials, 1)
	assert.Equal(t, 0, a.Instances[0].Material)
	assert.Equal(t, "default", a.Materials[0].Name())
	assert.Equal(t, float32(1), a.Materials[0].Metallic())
}

func TestLoader_ExternalBuffer(t *testing.T) {
	doc := triangleDoc()
	doc.Buffers[0].URI = "tri.bin"
	fsys := fstest.MapFS{
		"models/scene.gltf": {Data: encodeDoc(t, doc)},
		"models/tri.bin":    {Data: triangleBuffer()},
	}

	a, err := NewLoader(WithFS(fsys)).Load("./models/scene.gltf")
	require.NoError(t, err)
	assert.Len(t, a.Geometries[0].Vertices, 3)

	delete(fsys, "models/tri.bin")
	_, err = NewLoader(WithFS(fsys)).Load("models/scene.gltf")
	assert.Error(t, err)
}

func TestLoader_NodeHierarchy(t *testing.T) {
	doc := triangleDoc()
	half := math32.Sqrt(0.5)
	doc.Nodes = []gltfNode{
		{Name: "root", Translation: &[3]float32{1, 0, 0}, Children: []int{1, 2}},
		{Name: "scaled", Mesh: ptr(0), Scale: &[3]float32{2, 2, 2}},
		// 90 degrees around +Y
		{Name: "rotated", Mesh: ptr(0), Rotation: &[4]float32{0, half, 0, half}},
		{Name: "matrix", Mesh: ptr(0), Matrix: ptr(common.TranslateScale([3]float32{0, 5, 0}, 1))},
	}

	a, err := loadDoc(t, doc)
	require.NoError(t, err)
	assert.Len(t, a.Geometries, 1, "a mesh shared by nodes is stored once")
	require.Len(t, a.Instances, 3)

	byName := make(map[string]Instance)
	for _, inst := range a.Instances {
		byName[inst.Name] = inst
	}
	assertPointInDelta(t, [3]float32{3, 0, 0}, common.TransformPoint(byName["scaled"].Transform, [3]float32{1, 0, 0}))
	assertPointInDelta(t, [3]float32{1, 0, -1}, common.TransformPoint(byName["rotated"].Transform, [3]float32{1, 0, 0}))
	assertPointInDelta(t, [3]float32{0, 6, 0}, common.TransformPoint(byName["matrix"].Transform, [3]float32{0, 1, 0}))

	center, radius := a.Bounds()
	assert.Greater(t, radius, float32(0))
	assert.Less(t, center[1], float32(5))
}

func TestLoader_DefaultScene(t *testing.T) {
	doc := triangleDoc()
	doc.Nodes = append(doc.Nodes, gltfNode{Name: "other", Mesh: ptr(0)})
	doc.Scenes = []gltfScene{{Nodes: []int{0}}, {Nodes: []int{1}}}
	doc.Scene = ptr(1)

	a, err := loadDoc(t, doc)
	require.NoError(t, err)
	require.Len(t, a.Instances, 1)
	assert.Equal(t, "other", a.Instances[0].Name)
}

func TestLoader_Materials(t *testing.T) {
	doc := triangleDoc()
	doc.Materials = []gltfMaterial{
		{
			Name: "glass",
			PbrMetallicRoughness: &gltfPbrMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 0, 0, 0.5},
				MetallicFactor:  ptr(float32(0.25)),
				RoughnessFactor: ptr(float32(0.75)),
			},
			EmissiveFactor: &[3]float32{0, 1, 0},
			AlphaMode:      alphaModeBlend,
			DoubleSided:    true,
		},
		{AlphaMode: alphaModeMask},
	}
	doc.Meshes[0].Primitives[0].Material = ptr(0)
	doc.Meshes = append(doc.Meshes, gltfMesh{Primitives: []gltfPrimitive{{
		Attributes: map[string]int{"POSITION": 0},
		Material:   ptr(1),
	}}})
	doc.Nodes = append(doc.Nodes, gltfNode{Mesh: ptr(1)})

	a, err := loadDoc(t, doc)
	require.NoError(t, err)
	require.Len(t, a.Materials, 2, "no default material is needed")

	m := a.Materials[0]
	assert.Equal(t, "glass", m.Name())
	assert.Equal(t, [4]float32{1, 0, 0, 0.5}, m.BaseColor())
	assert.Equal(t, float32(0.25), m.Metallic())
	assert.Equal(t, float32(0.75), m.Roughness())
	assert.Equal(t, [3]float32{0, 1, 0}, m.Emissive())
	assert.True(t, m.Blend())
	assert.True(t, m.DoubleSided())

	mask := a.Materials[1]
	assert.Equal(t, "material1", mask.Name())
	assert.False(t, mask.Blend(), "MASK imports as opaque")

	require.Len(t, a.Instances, 2)
	assert.Equal(t, 1, a.Instances[1].Material)
	assert.Equal(t, "mesh1", a.Instances[1].Name)
	assert.Equal(t, []uint32{0, 1, 2}, a.Geometries[1].Indices, "non-indexed primitives get sequential indices")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoader_Textures(t *testing.T) {
	doc := triangleDoc()
	doc.Images = []gltfImage{
		{URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 2))},
		{URI: "missing.png"},
	}
	doc.Textures = []gltfTexture{{Source: ptr(0)}, {Source: ptr(1)}}
	doc.Materials = []gltfMaterial{
		{Name: "textured", PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorTexture: &gltfTextureInfo{Index: 0}}},
		{Name: "broken", PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorTexture: &gltfTextureInfo{Index: 1}}},
	}

	a, err := loadDoc(t, doc)
	require.NoError(t, err)
	tex := a.Materials[0].BaseColorTexture()
	require.True(t, tex.Valid())
	assert.Equal(t, uint32(4), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)
	assert.Equal(t, []byte{60, 0, 255, 255}, tex.Pixels[4:8])

	// a texture that fails to load is skipped, the material survives
	assert.False(t, a.Materials[1].BaseColorTexture().Valid())

	a, err = loadDoc(t, doc, WithMaxTextureSize(2))
	require.NoError(t, err)
	tex = a.Materials[0].BaseColorTexture()
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Len(t, tex.Pixels, 2*1*4)
}

// glb packs a document and a binary chunk into a GLB container.
func glb(t *testing.T, doc gltfDocument, bin []byte, version uint32) []byte {
	t.Helper()
	jsonChunk := encodeDoc(t, doc)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var buf bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(bin)
	_ = binary.Write(&buf, binary.LittleEndian, glbHeader{Magic: glbMagic, Version: version, Length: uint32(total)})
	_ = binary.Write(&buf, binary.LittleEndian, glbChunkHeader{Length: uint32(len(jsonChunk)), Type: glbChunkJSON})
	buf.Write(jsonChunk)
	_ = binary.Write(&buf, binary.LittleEndian, glbChunkHeader{Length: uint32(len(bin)), Type: glbChunkBIN})
	buf.Write(bin)
	return buf.Bytes()
}

func TestLoader_LoadGLB(t *testing.T) {
	doc := triangleDoc()
	doc.Buffers[0].URI = ""
	full := glb(t, doc, triangleBuffer(), glbVersion)
	fsys := fstest.MapFS{
		"tri.glb":       {Data: full},
		"renamed.bin":   {Data: full},
		"old.glb":       {Data: glb(t, doc, triangleBuffer(), 1)},
		"nobin.glb":     {Data: glb(t, doc, nil, glbVersion)},
		"truncated.glb": {Data: full[:len(full)-10]},
	}
	l := NewLoader(WithFS(fsys))

	a, err := l.Load("tri.glb")
	require.NoError(t, err)
	assert.Equal(t, "tri", a.Name)
	assert.Len(t, a.Geometries[0].Vertices, 3)

	// the format is detected from the content
	_, err = l.Load("renamed.bin")
	assert.NoError(t, err)

	_, err = l.Load("old.glb")
	assert.ErrorIs(t, err, ErrInvalidAsset)

	_, err = l.Load("nobin.glb")
	assert.ErrorIs(t, err, ErrInvalidAsset)

	_, err = l.Load("truncated.glb")
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestLoader_Cache(t *testing.T) {
	fsys := fstest.MapFS{"scene.gltf": {Data: encodeDoc(t, triangleDoc())}}
	procedural := &Asset{Name: "procedural"}
	l := NewLoader(WithFS(fsys), WithAsset("procedural", procedural))

	got, ok := l.Get("procedural")
	require.True(t, ok)
	assert.Same(t, procedural, got)

	a, err := l.Load("scene.gltf")
	require.NoError(t, err)
	again, err := l.Load("./scene.gltf")
	require.NoError(t, err)
	assert.Same(t, a, again)

	l.Forget("scene.gltf")
	_, ok = l.Get("scene.gltf")
	assert.False(t, ok)
	again, err = l.Load("scene.gltf")
	require.NoError(t, err)
	assert.NotSame(t, a, again)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(doc *gltfDocument)
		want   error
	}{
		{"old version", func(doc *gltfDocument) { doc.Asset.Version = "1.0" }, ErrInvalidAsset},
		{"short buffer", func(doc *gltfDocument) { doc.Buffers[0].ByteLength = 100 }, ErrInvalidAsset},
		{"buffer without data", func(doc *gltfDocument) { doc.Buffers[0].URI = "" }, ErrInvalidAsset},
		{"plain data uri", func(doc *gltfDocument) { doc.Buffers[0].URI = "data:text/plain,abc" }, ErrUnsupported},
		{"lines", func(doc *gltfDocument) { doc.Meshes[0].Primitives[0].Mode = ptr(1) }, ErrUnsupported},
		{"no position", func(doc *gltfDocument) { doc.Meshes[0].Primitives[0].Attributes = map[string]int{} }, ErrInvalidAsset},
		{"sparse accessor", func(doc *gltfDocument) { doc.Accessors[0].Sparse = &struct{}{} }, ErrUnsupported},
		{"wrong accessor type", func(doc *gltfDocument) { doc.Accessors[0].Type = "VEC2" }, ErrInvalidAsset},
		{"accessor past view", func(doc *gltfDocument) { doc.Accessors[0].Count = 4 }, ErrInvalidAsset},
		{"float indices", func(doc *gltfDocument) { doc.Accessors[1].ComponentType = componentFloat }, ErrInvalidAsset},
		{"index out of range", func(doc *gltfDocument) { doc.Accessors[0].Count = 2 }, ErrInvalidAsset},
		{"two indices", func(doc *gltfDocument) { doc.Accessors[1].Count = 2 }, ErrInvalidAsset},
		{"bad mesh", func(doc *gltfDocument) { doc.Nodes[0].Mesh = ptr(3) }, ErrInvalidAsset},
		{"bad child", func(doc *gltfDocument) { doc.Nodes[0].Children = []int{9} }, ErrInvalidAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDoc()
			tt.modify(&doc)
			_, err := loadDoc(t, doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	l := NewLoader(WithFS(fstest.MapFS{"broken.gltf": {Data: []byte("{not json")}}))
	_, err := l.Load("broken.gltf")
	assert.ErrorIs(t, err, ErrInvalidAsset)
	_, err = l.Load("missing.gltf")
	assert.Error(t, err)
}

func TestLoader_CyclicNodes(t *testing.T) {
	doc := triangleDoc()
	doc.Nodes = []gltfNode{
		{Name: "a", Mesh: ptr(0), Children: []int{1}},
		{Name: "b", Children: []int{0}},
	}
	doc.Scenes = []gltfScene{{Nodes: []int{0}}}

	a, err := loadDoc(t, doc)
	require.NoError(t, err)
	assert.Len(t, a.Instances, 1)
}

func TestAsset_BoundsEmpty(t *testing.T) {
	center, radius := (&Asset{}).Bounds()
	assert.Equal(t, [3]float32{}, center)
	assert.Zero(t, radius)
}
