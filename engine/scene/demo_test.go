package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/loader"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/model"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend/backendtest"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDemo(t *testing.T) {
	d := NewDemo(WithWorkers(1))
	defer d.Close()

	assert.Equal(t, "demo", d.Name())
	assert.False(t, d.Loaded())
	assert.Empty(t, d.Meshes())
	assert.Equal(t, DefaultLightCount, d.PointLights().Len())

	mats := d.Materials()
	require.Len(t, mats, 1+gridSize*gridSize+1)
	assert.Equal(t, "floor", mats[0].Name())
	assert.Equal(t, "glass", mats[len(mats)-1].Name())
	assert.True(t, mats[len(mats)-1].Blend())
	for _, m := range mats[:len(mats)-1] {
		assert.False(t, m.Blend(), m.Name())
	}

	// the grid sweeps metallic along x and roughness along z
	assert.Zero(t, mats[1].Metallic())
	assert.Equal(t, float32(1), mats[gridSize].Metallic())
	assert.Equal(t, float32(0.05), mats[1].Roughness())
	assert.Equal(t, float32(1), mats[gridSize*gridSize].Roughness())

	for _, l := range d.PointLights().Lights() {
		assert.Equal(t, float32(DefaultLightIntensity), l.Intensity)
	}
}

func TestNewDemo_Options(t *testing.T) {
	d := NewDemo(WithLightCount(-3), WithWorkers(0))
	assert.Zero(t, d.PointLights().Len())
	d.Update(1)
	d.Close()

	d = NewDemo(WithLightCount(3), WithLightIntensity(20))
	defer d.Close()
	require.Equal(t, 3, d.PointLights().Len())
	for _, l := range d.PointLights().Lights() {
		assert.Equal(t, float32(20), l.Intensity)
	}
}

func TestNewDemo_Seed(t *testing.T) {
	a := NewDemo(WithLightCount(8), WithSeed(7))
	b := NewDemo(WithLightCount(8), WithSeed(7))
	c := NewDemo(WithLightCount(8), WithSeed(8))
	defer a.Close()
	defer b.Close()
	defer c.Close()

	assert.Equal(t, a.PointLights().Lights(), b.PointLights().Lights())
	assert.NotEqual(t, a.PointLights().Lights(), c.PointLights().Lights())
}

func TestDemo_LoadUnload(t *testing.T) {
	rec := backendtest.NewRecorder()
	d := NewDemo(WithLightCount(4))
	defer d.Close()

	require.NoError(t, d.Load(rec))
	assert.True(t, d.Loaded())
	// floor, grid and the row of glass spheres
	meshes := d.Meshes()
	require.Len(t, meshes, 1+gridSize*gridSize+gridSize-1)

	// plane, cube and sphere share their buffers across meshes
	assert.Equal(t, 3, rec.Live(backendtest.ResourceVertexBuffer))
	assert.Equal(t, 3, rec.Live(backendtest.ResourceIndexBuffer))

	glass := len(d.Materials()) - 1
	var blended int
	for _, m := range meshes {
		assert.True(t, m.VertexBuffer.Valid(), m.Name)
		assert.True(t, m.IndexBuffer.Valid(), m.Name)
		mat, ok := MaterialOf(d, m)
		require.True(t, ok, m.Name)
		if mat.Blend() {
			assert.Equal(t, glass, m.Material)
			blended++
		}
	}
	assert.Equal(t, gridSize-1, blended)

	// loading again replaces the buffers instead of leaking them
	require.NoError(t, d.Load(rec))
	assert.Equal(t, 3, rec.Live(backendtest.ResourceVertexBuffer))

	d.Unload()
	d.Unload()
	assert.False(t, d.Loaded())
	assert.Empty(t, d.Meshes())
	assert.Zero(t, rec.LiveTotal())
	assert.Empty(t, rec.Errors)
}

func TestDemo_LoadFailure(t *testing.T) {
	for _, res := range []backendtest.Resource{backendtest.ResourceVertexBuffer, backendtest.ResourceIndexBuffer} {
		t.Run(string(res), func(t *testing.T) {
			rec := backendtest.NewRecorder(backendtest.WithFailure(res))
			d := NewDemo(WithLightCount(1))
			defer d.Close()

			err := d.Load(rec)
			assert.ErrorIs(t, err, ErrLoadFailed)
			assert.False(t, d.Loaded())
			assert.Empty(t, d.Meshes())
			assert.Zero(t, rec.LiveTotal())
		})
	}
}

func testAsset() *loader.Asset {
	return &loader.Asset{
		Name:       "boxes",
		Geometries: []model.Geometry{model.Cube(2)},
		Materials: []material.Material{
			material.NewMaterial(material.WithName("red")),
			material.NewMaterial(material.WithName("blue")),
		},
		Instances: []loader.Instance{
			{Name: "left", Geometry: 0, Material: 0, Transform: common.Translate(-4, 0, 0)},
			{Name: "right", Geometry: 0, Material: 1, Transform: common.Translate(4, 0, 0)},
		},
	}
}

func TestDemo_WithAsset(t *testing.T) {
	rec := backendtest.NewRecorder()
	asset := testAsset()
	d := NewDemo(WithAsset(asset), WithLightCount(2))
	defer d.Close()

	assert.Equal(t, "boxes", d.Name())
	require.Len(t, d.Materials(), 2)
	assert.Equal(t, "red", d.Materials()[0].Name())

	center, radius := asset.Bounds()
	orbit := d.Camera().Orbit()
	assert.Equal(t, center, orbit.Target)
	assert.InDelta(t, radius*2.2, orbit.Radius, 1e-4)

	require.NoError(t, d.Load(rec))
	meshes := d.Meshes()
	require.Len(t, meshes, 2)
	assert.Equal(t, "left", meshes[0].Name)
	assert.Equal(t, 1, meshes[1].Material)
	assert.Equal(t, meshes[0].VertexBuffer, meshes[1].VertexBuffer)
	assert.Equal(t, 1, rec.Live(backendtest.ResourceVertexBuffer))
	assert.Equal(t, 1, rec.Live(backendtest.ResourceIndexBuffer))

	d.Unload()
	assert.Zero(t, rec.LiveTotal())
}

func TestDemo_WithAssetLoadFailure(t *testing.T) {
	rec := backendtest.NewRecorder(backendtest.WithFailure(backendtest.ResourceIndexBuffer))
	d := NewDemo(WithAsset(testAsset()), WithLightCount(1))
	defer d.Close()

	assert.ErrorIs(t, d.Load(rec), ErrLoadFailed)
	assert.False(t, d.Loaded())
	assert.Zero(t, rec.LiveTotal())
}

func TestDemo_Update(t *testing.T) {
	d := NewDemo(WithLightCount(130), WithWorkers(3), WithCameraSpeed(0.5))
	defer d.Close()

	before := d.PointLights().Lights()
	version := d.PointLights().Version()

	d.Update(2)

	assert.InDelta(t, 1, d.Camera().Orbit().Azimuth, 1e-5)
	assert.Greater(t, d.PointLights().Version(), version)
	after := d.PointLights().Lights()
	require.Len(t, after, len(before))
	for i := range after {
		// lights circle at a fixed height and distance around the grid center
		assert.NotEqual(t, before[i].Position, after[i].Position, "light %d", i)
		assert.InDelta(t, before[i].Position[1], after[i].Position[1], 1e-4, "light %d", i)
		r0 := math32.Hypot(before[i].Position[0], before[i].Position[2])
		r1 := math32.Hypot(after[i].Position[0], after[i].Position[2])
		assert.InDelta(t, r0, r1, 1e-3, "light %d", i)
	}
}

func TestDemo_UpdateWithoutAnimation(t *testing.T) {
	d := NewDemo(WithLightCount(4), WithAnimate(false), WithCameraSpeed(0))
	defer d.Close()

	before := d.PointLights().Lights()
	version := d.PointLights().Version()
	d.Update(1)

	assert.Equal(t, before, d.PointLights().Lights())
	assert.Equal(t, version, d.PointLights().Version())
	assert.Zero(t, d.Camera().Orbit().Azimuth)
}

func TestDemo_Resize(t *testing.T) {
	d := NewDemo(WithLightCount(0))
	defer d.Close()

	d.Resize(800, 400)
	assert.Equal(t, float32(2), d.Camera().Aspect())

	d.Resize(0, 400)
	d.Resize(800, -1)
	assert.Equal(t, float32(2), d.Camera().Aspect())
}
