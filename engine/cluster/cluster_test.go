package cluster

import (
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGrid(t *testing.T) {
	require.NoError(t, ValidateGrid())

	assert.ErrorIs(t, validateGrid(24, 5), ErrInvalidGrid)
	assert.ErrorIs(t, validateGrid(24, 0), ErrInvalidGrid)
	assert.ErrorIs(t, validateGrid(0, 4), ErrInvalidGrid)
	assert.NoError(t, validateGrid(32, 8))
}

func TestDispatchSizes(t *testing.T) {
	x, y, z := BuildDispatch()
	assert.Equal(t, [3]uint32{16, 8, 24}, [3]uint32{x, y, z})

	x, y, z = CullDispatch()
	assert.Equal(t, [3]uint32{1, 1, 6}, [3]uint32{x, y, z})
	assert.Equal(t, ClusterCount, ClustersX*ClustersY*ClustersZThreads*int(z))
}

func TestSliceDepthAndIndex(t *testing.T) {
	const near, far = float32(0.1), float32(100)
	scale, bias := ScaleBias(near, far)

	assert.InDelta(t, near, SliceDepth(0, near, far), 1e-6)
	assert.InDelta(t, far, SliceDepth(ClustersZ, near, far), 1e-3)

	for k := range ClustersZ {
		lo, hi := SliceDepth(k, near, far), SliceDepth(k+1, near, far)
		assert.Less(t, lo, hi)
		assert.Equal(t, k, SliceIndex((lo+hi)/2, scale, bias), "slice %d", k)
	}

	assert.Equal(t, 0, SliceIndex(0, scale, bias))
	assert.Equal(t, 0, SliceIndex(near/2, scale, bias))
	assert.Equal(t, ClustersZ-1, SliceIndex(far*10, scale, bias))
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, Index(0, 0, 0))
	assert.Equal(t, 1, Index(1, 0, 0))
	assert.Equal(t, ClustersX, Index(0, 1, 0))
	assert.Equal(t, ClustersX*ClustersY, Index(0, 0, 1))
	assert.Equal(t, ClusterCount-1, Index(ClustersX-1, ClustersY-1, ClustersZ-1))
}

func TestGPUClusterSource(t *testing.T) {
	src := GPUClusterSource()
	assert.True(t, strings.HasPrefix(src, "const CLUSTERS_X: u32 = 16u;\n"))
	assert.Contains(t, src, "const CLUSTERS_Z_THREADS: u32 = 4u;")
	assert.Contains(t, src, "const MAX_LIGHTS_PER_CLUSTER: u32 = 100u;")
}

func TestAABBIntersects(t *testing.T) {
	box := AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}

	assert.True(t, box.Intersects([3]float32{0, 0, 0}, 0.1))
	assert.True(t, box.Intersects([3]float32{2, 0, 0}, 1))
	assert.False(t, box.Intersects([3]float32{2, 0, 0}, 0.9))
	// the corner is sqrt(3) away from (2, 2, 2)
	assert.False(t, box.Intersects([3]float32{2, 2, 2}, 1.7))
	assert.True(t, box.Intersects([3]float32{2, 2, 2}, 1.75))
}

func testGrid(t *testing.T) ([]AABB, camera.Camera) {
	t.Helper()
	cam := camera.NewCamera(camera.WithAspect(1280.0/720.0), camera.WithNear(0.1), camera.WithFar(100))
	grid := BuildGridCPU(cam.InverseProjectionMatrix(), 1280, 720, cam.Near(), cam.Far())
	require.Len(t, grid, ClusterCount)
	return grid, cam
}

func TestBuildGridCPU(t *testing.T) {
	grid, cam := testGrid(t)

	for i, box := range grid {
		for k := range 3 {
			require.LessOrEqual(t, box.Min[k], box.Max[k], "cluster %d axis %d", i, k)
		}
	}

	for z := range ClustersZ {
		box := grid[Index(3, 5, z)]
		assert.InDelta(t, -SliceDepth(z, cam.Near(), cam.Far()), box.Max[2], 1e-3*float64(z+1))
		assert.InDelta(t, -SliceDepth(z+1, cam.Near(), cam.Far()), box.Min[2], 1e-3*float64(z+1))
	}

	// tiles grow to the right and upwards in view space
	assert.Less(t, grid[Index(0, 0, 10)].Min[0], grid[Index(1, 0, 10)].Min[0])
	assert.Greater(t, grid[Index(0, 0, 10)].Max[1], grid[Index(0, 1, 10)].Max[1])
}

func bruteForce(clusters []AABB, lights []light.PointLight) [][]uint32 {
	out := make([][]uint32, len(clusters))
	for c, box := range clusters {
		for i, l := range lights {
			if len(out[c]) < MaxLightsPerCluster && box.Intersects(l.Position, l.Radius()) {
				out[c] = append(out[c], uint32(i))
			}
		}
	}
	return out
}

func TestCullLightsCPU(t *testing.T) {
	grid, _ := testGrid(t)
	lights := []light.PointLight{
		light.NewPointLight(light.WithPosition(0, 0, -10), light.WithIntensity(150)),
		light.NewPointLight(light.WithPosition(5, 2, -30), light.WithIntensity(50)),
		// behind the camera
		light.NewPointLight(light.WithPosition(0, 0, 10)),
	}

	result := CullLightsCPU(nil, grid, lights, common.Identity4())
	require.Len(t, result.Cells, ClusterCount)

	want := bruteForce(grid, lights)
	var hits int
	for c := range grid {
		got := result.Lights(c)
		if len(want[c]) == 0 {
			assert.Empty(t, got, "cluster %d", c)
			continue
		}
		assert.Equal(t, want[c], got, "cluster %d", c)
		assert.NotContains(t, got, uint32(2))
		hits++
	}
	assert.Positive(t, hits)
}

func TestCullLightsCPU_WorkerPool(t *testing.T) {
	grid, cam := testGrid(t)
	lights := make([]light.PointLight, 0, 32)
	for i := range 32 {
		lights = append(lights, light.NewPointLight(
			light.WithPosition(float32(i%8)-4, float32(i/8)-2, -float32(2+i)),
			light.WithIntensity(80),
		))
	}

	pool := worker.NewDynamicWorkerPool(3, 16, 50*time.Millisecond)
	view := cam.ViewMatrix()
	serial := CullLightsCPU(nil, grid, lights, view)
	parallel := CullLightsCPU(pool, grid, lights, view)

	assert.Equal(t, serial, parallel)
}

func TestCullLightsCPU_CapsClusterLists(t *testing.T) {
	grid, _ := testGrid(t)
	lights := make([]light.PointLight, MaxLightsPerCluster+20)
	for i := range lights {
		lights[i] = light.NewPointLight(light.WithPosition(0, 0, -5), light.WithIntensity(100))
	}

	result := CullLightsCPU(nil, grid, lights, common.Identity4())
	scale, bias := ScaleBias(0.1, 100)
	c := Index(ClustersX/2, ClustersY/2, SliceIndex(5, scale, bias))
	got := result.Lights(c)
	require.Len(t, got, MaxLightsPerCluster)
	for i, idx := range got {
		assert.Equal(t, uint32(i), idx)
	}
	assert.LessOrEqual(t, len(result.Indices), ClusterCount*MaxLightsPerCluster)
}
