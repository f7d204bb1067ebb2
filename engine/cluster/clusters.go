package cluster

import (
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Storage buffer stages of the cluster buffers. Stage 0 belongs to the light buffer.
const (
	SamplerClusters uint8 = iota + 1
	SamplerLightIndices
	SamplerLightGrid
	SamplerAtomicIndex
)

const (
	clusterAABBSize   = 32
	lightGridCellSize = 16
)

// Source is the part of a scene the Clusters binder reads.
type Source interface {
	// Camera returns the camera whose frustum is partitioned.
	Camera() camera.Camera
}

// clusters is the implementation of the Clusters interface.
type clusters struct {
	b backend.Backend

	sizesUniform     backend.Resource[backend.UniformHandle]
	zNearFarUniform  backend.Resource[backend.UniformHandle]
	scaleBiasUniform backend.Resource[backend.UniformHandle]

	clusterBuffer     backend.Resource[backend.DynamicBufferHandle]
	lightIndexBuffer  backend.Resource[backend.DynamicBufferHandle]
	lightGridBuffer   backend.Resource[backend.DynamicBufferHandle]
	atomicIndexBuffer backend.Resource[backend.DynamicBufferHandle]
}

// Clusters owns the GPU side of the cluster grid: the cluster bounds, the compacted light
// index list, the per-cluster light grid and the atomic counter the culling pass allocates
// from. It uploads the grid sizing uniforms and binds the buffers for each pass.
type Clusters interface {
	// Initialize validates the grid and creates the uniforms and buffers.
	// Must be called before any program that includes the cluster declarations is created.
	//
	// Parameters:
	//   - b: the backend to create resources on
	//
	// Returns:
	//   - error: ErrInvalidGrid when the depth slices do not divide between culling workgroups
	Initialize(b backend.Backend) error

	// SetUniforms uploads the grid sizing uniforms for a viewport. Must be called before the
	// cluster building dispatch every frame.
	//
	// Parameters:
	//   - src: the scene providing the camera near and far planes
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	SetUniforms(src Source, width, height int)

	// BindBuffers binds the cluster buffers for the next draw or dispatch.
	// The lighting pass reads the buffers and does not see the atomic counter. The compute
	// passes get read and write access to all four.
	//
	// Parameters:
	//   - lightingPass: true for the draw pass, false for the compute passes
	BindBuffers(lightingPass bool)

	// Valid reports whether every buffer exists.
	Valid() bool

	// Shutdown destroys every resource. Calling it twice, or before Initialize, does nothing.
	Shutdown()
}

var _ Clusters = &clusters{}

// NewClusters creates an uninitialized Clusters subsystem.
//
// Returns:
//   - Clusters: the subsystem
func NewClusters() Clusters {
	return &clusters{}
}

func (c *clusters) Initialize(b backend.Backend) error {
	if err := ValidateGrid(); err != nil {
		return err
	}
	c.b = b

	c.sizesUniform.Own(b.CreateUniform("u_clusterSizesVec", backend.UniformVec4, 1), b.DestroyUniform)
	c.zNearFarUniform.Own(b.CreateUniform("u_zNearFarVec", backend.UniformVec4, 1), b.DestroyUniform)
	c.scaleBiasUniform.Own(b.CreateUniform("u_clusterScaleBiasVec", backend.UniformVec4, 1), b.DestroyUniform)

	c.clusterBuffer.Own(b.CreateDynamicBuffer(ClusterCount*clusterAABBSize, backend.BufferComputeReadWrite, "clusters"), b.DestroyDynamicBuffer)
	c.lightIndexBuffer.Own(b.CreateDynamicBuffer(ClusterCount*MaxLightsPerCluster*4, backend.BufferComputeReadWrite, "cluster light indices"), b.DestroyDynamicBuffer)
	c.lightGridBuffer.Own(b.CreateDynamicBuffer(ClusterCount*lightGridCellSize, backend.BufferComputeReadWrite, "cluster light grid"), b.DestroyDynamicBuffer)
	c.atomicIndexBuffer.Own(b.CreateDynamicBuffer(4, backend.BufferComputeReadWrite, "cluster atomic index"), b.DestroyDynamicBuffer)

	if !c.Valid() {
		logging.Logger().Error("failed to create cluster buffers", "clusters", ClusterCount)
	}
	return nil
}

func (c *clusters) SetUniforms(src Source, width, height int) {
	if c.b == nil {
		return
	}
	cam := src.Camera()
	near, far := cam.Near(), cam.Far()
	scale, bias := ScaleBias(near, far)

	c.b.SetUniform(c.sizesUniform.Handle(), []float32{
		float32(common.CeilDiv(width, ClustersX)),
		float32(common.CeilDiv(height, ClustersY)),
		0, 0,
	})
	c.b.SetUniform(c.zNearFarUniform.Handle(), []float32{near, far, 0, 0})
	c.b.SetUniform(c.scaleBiasUniform.Handle(), []float32{scale, bias, 0, 0})
}

func (c *clusters) BindBuffers(lightingPass bool) {
	if c.b == nil {
		return
	}
	access := backend.AccessReadWrite
	if lightingPass {
		access = backend.AccessRead
	}
	c.b.SetBuffer(SamplerClusters, c.clusterBuffer.Handle(), access)
	c.b.SetBuffer(SamplerLightIndices, c.lightIndexBuffer.Handle(), access)
	c.b.SetBuffer(SamplerLightGrid, c.lightGridBuffer.Handle(), access)
	if !lightingPass {
		c.b.SetBuffer(SamplerAtomicIndex, c.atomicIndexBuffer.Handle(), access)
	}
}

func (c *clusters) Valid() bool {
	return c.clusterBuffer.Valid() && c.lightIndexBuffer.Valid() &&
		c.lightGridBuffer.Valid() && c.atomicIndexBuffer.Valid()
}

func (c *clusters) Shutdown() {
	c.clusterBuffer.Release()
	c.lightIndexBuffer.Release()
	c.lightGridBuffer.Release()
	c.atomicIndexBuffer.Release()
	c.sizesUniform.Release()
	c.zNearFarUniform.Release()
	c.scaleBiasUniform.Release()
	c.b = nil
}
