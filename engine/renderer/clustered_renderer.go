package renderer

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/cluster"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lighting/engine/scene"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// Views of the clustered renderer, in execution order.
const (
	ViewClusterBuilding backend.ViewID = iota
	ViewLightCulling
	ViewClusteredLighting
	ViewClusteredTransparent
)

// clusteredRenderer partitions the view frustum into clusters, assigns the lights to them in
// two compute passes and shades every mesh with the lights of its cluster.
type clusteredRenderer struct {
	base

	clusters cluster.Clusters

	clusterBuildingProgram backend.Resource[backend.ProgramHandle]
	lightCullingProgram    backend.Resource[backend.ProgramHandle]
	lightingProgram        backend.Resource[backend.ProgramHandle]
	debugVisProgram        backend.Resource[backend.ProgramHandle]
}

var _ Renderer = &clusteredRenderer{}

// NewClusteredRenderer creates an uninitialized clustered forward renderer.
//
// Parameters:
//   - options: the renderer options
//
// Returns:
//   - Renderer: the renderer
func NewClusteredRenderer(options ...RendererBuilderOption) Renderer {
	return &clusteredRenderer{
		base:     newBase(NameClustered, options...),
		clusters: cluster.NewClusters(),
	}
}

func (r *clusteredRenderer) Supported(b backend.Backend) bool {
	caps := b.Caps()
	return caps.Has(backend.CapsCompute|backend.CapsIndex32|backend.CapsFragmentDepth) &&
		r.supported(caps)
}

func (r *clusteredRenderer) Initialize(b backend.Backend) {
	if !r.initialize(b) {
		return
	}

	if err := r.clusters.Initialize(b); err != nil {
		logging.Logger().Error("failed to initialize clusters", "renderer", r.name, "error", err)
		return
	}

	r.clusterBuildingProgram.Own(r.loadComputeProgram("cs_clustered_clusterbuilding"), b.DestroyProgram)
	r.lightCullingProgram.Own(r.loadComputeProgram("cs_clustered_lightculling"), b.DestroyProgram)
	r.lightingProgram.Own(r.loadProgram("vs_clustered", "fs_clustered"), b.DestroyProgram)
	r.debugVisProgram.Own(r.loadProgram("vs_clustered", "fs_clustered_debug_vis"), b.DestroyProgram)

	logging.Logger().Info("renderer initialized", "renderer", r.name,
		"clusters", cluster.ClusterCount, "maxLightsPerCluster", cluster.MaxLightsPerCluster)
}

func (r *clusteredRenderer) Reset(width, height int) {
	r.reset(width, height)
}

func (r *clusteredRenderer) Render(deltaTime float32) {
	if r.b == nil {
		return
	}

	for _, v := range [...]struct {
		id   backend.ViewID
		name string
	}{
		{ViewClusterBuilding, "Cluster building"},
		{ViewLightCulling, "Clustered light culling"},
	} {
		r.b.SetViewName(v.id, v.name)
		r.b.SetViewClear(v.id, backend.ClearNone, 0, 1)
		r.b.SetViewRectRatio(v.id, 0, 0, backend.RatioEqual)
		r.b.SetViewFrameBuffer(v.id, backend.Invalid[backend.FrameBufferHandle]())
	}
	r.setupView(ViewClusteredLighting, "Clustered lighting", backend.ClearColor|backend.ClearDepth, r.frameBuffer.Handle())
	r.setupView(ViewClusteredTransparent, "Transparent", backend.ClearNone, r.frameBuffer.Handle())
	r.setupTonemapView()

	if !r.ready() {
		return
	}

	r.SetViewProjection(ViewClusterBuilding)
	r.SetViewProjection(ViewLightCulling)
	r.SetViewProjection(ViewClusteredLighting)
	r.SetViewProjection(ViewClusteredTransparent)

	if !r.clusters.Valid() || !r.clusterBuildingProgram.Valid() || !r.lightCullingProgram.Valid() {
		return
	}

	r.clusters.SetUniforms(r.scene, r.width, r.height)
	r.clusters.BindBuffers(false)
	x, y, z := cluster.BuildDispatch()
	r.b.Dispatch(ViewClusterBuilding, r.clusterBuildingProgram.Handle(), x, y, z)

	r.lights.BindLights(r.scene)
	r.clusters.SetUniforms(r.scene, r.width, r.height)
	r.clusters.BindBuffers(false)
	x, y, z = cluster.CullDispatch()
	r.b.Dispatch(ViewLightCulling, r.lightCullingProgram.Handle(), x, y, z)

	program := r.lightingProgram.Handle()
	if r.Variable(VariableDebugVis) == "true" {
		program = r.debugVisProgram.Handle()
	}
	if !program.Valid() || !r.frameBuffer.Valid() {
		return
	}

	r.splitMeshes(func(mesh scene.Mesh, mat material.Material) {
		r.submitClustered(ViewClusteredLighting, program, mesh, mat)
	}, func(mesh scene.Mesh, mat material.Material) {
		r.submitClustered(ViewClusteredTransparent, program, mesh, mat)
	})
	r.submitTonemap()
}

// submitClustered draws a mesh two-sided with the lights of its clusters.
func (r *clusteredRenderer) submitClustered(view backend.ViewID, program backend.ProgramHandle, mesh scene.Mesh, mat material.Material) {
	r.lights.BindLights(r.scene)
	r.clusters.BindBuffers(true)
	r.clusters.SetUniforms(r.scene, r.width, r.height)
	r.submitMesh(view, program, mesh, mat, clusteredState)
}

// clusteredState composes the material state with the default state, culling disabled.
func clusteredState(materialState pipeline.State) pipeline.State {
	return (pipeline.StateDefault | materialState) &^ pipeline.StateCullMask
}

func (r *clusteredRenderer) Shutdown() {
	r.clusterBuildingProgram.Release()
	r.lightCullingProgram.Release()
	r.lightingProgram.Release()
	r.debugVisProgram.Release()
	r.clusters.Shutdown()

	r.shutdown()
}
