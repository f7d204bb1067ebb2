package pipeline

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment entry points.
	PipelineTypeRender
)

// Key identifies one GPU pipeline object. Two draws share a pipeline when they use the
// same program, the same State, render into the same attachment formats and feed the
// same vertex layout.
type Key struct {
	// Program is the backend program handle value.
	Program uint16
	// State is the render state of the draw. Always zero for compute pipelines.
	State State
	// Targets describes the attachment formats of the destination framebuffer.
	Targets string
	// Layout is the vertex layout hash, empty for layout-less draws.
	Layout string
}

func (k Key) String() string {
	return fmt.Sprintf("prog=%d state=%s targets=%s layout=%s", k.Program, k.State, k.Targets, k.Layout)
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	key          Key
	label        string

	vertexModule, fragmentModule, computeModule *wgpu.ShaderModule
	vertexEntry, fragmentEntry, computeEntry    string

	layout        *wgpu.PipelineLayout
	vertexBuffers []wgpu.VertexBufferLayout
	colorFormats  []wgpu.TextureFormat
	depthFormat   wgpu.TextureFormat

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline
}

// Pipeline is a cached GPU pipeline object together with the configuration it was built from.
// The backend builds one per distinct Key, the first time a draw or dispatch needs it.
type Pipeline interface {
	// Type returns the type of the pipeline.
	//
	// Returns:
	//   - PipelineType: render or compute
	Type() PipelineType

	// Key returns the cache key this pipeline was created for.
	//
	// Returns:
	//   - Key: the pipeline key
	Key() Key

	// Label returns the debug label passed to the GPU.
	Label() string

	// State returns the render state encoded in the key.
	State() State

	// Pipeline returns the underlying *wgpu.RenderPipeline or *wgpu.ComputePipeline.
	// The caller type asserts the result according to Type().
	//
	// Returns:
	//   - any: the underlying pipeline object, or nil before creation
	Pipeline() any

	// ColorFormats returns the formats of the color targets, in attachment order.
	ColorFormats() []wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or wgpu.TextureFormatUndefined when
	// the pipeline renders without depth.
	DepthFormat() wgpu.TextureFormat

	// RenderDescriptor builds the render pipeline descriptor from the configured modules,
	// targets and State. Returns an error for compute pipelines or missing modules.
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor to pass to Device.CreateRenderPipeline
	//   - error: an error if the pipeline is not a complete render pipeline
	RenderDescriptor() (*wgpu.RenderPipelineDescriptor, error)

	// ComputeDescriptor builds the compute pipeline descriptor.
	//
	// Returns:
	//   - *wgpu.ComputePipelineDescriptor: the descriptor to pass to Device.CreateComputePipeline
	//   - error: an error if the pipeline is not a complete compute pipeline
	ComputeDescriptor() (*wgpu.ComputePipelineDescriptor, error)

	// SetRenderPipeline stores the created render pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline stores the created compute pipeline.
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline
	SetComputePipeline(p *wgpu.ComputePipeline)

	// Release releases the GPU pipeline object. The pipeline layout and shader modules are
	// shared and stay alive.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline for the given key. Modules, layout and targets are set
// through options before the descriptor is built.
//
// Parameters:
//   - key: the cache key of the pipeline
//   - pipelineType: render or compute
//   - opts: PipelineBuilderOption functions configuring modules, layout and targets
//
// Returns:
//   - Pipeline: the configured, not yet created pipeline
func NewPipeline(key Key, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineType:  pipelineType,
		key:           key,
		label:         key.String(),
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
		computeEntry:  "cs_main",
		depthFormat:   wgpu.TextureFormatUndefined,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) Key() Key {
	return p.key
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) State() State {
	return p.key.State
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	}
	return nil
}

func (p *pipeline) ColorFormats() []wgpu.TextureFormat {
	return p.colorFormats
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) RenderDescriptor() (*wgpu.RenderPipelineDescriptor, error) {
	if p.pipelineType != PipelineTypeRender {
		return nil, fmt.Errorf("pipeline %s is not a render pipeline", p.label)
	}
	if p.vertexModule == nil || p.fragmentModule == nil {
		return nil, fmt.Errorf("pipeline %s: both vertex and fragment modules must be set", p.label)
	}

	state := p.key.State
	targets := make([]wgpu.ColorTargetState, len(p.colorFormats))
	for i, f := range p.colorFormats {
		targets[i] = wgpu.ColorTargetState{
			Format:    f,
			WriteMask: state.ColorWriteMask(),
			Blend:     state.BlendState(),
		}
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.vertexModule,
			EntryPoint: p.vertexEntry,
			Buffers:    p.vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fragmentModule,
			EntryPoint: p.fragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  state.Topology(),
			FrontFace: state.FrontFace(),
			CullMode:  state.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	if p.depthFormat != wgpu.TextureFormatUndefined {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: state.DepthWriteEnabled(),
			DepthCompare:      state.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}
	return desc, nil
}

func (p *pipeline) ComputeDescriptor() (*wgpu.ComputePipelineDescriptor, error) {
	if p.pipelineType != PipelineTypeCompute {
		return nil, fmt.Errorf("pipeline %s is not a compute pipeline", p.label)
	}
	if p.computeModule == nil {
		return nil, fmt.Errorf("pipeline %s: compute module must be set", p.label)
	}
	return &wgpu.ComputePipelineDescriptor{
		Label:  p.label,
		Layout: p.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     p.computeModule,
			EntryPoint: p.computeEntry,
		},
	}, nil
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
}
