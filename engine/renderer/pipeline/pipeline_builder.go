package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithLabel overrides the debug label, which defaults to the formatted key.
//
// Parameters:
//   - label: the label shown by GPU debuggers and validation messages
//
// Returns:
//   - PipelineBuilderOption: a function that sets the label
func WithLabel(label string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.label = label
	}
}

// WithVertexModule sets the vertex stage module and its entry point.
//
// Parameters:
//   - m: the compiled vertex shader module
//   - entry: the entry point name, empty keeps the default "vs_main"
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex stage
func WithVertexModule(m *wgpu.ShaderModule, entry string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexModule = m
		if entry != "" {
			p.vertexEntry = entry
		}
	}
}

// WithFragmentModule sets the fragment stage module and its entry point.
//
// Parameters:
//   - m: the compiled fragment shader module
//   - entry: the entry point name, empty keeps the default "fs_main"
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment stage
func WithFragmentModule(m *wgpu.ShaderModule, entry string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentModule = m
		if entry != "" {
			p.fragmentEntry = entry
		}
	}
}

// WithComputeModule sets the compute stage module and its entry point.
//
// Parameters:
//   - m: the compiled compute shader module
//   - entry: the entry point name, empty keeps the default "cs_main"
//
// Returns:
//   - PipelineBuilderOption: a function that sets the compute stage
func WithComputeModule(m *wgpu.ShaderModule, entry string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeModule = m
		if entry != "" {
			p.computeEntry = entry
		}
	}
}

// WithLayout sets the pipeline layout (bind group layouts of every group).
func WithLayout(layout *wgpu.PipelineLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.layout = layout
	}
}

// WithVertexBuffers sets the vertex buffer layouts fed to the vertex stage.
// A nil slice builds a pipeline that generates its vertices from the vertex index.
func WithVertexBuffers(buffers []wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexBuffers = buffers
	}
}

// WithTargets sets the color attachment formats and the depth format of the destination.
//
// Parameters:
//   - colors: color attachment formats in attachment order
//   - depth: the depth format, or wgpu.TextureFormatUndefined without a depth attachment
//
// Returns:
//   - PipelineBuilderOption: a function that sets the targets
func WithTargets(colors []wgpu.TextureFormat, depth wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorFormats = colors
		p.depthFormat = depth
	}
}
