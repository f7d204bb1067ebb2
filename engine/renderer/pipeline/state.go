package pipeline

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// State is a bit set describing the fixed-function state of a draw: color and depth
// writes, depth test, face culling and blending. Renderers compose it per draw and the
// backend turns each distinct State into a cached GPU pipeline.
type State uint64

const (
	StateWriteR State = 1 << iota
	StateWriteG
	StateWriteB
	StateWriteA
	StateWriteZ

	StateDepthTestLess
	StateDepthTestLEqual
	StateDepthTestEqual
	StateDepthTestGEqual
	StateDepthTestGreater
	StateDepthTestAlways

	// StateCullCW culls clockwise triangles, which are back faces for CCW geometry.
	StateCullCW
	// StateCullCCW culls counter-clockwise triangles, which are front faces for CCW geometry.
	StateCullCCW

	// StateBlendAdd accumulates source onto destination: dst = src + dst.
	StateBlendAdd
	// StateBlendAlpha is standard non-premultiplied alpha blending.
	StateBlendAlpha

	// StatePrimitiveLines rasterizes line lists instead of triangle lists.
	StatePrimitiveLines
)

const (
	StateNone State = 0

	StateWriteRGB = StateWriteR | StateWriteG | StateWriteB

	StateDepthTestMask = StateDepthTestLess | StateDepthTestLEqual | StateDepthTestEqual |
		StateDepthTestGEqual | StateDepthTestGreater | StateDepthTestAlways
	StateCullMask  = StateCullCW | StateCullCCW
	StateBlendMask = StateBlendAdd | StateBlendAlpha
	StateWriteMask = StateWriteRGB | StateWriteA | StateWriteZ

	// StateDefault writes color, alpha and depth, passes fragments closer than the
	// stored depth and culls back faces.
	StateDefault = StateWriteRGB | StateWriteA | StateWriteZ | StateDepthTestLess | StateCullCW
)

// Has reports whether every bit of flags is set.
func (s State) Has(flags State) bool {
	return s&flags == flags
}

// DepthWriteEnabled reports whether the draw writes depth.
func (s State) DepthWriteEnabled() bool {
	return s&StateWriteZ != 0
}

// DepthTestEnabled reports whether any depth comparison other than always is selected.
func (s State) DepthTestEnabled() bool {
	return s&StateDepthTestMask != 0 && s&StateDepthTestMask != StateDepthTestAlways
}

// BlendEnabled reports whether a blend mode is selected.
func (s State) BlendEnabled() bool {
	return s&StateBlendMask != 0
}

// DepthCompare returns the depth comparison function.
// Without a depth test bit every fragment passes.
func (s State) DepthCompare() wgpu.CompareFunction {
	switch {
	case s&StateDepthTestLess != 0:
		return wgpu.CompareFunctionLess
	case s&StateDepthTestLEqual != 0:
		return wgpu.CompareFunctionLessEqual
	case s&StateDepthTestEqual != 0:
		return wgpu.CompareFunctionEqual
	case s&StateDepthTestGEqual != 0:
		return wgpu.CompareFunctionGreaterEqual
	case s&StateDepthTestGreater != 0:
		return wgpu.CompareFunctionGreater
	default:
		return wgpu.CompareFunctionAlways
	}
}

// CullMode maps the cull bits onto WebGPU, with counter-clockwise front faces.
func (s State) CullMode() wgpu.CullMode {
	switch {
	case s&StateCullCW != 0:
		return wgpu.CullModeBack
	case s&StateCullCCW != 0:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

// FrontFace is fixed: every mesh in the engine is wound counter-clockwise.
func (s State) FrontFace() wgpu.FrontFace {
	return wgpu.FrontFaceCCW
}

// Topology returns the primitive topology.
func (s State) Topology() wgpu.PrimitiveTopology {
	if s&StatePrimitiveLines != 0 {
		return wgpu.PrimitiveTopologyLineList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

// ColorWriteMask returns the color channels written by the draw.
func (s State) ColorWriteMask() wgpu.ColorWriteMask {
	var m wgpu.ColorWriteMask
	if s&StateWriteR != 0 {
		m |= wgpu.ColorWriteMaskRed
	}
	if s&StateWriteG != 0 {
		m |= wgpu.ColorWriteMaskGreen
	}
	if s&StateWriteB != 0 {
		m |= wgpu.ColorWriteMaskBlue
	}
	if s&StateWriteA != 0 {
		m |= wgpu.ColorWriteMaskAlpha
	}
	return m
}

// BlendState returns the blend equation, or nil when blending is off.
func (s State) BlendState() *wgpu.BlendState {
	switch {
	case s&StateBlendAdd != 0:
		add := wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		}
		return &wgpu.BlendState{Color: add, Alpha: add}
	case s&StateBlendAlpha != 0:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}

// String lists the set flags, for logs and test failure messages.
func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	names := []struct {
		bit  State
		name string
	}{
		{StateWriteR, "write_r"}, {StateWriteG, "write_g"}, {StateWriteB, "write_b"},
		{StateWriteA, "write_a"}, {StateWriteZ, "write_z"},
		{StateDepthTestLess, "depth_less"}, {StateDepthTestLEqual, "depth_lequal"},
		{StateDepthTestEqual, "depth_equal"}, {StateDepthTestGEqual, "depth_gequal"},
		{StateDepthTestGreater, "depth_greater"}, {StateDepthTestAlways, "depth_always"},
		{StateCullCW, "cull_cw"}, {StateCullCCW, "cull_ccw"},
		{StateBlendAdd, "blend_add"}, {StateBlendAlpha, "blend_alpha"},
		{StatePrimitiveLines, "lines"},
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
