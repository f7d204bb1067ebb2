package backend

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices used by every program.
const (
	// groupFrame holds the per-view Frame and per-draw Draw uniforms.
	groupFrame = 0
	// groupTextures holds texture stage s at binding 2s and its sampler at binding 2s+1.
	groupTextures = 1
	// groupBuffers holds storage buffer stage s at binding s.
	groupBuffers = 2

	groupCount = 3
)

const (
	// frameUniformStride is the size of one Frame block, padded to the uniform offset alignment.
	frameUniformStride = 512
	// frameUniformSize is the packed size of Frame: five mat4 and one vec4.
	frameUniformSize = 5*64 + 16
	// drawUniformStride is the size of one Draw block, padded to the uniform offset alignment.
	drawUniformStride = 768
	// drawUniformSize is the packed size of Draw: the model matrix and the uniform slots.
	drawUniformSize = 64 + MaxUniformSlots*16
)

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 dimensions from @workgroup_size(x[, y[, z]]). Dimensions
	// may be integer literals or names of integer constants.
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\w+)\s*(?:,\s*(\w+)\s*(?:,\s*(\w+)\s*)?)?\)`)

	// constRegex captures integer constants like: const CLUSTERS_X: u32 = 16u;
	constRegex = regexp.MustCompile(`const\s+(\w+)\s*(?::\s*\w+\s*)?=\s*(\d+)u?\s*;`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(2) @binding(0) var<storage, read> b_pointLights: array<PointLight>;
	// or handle types: @group(1) @binding(0) var t_texBaseColor: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// reflectedBinding is one @group/@binding declaration found in a shader.
type reflectedBinding struct {
	group        int
	binding      int
	addressSpace string
	name         string
	typeName     string
}

// reflectEntryPoint extracts the entry point function name for the given stage.
// Returns an empty string if no matching entry point attribute is found.
func reflectEntryPoint(source string, stage ShaderStage) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch stage {
	case ShaderStageVertex:
		re = vertexEntryRegex
	case ShaderStageFragment:
		re = fragmentEntryRegex
	case ShaderStageCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// reflectWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions. Omitted dimensions
// default to 1. Named dimensions are resolved against the integer constants of the source.
// Returns [1, 1, 1] if no @workgroup_size attribute is found.
func reflectWorkgroupSize(source string) [3]uint32 {
	cleaned := stripComments(source)
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}

	consts := make(map[string]uint64)
	for _, c := range constRegex.FindAllStringSubmatch(cleaned, -1) {
		if v, err := strconv.ParseUint(c[2], 10, 32); err == nil {
			consts[c[1]] = v
		}
	}

	for i := range 3 {
		dim := match[i+1]
		if dim == "" {
			continue
		}
		if v, err := strconv.ParseUint(dim, 10, 32); err == nil {
			result[i] = uint32(v)
		} else if v, ok := consts[dim]; ok {
			result[i] = uint32(v)
		}
	}
	return result
}

// reflectBindings extracts every @group(N) @binding(M) declaration outside group 0,
// sorted by group and binding.
func reflectBindings(source string) []reflectedBinding {
	cleaned := stripComments(source)
	var out []reflectedBinding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		if group == groupFrame {
			continue
		}
		out = append(out, reflectedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(match[3]),
			name:         strings.TrimSpace(match[4]),
			typeName:     strings.TrimSpace(match[5]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].group != out[j].group {
			return out[i].group < out[j].group
		}
		return out[i].binding < out[j].binding
	})
	return out
}

// readWrite reports whether a storage binding is declared read_write.
func (b reflectedBinding) readWrite() bool {
	return strings.Contains(b.addressSpace, "read_write")
}

// depth reports whether a texture binding is a depth texture.
func (b reflectedBinding) depth() bool {
	return strings.HasPrefix(b.typeName, "texture_depth_")
}

// layoutEntry classifies a reflected binding into a bind group layout entry. Samplers are
// filtering, except for the sampler of a depth texture stage which the caller downgrades.
func (b reflectedBinding) layoutEntry(visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(b.binding),
		Visibility: visibility,
	}

	switch {
	case strings.HasPrefix(b.addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if b.readWrite() {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case b.addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case b.typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case b.depth():
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(b.typeName, "texture_2d<"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	default:
		return entry, fmt.Errorf("unsupported binding %s: %s at group %d binding %d", b.name, b.typeName, b.group, b.binding)
	}
	return entry, nil
}

// stripComments removes block comments, then line comments.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes // comments from every line.
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes /* */ comments, honoring nesting as WGSL does.
func stripBlockComments(source string) string {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case i+1 < len(source) && source[i] == '/' && source[i+1] == '*':
			depth++
			i++
		case depth > 0 && i+1 < len(source) && source[i] == '*' && source[i+1] == '/':
			depth--
			i++
		case depth == 0:
			sb.WriteByte(source[i])
		case source[i] == '\n':
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// UniformConstName returns the WGSL constant a shader uses to index the Draw uniform slots
// of a named uniform: the prefix is upper-cased and the camel case name becomes snake case,
// so "u_lightCountVec" becomes "U_LIGHT_COUNT_VEC".
//
// Parameters:
//   - name: the uniform name passed to CreateUniform
//
// Returns:
//   - string: the constant name
func UniformConstName(name string) string {
	var sb strings.Builder
	prev := rune(0)
	for _, r := range name {
		if unicode.IsUpper(r) && prev != 0 && prev != '_' && !unicode.IsUpper(prev) {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToUpper(r))
		prev = r
	}
	return sb.String()
}

// uniformSlot is one named uniform as seen by the prelude.
type uniformSlot struct {
	name string
	slot int
}

// buildPrelude generates the WGSL declarations prepended to every shader: the Frame and
// Draw blocks of group 0 and one slot index constant per named uniform.
func buildPrelude(slots []uniformSlot) string {
	var sb strings.Builder
	sb.WriteString(`struct Frame {
    view: mat4x4<f32>,
    proj: mat4x4<f32>,
    viewProj: mat4x4<f32>,
    invProj: mat4x4<f32>,
    invView: mat4x4<f32>,
    viewRect: vec4<f32>,
};

struct Draw {
    model: mat4x4<f32>,
`)
	fmt.Fprintf(&sb, "    u: array<vec4<f32>, %d>,\n};\n\n", MaxUniformSlots)
	sb.WriteString("@group(0) @binding(0) var<uniform> frame: Frame;\n")
	sb.WriteString("@group(0) @binding(1) var<uniform> draw: Draw;\n\n")
	for _, s := range slots {
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", UniformConstName(s.name), s.slot)
	}
	sb.WriteByte('\n')
	return sb.String()
}
