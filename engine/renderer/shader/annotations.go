// annotations.go defines the annotation types and the parser for the Oxy WGSL shader
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that the
// pre-processor replaces before the source reaches the backend.
package shader

import (
	"fmt"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL source of a registered module at the annotation
	// site. A module is injected at most once per shader; later includes of the same module
	// produce no output.
	//
	// Syntax: //@oxy:include <module>
	//
	// Example: //@oxy:include point_light
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeRequire marks a shader as depending on a backend capability. It produces
	// no output; Requirements reports it so loaders can refuse shaders the device cannot run.
	//
	// Syntax: //@oxy:require <capability>
	//
	// Example: //@oxy:require compute
	AnnotationTypeRequire AnnotationType = "require"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include: [0] = module name (e.g. "brdf")
	//   - require: [0] = capability name (e.g. "compute")
	Args []AnnotationArg

	// Line is the 1-based line number in the source where this annotation was found.
	Line int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Module arguments ───────────────────────────────────────────────────────────
// These identify registered WGSL modules that can appear in @oxy:include annotations.
// Each maps to an embedded .wgsl asset of the package owning the matching Go types.

const (
	// AnnotationArgBRDF identifies the metallic-roughness BRDF functions.
	// Source: engine/material/assets/brdf.wgsl
	AnnotationArgBRDF AnnotationArg = "brdf"

	// AnnotationArgPBR identifies the material texture declarations and factor accessors.
	// Source: engine/material/assets/pbr.wgsl
	AnnotationArgPBR AnnotationArg = "pbr"

	// AnnotationArgPointLight identifies the PointLight struct, the light buffer binding
	// and the attenuation helpers.
	// Source: engine/light/assets/point_light.wgsl
	AnnotationArgPointLight AnnotationArg = "point_light"

	// AnnotationArgClusters identifies the cluster grid constants, structs and lookups.
	// Source: engine/cluster/assets/cluster.wgsl
	AnnotationArgClusters AnnotationArg = "clusters"

	// AnnotationArgTonemap identifies the tonemapping operators.
	// Source: engine/renderer/shader/assets/tonemap.wgsl
	AnnotationArgTonemap AnnotationArg = "tonemap"

	// AnnotationArgUtil identifies the fullscreen triangle and depth reconstruction helpers.
	// Source: engine/renderer/shader/assets/util.wgsl
	AnnotationArgUtil AnnotationArg = "util"
)

// ── Capability arguments ───────────────────────────────────────────────────────
// These name backend capabilities in @oxy:require annotations.

const (
	// AnnotationArgCompute requires compute shader support.
	AnnotationArgCompute AnnotationArg = "compute"

	// AnnotationArgFragmentDepth requires depth texture reads from fragment shaders.
	AnnotationArgFragmentDepth AnnotationArg = "fragment_depth"
)

// validModules lists all AnnotationArg values accepted by @oxy:include. Each entry must
// have a corresponding entry in the PreProcessor's module registry.
var validModules = []AnnotationArg{
	AnnotationArgBRDF,
	AnnotationArgPBR,
	AnnotationArgPointLight,
	AnnotationArgClusters,
	AnnotationArgTonemap,
	AnnotationArgUtil,
}

// validCapabilities lists all AnnotationArg values accepted by @oxy:require.
var validCapabilities = []AnnotationArg{
	AnnotationArgCompute,
	AnnotationArgFragmentDepth,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validModules, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown module %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeRequire:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy require annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validCapabilities, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown capability %q in @oxy require annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: AnnotationTypeRequire,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
