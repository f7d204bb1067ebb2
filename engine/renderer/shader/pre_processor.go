// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader source
// for @oxy: annotations, splices in the WGSL of included modules and collects the
// capabilities the shader requires.
//
// Included modules are themselves pre-processed, so a module can include another one.
// Every module is injected at most once per Process call, which lets shaders include
// "brdf" and "pbr" side by side even though "pbr" already includes "brdf".
package shader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-lighting/engine/cluster"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"

	_ "embed"
)

//go:embed assets/tonemap.wgsl
var gpuTonemapSource string

//go:embed assets/util.wgsl
var gpuUtilSource string

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps module names to their WGSL source.
	registry map[AnnotationArg]string

	// included records the modules injected during the current Process call.
	included map[AnnotationArg]bool

	// requirements accumulates @oxy:require annotations during a Process call.
	requirements []AnnotationArg
}

// PreProcessor resolves @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every @oxy:include annotation with the pre-processed source of the
	// named module, drops @oxy:require annotations and records their capability.
	// State from a previous call is discarded.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code
	//   - error: an error if an annotation is malformed or modules include each other in a cycle
	Process(source string) (string, error)

	// Requirements returns the capabilities required by the source of the most recent
	// Process call, included modules counted, in source order without duplicates.
	//
	// Returns:
	//   - []AnnotationArg: the capability arguments
	Requirements() []AnnotationArg
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every engine module registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return newPreProcessor(map[AnnotationArg]string{
		AnnotationArgBRDF:       material.GPUBRDFSource,
		AnnotationArgPBR:        material.GPUPBRSource,
		AnnotationArgPointLight: light.GPUPointLightSource,
		AnnotationArgClusters:   cluster.GPUClusterSource(),
		AnnotationArgTonemap:    gpuTonemapSource,
		AnnotationArgUtil:       gpuUtilSource,
	})
}

func newPreProcessor(registry map[AnnotationArg]string) *preProcessor {
	return &preProcessor{
		registry: registry,
		included: make(map[AnnotationArg]bool),
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	clear(p.included)
	p.requirements = p.requirements[:0]

	var sb strings.Builder
	if err := p.process(&sb, source, nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// process writes source to sb with its annotations resolved. stack holds the modules
// currently being expanded, outermost first.
func (p *preProcessor) process(sb *strings.Builder, source string, stack []AnnotationArg) error {
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return wrapModuleError(stack, err)
		}
		if a == nil {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			module := a.Args[0]
			if slices.Contains(stack, module) {
				return fmt.Errorf("include cycle: %s -> %s", joinModules(stack), module)
			}
			if p.included[module] {
				continue
			}
			src, ok := p.registry[module]
			if !ok {
				return wrapModuleError(stack, fmt.Errorf("line %d: module %q is not registered", a.Line, module))
			}
			p.included[module] = true
			if err := p.process(sb, src, append(stack, module)); err != nil {
				return err
			}
		case AnnotationTypeRequire:
			if !slices.Contains(p.requirements, a.Args[0]) {
				p.requirements = append(p.requirements, a.Args[0])
			}
		}
	}
	return nil
}

func (p *preProcessor) Requirements() []AnnotationArg {
	return p.requirements
}

func wrapModuleError(stack []AnnotationArg, err error) error {
	if len(stack) == 0 {
		return err
	}
	return fmt.Errorf("in module %s: %w", stack[len(stack)-1], err)
}

func joinModules(stack []AnnotationArg) string {
	names := make([]string, len(stack))
	for i, m := range stack {
		names[i] = string(m)
	}
	return strings.Join(names, " -> ")
}
