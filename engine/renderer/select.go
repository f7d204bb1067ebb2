package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-lighting/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
)

// ErrNoSupportedRenderer is returned by Select when no candidate runs on the backend.
var ErrNoSupportedRenderer = errors.New("renderer: no supported renderer")

// ErrUnknownRenderer is returned by New for an unknown renderer name.
var ErrUnknownRenderer = errors.New("renderer: unknown renderer")

// NameAuto lets Select pick the first supported candidate.
const NameAuto = "auto"

// New creates an uninitialized renderer by name.
//
// Parameters:
//   - name: NameForward, NameDeferred or NameClustered
//   - options: the renderer options
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrUnknownRenderer for any other name
func New(name string, options ...RendererBuilderOption) (Renderer, error) {
	switch name {
	case NameForward:
		return NewForwardRenderer(options...), nil
	case NameDeferred:
		return NewDeferredRenderer(options...), nil
	case NameClustered:
		return NewClusteredRenderer(options...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
}

// Select returns the renderer to use on a backend. The candidate named preferred is tried
// first, then the others in order. Only Supported is called, nothing is allocated.
//
// Parameters:
//   - b: the backend the renderer will run on
//   - preferred: the name of the preferred renderer, or NameAuto
//   - candidates: the renderers to choose from, in fallback order
//
// Returns:
//   - Renderer: the first supported renderer
//   - error: ErrNoSupportedRenderer when no candidate is supported
func Select(b backend.Backend, preferred string, candidates ...Renderer) (Renderer, error) {
	ordered := make([]Renderer, 0, len(candidates))
	for _, c := range candidates {
		if c.Name() == preferred {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if c.Name() != preferred {
			ordered = append(ordered, c)
		}
	}

	for _, c := range ordered {
		if c.Supported(b) {
			logging.Logger().Info("renderer selected", "renderer", c.Name(), "preferred", preferred, "backend", b.Name())
			return c, nil
		}
		logging.Logger().Info("renderer not supported", "renderer", c.Name(), "backend", b.Name())
	}
	return nil, fmt.Errorf("%w on %s", ErrNoSupportedRenderer, b.Name())
}
