package light

// PointLightBuilderOption is a function that configures a PointLight during construction.
type PointLightBuilderOption func(*PointLight)

// NewPointLight creates a white 1 lumen point light at the origin with opts applied.
//
// Parameters:
//   - opts: variadic list of PointLightBuilderOption functions to configure the light
//
// Returns:
//   - PointLight: the configured light
func NewPointLight(opts ...PointLightBuilderOption) PointLight {
	l := PointLight{
		Color:     [3]float32{1, 1, 1},
		Intensity: 1,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithPosition is an option builder that sets the position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - PointLightBuilderOption: a function that applies the position option to a PointLight
func WithPosition(x, y, z float32) PointLightBuilderOption {
	return func(l *PointLight) {
		l.Position = [3]float32{x, y, z}
	}
}

// WithColor is an option builder that sets the linear RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - PointLightBuilderOption: a function that applies the color option to a PointLight
func WithColor(r, g, b float32) PointLightBuilderOption {
	return func(l *PointLight) {
		l.Color = [3]float32{r, g, b}
	}
}

// WithIntensity is an option builder that sets the luminous power in lumen.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - PointLightBuilderOption: a function that applies the intensity option to a PointLight
func WithIntensity(intensity float32) PointLightBuilderOption {
	return func(l *PointLight) {
		l.Intensity = intensity
	}
}
