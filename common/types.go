// package common contains plain value types and math helpers shared by the engine packages.
// Nothing in here owns GPU resources.
package common

// TextureStagingData holds RGBA8 pixel data for a texture that is waiting to be uploaded.
type TextureStagingData struct {
	// Pixels is tightly packed RGBA8, 4 bytes per texel, row-major.
	Pixels []byte
	// Width is the width of the texture in texels.
	Width uint32
	// Height is the height of the texture in texels.
	Height uint32
}

// Valid reports whether the pixel slice is large enough for the declared dimensions.
//
// Returns:
//   - bool: true when Width and Height are non-zero and Pixels holds Width*Height*4 bytes
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) >= int(t.Width*t.Height*4)
}
