package backend

// CapsFlags is a bit set of optional backend features.
type CapsFlags uint64

const (
	// CapsCompute reports compute shader support.
	CapsCompute CapsFlags = 1 << iota
	// CapsIndex32 reports 32-bit index buffer support.
	CapsIndex32
	// CapsFragmentDepth reports that fragment shaders can read and write depth.
	CapsFragmentDepth
	// CapsTextureBlit reports texture to texture copy support.
	CapsTextureBlit
	// CapsTextureReadBack reports texture to CPU read back support.
	CapsTextureReadBack
)

// TextureFormat enumerates the texture formats the renderers use.
type TextureFormat uint8

const (
	TextureFormatUnknown TextureFormat = iota
	TextureFormatRGBA8
	TextureFormatBGRA8
	TextureFormatRGB10A2
	TextureFormatRGBA16F
	TextureFormatRGBA32F
	TextureFormatR32F
	TextureFormatD24S8
	TextureFormatD32F

	textureFormatCount
)

// IsDepth reports whether f is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatD24S8 || f == TextureFormatD32F
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "RGBA8"
	case TextureFormatBGRA8:
		return "BGRA8"
	case TextureFormatRGB10A2:
		return "RGB10A2"
	case TextureFormatRGBA16F:
		return "RGBA16F"
	case TextureFormatRGBA32F:
		return "RGBA32F"
	case TextureFormatR32F:
		return "R32F"
	case TextureFormatD24S8:
		return "D24S8"
	case TextureFormatD32F:
		return "D32F"
	default:
		return "Unknown"
	}
}

// FormatSupport is a bit set describing what a texture format can be used for.
type FormatSupport uint16

const (
	// FormatSupportTexture2D means the format can be sampled as a 2D texture.
	FormatSupportTexture2D FormatSupport = 1 << iota
	// FormatSupportFrameBuffer means the format can be a framebuffer attachment.
	FormatSupportFrameBuffer
	// FormatSupportBlit means the format can be the source or destination of Blit.
	FormatSupportBlit
)

// Caps describes what the active backend can do. Renderers query it before allocating anything.
type Caps struct {
	// Supported is the set of optional features.
	Supported CapsFlags
	// MaxFBAttachments is the maximum number of attachments in one framebuffer, depth included.
	MaxFBAttachments int
	// MaxDrawCalls is the number of Submit calls one frame can hold.
	MaxDrawCalls int
	// Formats holds per-format support bits, indexed by TextureFormat.
	Formats [textureFormatCount]FormatSupport
}

// Has reports whether every bit in flags is supported.
func (c Caps) Has(flags CapsFlags) bool {
	return c.Supported&flags == flags
}

// FormatSupported reports whether format supports every bit in support.
//
// Parameters:
//   - format: the texture format to query
//   - support: the required usage bits
//
// Returns:
//   - bool: true when all requested usages are supported
func (c Caps) FormatSupported(format TextureFormat, support FormatSupport) bool {
	if format >= textureFormatCount {
		return false
	}
	return c.Formats[format]&support == support
}

// WithFormat returns a copy of c with the support bits for format replaced.
// Used to build capability sets for tests and software backends.
func (c Caps) WithFormat(format TextureFormat, support FormatSupport) Caps {
	if format < textureFormatCount {
		c.Formats[format] = support
	}
	return c
}

// FullCaps returns a capability set with every feature and format enabled.
func FullCaps() Caps {
	c := Caps{
		Supported: CapsCompute | CapsIndex32 | CapsFragmentDepth | CapsTextureBlit |
			CapsTextureReadBack,
		MaxFBAttachments: MaxColorAttachments + 1,
		MaxDrawCalls:     DefaultMaxDrawCalls,
	}
	for f := TextureFormatRGBA8; f < textureFormatCount; f++ {
		c.Formats[f] = FormatSupportTexture2D | FormatSupportFrameBuffer | FormatSupportBlit
	}
	return c
}
