package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaps_Has(t *testing.T) {
	c := Caps{Supported: CapsCompute | CapsIndex32}
	assert.True(t, c.Has(CapsCompute))
	assert.True(t, c.Has(CapsCompute|CapsIndex32))
	assert.False(t, c.Has(CapsCompute|CapsTextureBlit))
	assert.True(t, c.Has(0))
}

func TestCaps_Formats(t *testing.T) {
	full := FullCaps()
	for f := TextureFormatRGBA8; f < textureFormatCount; f++ {
		assert.True(t, full.FormatSupported(f, FormatSupportTexture2D|FormatSupportFrameBuffer|FormatSupportBlit), f.String())
	}
	assert.Equal(t, MaxColorAttachments+1, full.MaxFBAttachments)
	assert.False(t, full.FormatSupported(textureFormatCount, FormatSupportTexture2D))

	c := full.WithFormat(TextureFormatRGB10A2, FormatSupportTexture2D)
	assert.True(t, c.FormatSupported(TextureFormatRGB10A2, FormatSupportTexture2D))
	assert.False(t, c.FormatSupported(TextureFormatRGB10A2, FormatSupportFrameBuffer))
	// the receiver is a copy
	assert.True(t, full.FormatSupported(TextureFormatRGB10A2, FormatSupportFrameBuffer))

	assert.Equal(t, c, c.WithFormat(textureFormatCount, 0))
}

func TestTextureFormat(t *testing.T) {
	assert.True(t, TextureFormatD32F.IsDepth())
	assert.True(t, TextureFormatD24S8.IsDepth())
	assert.False(t, TextureFormatRGBA16F.IsDepth())
	assert.Equal(t, "RGB10A2", TextureFormatRGB10A2.String())
	assert.Equal(t, "Unknown", TextureFormatUnknown.String())
}
