package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/Carmen-Shannon/oxy-lighting/internal/logging"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// defaultMaterial is used by primitives without a material, with the glTF default factors.
func defaultMaterial() material.Material {
	return material.NewMaterial(
		material.WithName("default"),
		material.WithBaseColor([4]float32{1, 1, 1, 1}),
		material.WithMetallic(1),
		material.WithRoughness(1),
	)
}

// extractMaterial converts a glTF material. MASK is imported as opaque since the
// renderers have no alpha test. A base color texture that fails to decode is logged and
// skipped; the material keeps its factors.
//
// Parameters:
//   - p: the parser holding the document
//   - index: the material index
//   - maxTextureSize: textures with a larger edge are scaled down, 0 keeps the source size
//
// Returns:
//   - material.Material: the engine material
func extractMaterial(p *parser, index, maxTextureSize int) material.Material {
	m := p.doc.Materials[index]
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("material%d", index)
	}

	opts := []material.MaterialBuilderOption{
		material.WithName(name),
		material.WithBaseColor([4]float32{1, 1, 1, 1}),
		material.WithMetallic(1),
		material.WithRoughness(1),
		material.WithBlend(m.AlphaMode == alphaModeBlend),
		material.WithDoubleSided(m.DoubleSided),
	}
	if m.EmissiveFactor != nil {
		e := *m.EmissiveFactor
		opts = append(opts, material.WithEmissive(e[0], e[1], e[2]))
	}

	if pbr := m.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			opts = append(opts, material.WithBaseColor(*pbr.BaseColorFactor))
		}
		if pbr.MetallicFactor != nil {
			opts = append(opts, material.WithMetallic(*pbr.MetallicFactor))
		}
		if pbr.RoughnessFactor != nil {
			opts = append(opts, material.WithRoughness(*pbr.RoughnessFactor))
		}
		if pbr.BaseColorTexture != nil {
			tex, err := p.texture(pbr.BaseColorTexture.Index, maxTextureSize)
			if err != nil {
				logging.Logger().Warn("base color texture skipped", "material", name, "error", err)
			} else {
				opts = append(opts, material.WithBaseColorTexture(tex))
			}
		}
	}
	return material.NewMaterial(opts...)
}

// texture decodes the image of a glTF texture into RGBA8 staging data.
// PNG, JPEG and WebP sources are supported.
func (p *parser) texture(index, maxSize int) (common.TextureStagingData, error) {
	if index < 0 || index >= len(p.doc.Textures) {
		return common.TextureStagingData{}, fmt.Errorf("%w: texture %d out of range", ErrInvalidAsset, index)
	}
	src := p.doc.Textures[index].Source
	if src == nil || *src < 0 || *src >= len(p.doc.Images) {
		return common.TextureStagingData{}, fmt.Errorf("%w: texture %d has no image", ErrInvalidAsset, index)
	}
	img := p.doc.Images[*src]

	var data []byte
	var err error
	if img.BufferView != nil {
		data, err = p.bufferView(*img.BufferView)
	} else {
		data, err = p.readURI(img.URI)
	}
	if err != nil {
		return common.TextureStagingData{}, err
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: image %d: %v", ErrUnsupported, *src, err)
	}

	bounds := decoded.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if edge := max(w, h); maxSize > 0 && edge > maxSize {
		w = max(w*maxSize/edge, 1)
		h = max(h*maxSize/edge, 1)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		xdraw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), decoded, bounds, xdraw.Src, nil)
	}

	logging.Logger().Debug("texture decoded", "image", *src, "format", format, "width", w, "height", h)
	return common.TextureStagingData{Pixels: rgba.Pix, Width: uint32(w), Height: uint32(h)}, nil
}
