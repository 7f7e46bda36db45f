package text

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ember2d/ember/engine/gfx"
)

// Glyph holds the metrics and atlas UVs of one rasterized rune.
type Glyph struct {
	Rune     rune
	Advance  float32 // pixels
	BearingX float32 // left bearing in pixels
	BearingY float32 // distance from baseline to glyph top, pixels
	W, H     int     // glyph bitmap size
	U0, V0   float32 // UVs in atlas
	U1, V1   float32
}

// Font is a size-specific glyph atlas uploaded as a single texture. Glyph
// quads sample it like any other sprite; text shares the regular instance
// stream and batching rules.
type Font struct {
	SizePx                   float32
	Ascent, Descent, LineGap float32
	Glyphs                   map[rune]Glyph
	Texture                  gfx.TextureID
	AtlasW, AtlasH           int
	kerning                  map[[2]rune]float32
	dev                      gfx.Device
}

// Kern returns the kerning adjustment in pixels between two runes.
func (f *Font) Kern(a, b rune) float32 { return f.kerning[[2]rune{a, b}] }

// Release frees the atlas texture. The device defers GPU destruction past
// in-flight frames.
func (f *Font) Release() {
	if f != nil && f.dev != nil {
		f.dev.ReleaseTexture(f.Texture)
		f.dev = nil
	}
}

// LoadTTF reads a font file and builds a white-glyph alpha-coverage atlas
// for runes 32..255 at the given pixel size, uploaded as RGBA8.
func LoadTTF(dev gfx.Device, path string, sizePx float32) (*Font, error) {
	ttfData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return Build(dev, ttfData, sizePx)
}

// Build constructs the atlas from already-loaded font bytes.
func Build(dev gfx.Device, ttfData []byte, sizePx float32) (*Font, error) {
	ft, err := opentype.Parse(ttfData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(sizePx), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer face.Close()

	m := face.Metrics()
	ascent := float32(m.Ascent.Round())
	descent := float32(-m.Descent.Round())
	lineGap := float32(m.Height.Round()) - ascent + descent

	type meas struct {
		r      rune
		w, h   int
		adv    float32
		bx, by float32
	}
	measure := make([]meas, 0, 224)
	for rr := rune(32); rr <= 255; rr++ {
		br, adv, ok := face.GlyphBounds(rr)
		if !ok {
			continue
		}
		measure = append(measure, meas{
			r:   rr,
			w:   (br.Max.X - br.Min.X).Round(),
			h:   (br.Max.Y - br.Min.Y).Round(),
			adv: float32(adv.Round()),
			bx:  float32(br.Min.X.Round()),
			by:  float32(-br.Min.Y.Round()),
		})
	}

	// Shelf packer: rows left to right, growing the square atlas until
	// everything fits.
	const padding = 2
	maxAtlas := 4096
	if caps := dev.Caps(); caps.MaxTextureSize > 0 && caps.MaxTextureSize < maxAtlas {
		maxAtlas = caps.MaxTextureSize
	}
	atlasSize := 256
	var pos map[rune]image.Point
	for {
		x, y, rowH := padding, padding, 0
		fits := true
		pos = make(map[rune]image.Point, len(measure))
		for _, g := range measure {
			if g.w == 0 || g.h == 0 {
				continue
			}
			if g.w+padding*2 > atlasSize || g.h+padding*2 > atlasSize {
				fits = false
				break
			}
			if x+g.w+padding > atlasSize {
				x = padding
				y += rowH + padding
				rowH = 0
			}
			if y+g.h+padding > atlasSize {
				fits = false
				break
			}
			pos[g.r] = image.Pt(x, y)
			x += g.w + padding
			if g.h > rowH {
				rowH = g.h
			}
		}
		if fits {
			break
		}
		atlasSize *= 2
		if atlasSize > maxAtlas {
			return nil, fmt.Errorf("font atlas exceeds max texture size %d", maxAtlas)
		}
	}

	// Rasterize white glyphs with alpha coverage.
	dst := image.NewRGBA(image.Rect(0, 0, atlasSize, atlasSize))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.RGBA{}}, image.Point{}, draw.Src)
	drawer := &font.Drawer{Dst: dst, Src: image.White, Face: face}

	glyphs := make(map[rune]Glyph, len(measure))
	for _, g := range measure {
		gl := Glyph{
			Rune: g.r, Advance: g.adv,
			BearingX: g.bx, BearingY: g.by,
			W: g.w, H: g.h,
		}
		if g.w > 0 && g.h > 0 {
			p := pos[g.r]
			baseline := p.Y + int(g.by)
			drawer.Dot = fixed.P(p.X-int(g.bx), baseline)
			drawer.DrawString(string(g.r))

			gl.U0 = float32(p.X) / float32(atlasSize)
			gl.V0 = float32(p.Y) / float32(atlasSize)
			gl.U1 = float32(p.X+g.w) / float32(atlasSize)
			gl.V1 = float32(p.Y+g.h) / float32(atlasSize)
		}
		glyphs[g.r] = gl
	}

	// Bake the kerning table; the face is closed after Build returns.
	kerning := make(map[[2]rune]float32)
	for _, a := range measure {
		for _, b := range measure {
			if dx := face.Kern(a.r, b.r); dx != 0 {
				kerning[[2]rune{a.r, b.r}] = float32(dx.Round())
			}
		}
	}

	tex, err := dev.RegisterTexture(dst.Pix, atlasSize, atlasSize)
	if err != nil {
		return nil, fmt.Errorf("upload atlas: %w", err)
	}

	return &Font{
		SizePx: sizePx,
		Ascent: ascent, Descent: descent, LineGap: lineGap,
		Glyphs:  glyphs,
		Texture: tex,
		AtlasW:  atlasSize, AtlasH: atlasSize,
		kerning: kerning,
		dev:     dev,
	}, nil
}
