package text

import (
	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx/renderer2d"
)

// Draw lays out s starting at top-left (x, y) and submits one glyph quad
// per visible glyph into the renderer's current frame. Text is not a
// separate pass: glyphs flow through the same batcher as every other
// primitive, so a run of text is one batch keyed on the atlas texture.
func Draw(rd *renderer2d.Renderer2D, f *Font, x, y float32, s string, color colors.Color) {
	penX := x
	baseY := y + f.Ascent // move origin to top-left
	var prev rune = -1

	for _, r := range s {
		if r == '\n' {
			penX = x
			baseY += LineHeight(f)
			prev = -1
			continue
		}

		g, ok := f.Glyphs[r]
		if !ok {
			if sp, ok2 := f.Glyphs[' ']; ok2 {
				penX += sp.Advance
			}
			prev = r
			continue
		}

		if prev >= 0 {
			penX += f.Kern(prev, r)
		}

		// Whitespace advances the pen but has no quad.
		if g.W > 0 && g.H > 0 {
			left := penX + g.BearingX
			top := baseY - g.BearingY
			cx := left + float32(g.W)*0.5
			cy := top + float32(g.H)*0.5

			rd.DrawTexturedQuadUV(
				cx, cy,
				float32(g.W), float32(g.H),
				f.Texture, color, 0,
				g.U0, g.V0, g.U1, g.V1,
			)
		}

		penX += g.Advance
		prev = r
	}
}

// Measure returns the layout extents of s at the given render size
// (scaled from the atlas's native size).
func Measure(f *Font, s string, size float32) (width, height float32) {
	var lineW float32
	var prev rune = -1
	height = LineHeight(f)
	scale := size / f.SizePx

	for _, r := range s {
		if r == '\n' {
			if lineW > width {
				width = lineW
			}
			lineW = 0
			height += LineHeight(f)
			prev = -1
			continue
		}

		g, ok := f.Glyphs[r]
		if !ok {
			if sp, ok2 := f.Glyphs[' ']; ok2 {
				lineW += sp.Advance
			}
			prev = r
			continue
		}

		if prev >= 0 {
			lineW += f.Kern(prev, r)
		}
		lineW += g.Advance
		prev = r
	}

	if lineW > width {
		width = lineW
	}
	return width * scale, height * scale
}

// LineHeight is the baseline-to-baseline distance.
func LineHeight(f *Font) float32 { return f.Ascent - f.Descent + f.LineGap }

// BaselineToTop is the distance from baseline up to the glyph box top.
func BaselineToTop(f *Font) float32 { return f.Ascent }
