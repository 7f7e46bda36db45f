package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
	"github.com/ember2d/ember/engine/gfx/gfxtest"
	"github.com/ember2d/ember/engine/gfx/renderer2d"
	"github.com/ember2d/ember/engine/scene"
)

// fixedFont builds a synthetic monospace atlas: every printable glyph is
// 8x12 with advance 10, the space advances without a bitmap.
func fixedFont(tex gfx.TextureID) *Font {
	f := &Font{
		SizePx:  16,
		Ascent:  12,
		Descent: -4,
		LineGap: 2,
		Glyphs:  make(map[rune]Glyph),
		Texture: tex,
		AtlasW:  256,
		AtlasH:  256,
		kerning: map[[2]rune]float32{{'A', 'V'}: -2},
	}
	f.Glyphs[' '] = Glyph{Rune: ' ', Advance: 10}
	for r := rune('!'); r <= 'z'; r++ {
		f.Glyphs[r] = Glyph{
			Rune: r, Advance: 10, BearingY: 10,
			W: 8, H: 12,
			U0: 0, V0: 0, U1: 0.03125, V1: 0.046875,
		}
	}
	return f
}

func newTextScene(t *testing.T) (*gfxtest.Device, *renderer2d.Renderer2D, *Font) {
	t.Helper()
	dev := gfxtest.New()
	rd, err := renderer2d.New(gfx.NewDriver(dev))
	require.NoError(t, err)
	tex, err := dev.RegisterTexture(make([]byte, 4), 1, 1)
	require.NoError(t, err)
	require.NoError(t, rd.BeginScene(scene.NewCamera2D(800, 600), colors.Black))
	return dev, rd, fixedFont(tex)
}

func TestDrawEmitsOneQuadPerVisibleGlyph(t *testing.T) {
	dev, rd, f := newTextScene(t)

	Draw(rd, f, 0, 0, "ab cd", colors.White)
	require.NoError(t, rd.EndScene())

	// Four visible glyphs; the space advances the pen without a quad.
	assert.Len(t, dev.Uploaded, 4)
	// One atlas texture means one batch for the whole run.
	require.Len(t, dev.Draws, 1)
	assert.Equal(t, f.Texture, dev.Draws[0].Texture)
	assert.Equal(t, 4, dev.Draws[0].Count)

	// Monospace advance: glyph centers step by 10, with the space's gap
	// between the second and third.
	xs := []float32{
		dev.Uploaded[0].Model[4],
		dev.Uploaded[1].Model[4],
		dev.Uploaded[2].Model[4],
		dev.Uploaded[3].Model[4],
	}
	assert.InDelta(t, 10, xs[1]-xs[0], 1e-4)
	assert.InDelta(t, 20, xs[2]-xs[1], 1e-4)
	assert.InDelta(t, 10, xs[3]-xs[2], 1e-4)
}

func TestDrawNewlineAdvancesBaseline(t *testing.T) {
	dev, rd, f := newTextScene(t)

	Draw(rd, f, 5, 0, "a\nb", colors.White)
	require.NoError(t, rd.EndScene())

	require.Len(t, dev.Uploaded, 2)
	assert.InDelta(t, dev.Uploaded[0].Model[4], dev.Uploaded[1].Model[4], 1e-4, "newline resets the pen x")
	dy := dev.Uploaded[1].Model[5] - dev.Uploaded[0].Model[5]
	assert.InDelta(t, LineHeight(f), dy, 1e-4)
}

func TestDrawAppliesKerning(t *testing.T) {
	dev, rd, f := newTextScene(t)

	Draw(rd, f, 0, 0, "AV", colors.White)
	require.NoError(t, rd.EndScene())

	require.Len(t, dev.Uploaded, 2)
	dx := dev.Uploaded[1].Model[4] - dev.Uploaded[0].Model[4]
	assert.InDelta(t, 8, dx, 1e-4, "advance 10 plus kerning -2")
}

func TestDrawTintsGlyphQuads(t *testing.T) {
	dev, rd, f := newTextScene(t)

	Draw(rd, f, 0, 0, "x", colors.Yellow)
	require.NoError(t, rd.EndScene())

	require.Len(t, dev.Uploaded, 1)
	assert.Equal(t, [4]float32(colors.Yellow), dev.Uploaded[0].Color)
}

func TestMeasure(t *testing.T) {
	f := fixedFont(1)

	w, h := Measure(f, "abc", f.SizePx)
	assert.InDelta(t, 30, w, 1e-4)
	assert.InDelta(t, LineHeight(f), h, 1e-4)

	// The widest line wins; each newline adds a line height.
	w, h = Measure(f, "abcd\nab", f.SizePx)
	assert.InDelta(t, 40, w, 1e-4)
	assert.InDelta(t, 2*LineHeight(f), h, 1e-4)

	// Rendering at half the atlas size halves both extents.
	w, h = Measure(f, "abc", f.SizePx/2)
	assert.InDelta(t, 15, w, 1e-4)
	assert.InDelta(t, LineHeight(f)/2, h, 1e-4)
}

func TestLineMetrics(t *testing.T) {
	f := fixedFont(1)
	assert.Equal(t, float32(18), LineHeight(f))
	assert.Equal(t, float32(12), BaselineToTop(f))
}
