package renderer2d

import (
	"github.com/ember2d/ember/engine/colors"
	"github.com/ember2d/ember/engine/gfx"
)

// Anchor selects which point of a primitive its position names.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTopLeft
)

// RectBuilder configures one rectangle. Defaults: 64x64 white at the
// origin, center-anchored, untextured. Nothing is drawn until Submit is
// called; dropping the builder without Submit draws nothing.
type RectBuilder struct {
	rd     *Renderer2D
	anchor Anchor
	x, y   float32
	w, h   float32
	rot    float32
	color  colors.Color
	tex    gfx.TextureID
	uv     [4]float32
}

// Rect starts building a rectangle.
func (rd *Renderer2D) Rect() *RectBuilder {
	return &RectBuilder{
		rd:    rd,
		w:     64,
		h:     64,
		color: colors.White,
		tex:   gfx.WhiteTexture,
		uv:    [4]float32{0, 0, 1, 1},
	}
}

// At sets the position named by the anchor.
func (b *RectBuilder) At(x, y float32) *RectBuilder {
	b.x, b.y = x, y
	return b
}

// Size sets the rectangle's extents.
func (b *RectBuilder) Size(w, h float32) *RectBuilder {
	b.w, b.h = w, h
	return b
}

// Color sets the tint.
func (b *RectBuilder) Color(c colors.Color) *RectBuilder {
	b.color = c
	return b
}

// Rotate sets the rotation in radians around the rectangle's center.
func (b *RectBuilder) Rotate(rad float32) *RectBuilder {
	b.rot = rad
	return b
}

// Anchor sets the anchor point. Default is the center.
func (b *RectBuilder) Anchor(a Anchor) *RectBuilder {
	b.anchor = a
	return b
}

// Texture samples the given texture over the rectangle.
func (b *RectBuilder) Texture(id gfx.TextureID) *RectBuilder {
	b.tex = id
	return b
}

// UV sets the sampled sub-rect; default covers the full texture.
func (b *RectBuilder) UV(u0, v0, u1, v1 float32) *RectBuilder {
	b.uv = [4]float32{u0, v0, u1, v1}
	return b
}

// Sub samples a SubTexture2D region, setting texture and UVs together.
func (b *RectBuilder) Sub(sub SubTexture2D) *RectBuilder {
	b.tex = sub.Texture
	b.uv = [4]float32{sub.U0, sub.V0, sub.U1, sub.V1}
	return b
}

// Submit records the rectangle into the current frame. The explicit
// terminal call replaces any submit-on-destruction behavior: a builder is
// inert until submitted.
func (b *RectBuilder) Submit() {
	cx, cy := b.x, b.y
	if b.anchor == AnchorTopLeft {
		cx += b.w * 0.5
		cy += b.h * 0.5
	}
	b.rd.submitQuad(cx, cy, b.w, b.h, b.rot, b.color, b.tex, b.uv[0], b.uv[1], b.uv[2], b.uv[3])
}

// CircleBuilder configures one filled circle. Defaults: radius 32, 32
// segments, white.
type CircleBuilder struct {
	rd       *Renderer2D
	x, y     float32
	radius   float32
	segments int
	color    colors.Color
}

// Circle starts building a circle.
func (rd *Renderer2D) Circle() *CircleBuilder {
	return &CircleBuilder{rd: rd, radius: 32, segments: 32, color: colors.White}
}

// At sets the center position.
func (b *CircleBuilder) At(x, y float32) *CircleBuilder {
	b.x, b.y = x, y
	return b
}

// Radius sets the circle radius.
func (b *CircleBuilder) Radius(r float32) *CircleBuilder {
	b.radius = r
	return b
}

// Segments sets the wedge count. Values below 3 surface as
// gfx.ErrInvalidPrimitiveParameter from Submit.
func (b *CircleBuilder) Segments(n int) *CircleBuilder {
	b.segments = n
	return b
}

// Color sets the fill color.
func (b *CircleBuilder) Color(c colors.Color) *CircleBuilder {
	b.color = c
	return b
}

// Submit records the circle into the current frame.
func (b *CircleBuilder) Submit() error {
	return b.rd.DrawCircle(b.x, b.y, b.radius, b.segments, b.color)
}
