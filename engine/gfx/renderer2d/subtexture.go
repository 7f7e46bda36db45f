package renderer2d

import "github.com/ember2d/ember/engine/gfx"

// SubTexture2D describes a UV sub-rect of a full texture, typically one
// cell of a sprite atlas.
type SubTexture2D struct {
	Texture gfx.TextureID
	U0, V0  float32 // top-left
	U1, V1  float32 // bottom-right
}

// FromPixels builds a subtexture from pixel coordinates within an atlas.
func FromPixels(tex gfx.TextureID, x, y, w, h, atlasW, atlasH int) SubTexture2D {
	return SubTexture2D{
		Texture: tex,
		U0:      float32(x) / float32(atlasW),
		V0:      float32(y) / float32(atlasH),
		U1:      float32(x+w) / float32(atlasW),
		V1:      float32(y+h) / float32(atlasH),
	}
}

// FromGrid builds a subtexture from tile grid coordinates (cx, cy) of cell
// size (cw, ch).
func FromGrid(tex gfx.TextureID, cx, cy, cw, ch, atlasW, atlasH int) SubTexture2D {
	return FromPixels(tex, cx*cw, cy*ch, cw, ch, atlasW, atlasH)
}
