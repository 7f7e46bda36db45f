package gfx

import (
	"math"

	"github.com/ember2d/ember/engine/colors"
)

// Instance is the per-occurrence record drawn against a shared mesh
// template. One Instance is produced per primitive call; the whole frame's
// instances live in a single growable arena that is truncated at the next
// frame's submission start.
//
// Layout matches the instanced vertex attributes (two vec4 for the affine
// transform, vec4 color, vec4 uv rect). 64 bytes, 16-byte aligned.
type Instance struct {
	Model [8]float32 // 2x3 affine: a, b, c, d, tx, ty, then 2 pad floats
	Color [4]float32
	UV    [4]float32 // u0, v0, u1, v1
}

// InstanceStride is the byte size of one Instance as uploaded to the GPU.
const InstanceStride = 16 * 4

// Transform fills the affine part: scale by (sx, sy), rotate by rot
// radians, translate to (tx, ty). Column-major 2x2 followed by translation,
// matching the vertex stage's mat2 * pos + t.
func Transform(tx, ty, sx, sy, rot float32) [8]float32 {
	c := float32(math.Cos(float64(rot)))
	s := float32(math.Sin(float64(rot)))
	return [8]float32{
		c * sx, s * sx,
		-s * sy, c * sy,
		tx, ty,
		0, 0,
	}
}

// NewInstance builds the record for a primitive centered at (x, y) with
// extents (w, h), rotated by rot radians around its center.
func NewInstance(x, y, w, h, rot float32, color colors.Color, u0, v0, u1, v1 float32) Instance {
	return Instance{
		Model: Transform(x, y, w, h, rot),
		Color: color,
		UV:    [4]float32{u0, v0, u1, v1},
	}
}
